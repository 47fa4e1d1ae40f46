package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/library-circulation/internal/model"
)

// BookRepo provides read access to the catalog: books together with
// their derived copy counts.  Availability is always computed from the
// copies table, never stored on the book row, so the counts can not
// drift from loan state.
type BookRepo struct {
	db *sql.DB
}

// NewBookRepo returns a new BookRepo bound to the given database.
func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *BookRepo) DB() *sql.DB { return r.db }

const bookColumns = `b.id, b.isbn, b.title, b.author, b.category, b.publication_year, b.description,
	(SELECT COUNT(*) FROM copies c WHERE c.book_id = b.id AND c.status = 'AVAILABLE') AS available_copies,
	(SELECT COUNT(*) FROM copies c2 WHERE c2.book_id = b.id) AS total_copies`

func scanBook(row interface{ Scan(...any) error }) (model.Book, error) {
	var (
		b        model.Book
		category sql.NullString
		year     sql.NullInt64
		desc     sql.NullString
	)
	err := row.Scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &category, &year, &desc,
		&b.AvailableCopies, &b.TotalCopies)
	if err != nil {
		return model.Book{}, err
	}
	b.Category = category.String
	b.PublicationYear = int(year.Int64)
	b.Description = desc.String
	return b, nil
}

// GetByID returns a single book with derived counts.  ErrBookNotFound
// is returned when the id is unknown.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (model.Book, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books b WHERE b.id = ?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Book{}, ErrBookNotFound
	}
	return b, err
}

// Search lists books matching the keyword in the requested field.  An
// empty keyword lists the whole catalog.  Supported fields are title,
// author, category and isbn; anything else matches title or author.
func (r *BookRepo) Search(ctx context.Context, keyword, by string) ([]model.Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books b`
	var args []any
	if keyword != "" {
		like := "%" + keyword + "%"
		switch strings.ToLower(by) {
		case "title":
			q += ` WHERE b.title LIKE ?`
			args = append(args, like)
		case "author":
			q += ` WHERE b.author LIKE ?`
			args = append(args, like)
		case "category":
			q += ` WHERE b.category LIKE ?`
			args = append(args, like)
		case "isbn":
			q += ` WHERE b.isbn = ?`
			args = append(args, keyword)
		default:
			q += ` WHERE b.title LIKE ? OR b.author LIKE ?`
			args = append(args, like, like)
		}
	}
	q += ` ORDER BY b.title ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// AvailableCountTx returns the number of AVAILABLE copies of a book
// within the given transaction.  ErrBookNotFound is returned when the
// book itself does not exist, so callers can distinguish "no copies
// free" from "no such title".
func (r *BookRepo) AvailableCountTx(ctx context.Context, tx *sql.Tx, bookID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM copies c WHERE c.book_id = b.id AND c.status = 'AVAILABLE')
		 FROM books b WHERE b.id = ?`, bookID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	return n, err
}

// Count returns the number of books in the catalog.
func (r *BookRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}
