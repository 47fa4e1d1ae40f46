package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/library-circulation/internal/model"
)

// LoanRepo provides data access to the loans table.  All timestamps are
// passed in from the caller in UTC rather than generated by the
// database, so the same statements run unchanged on every engine and
// due-date arithmetic stays in one place.
type LoanRepo struct {
	db *sql.DB
}

// NewLoanRepo returns a new LoanRepo bound to the provided database.
func NewLoanRepo(db *sql.DB) *LoanRepo { return &LoanRepo{db: db} }

// HasOpenLoanTx reports whether the member already has an open loan for
// any copy of the given book.  Used by checkout to reject a duplicate
// borrowing of the same title.
func (r *LoanRepo) HasOpenLoanTx(ctx context.Context, tx *sql.Tx, bookID, memberID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans l
		 JOIN copies c ON c.id = l.copy_id
		 WHERE c.book_id = ? AND l.member_id = ? AND l.return_date IS NULL`,
		bookID, memberID).Scan(&n)
	return n > 0, err
}

// CreateTx inserts an open loan for the claimed copy and returns the
// generated id.  The copy claim and this insert must share one
// transaction so a failure of either leaves no partial state behind.
func (r *LoanRepo) CreateTx(ctx context.Context, tx *sql.Tx, copyID, memberID uint64, checkout, due time.Time) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO loans (copy_id, member_id, checkout_date, due_date) VALUES (?, ?, ?, ?)`,
		copyID, memberID, checkout, due)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// OpenLoanTx locates the unique open loan for a (book, member) pair and
// returns its id, copy and due date.  ErrNoActiveLoan is returned when
// none exists.
func (r *LoanRepo) OpenLoanTx(ctx context.Context, tx *sql.Tx, bookID, memberID uint64) (loanID, copyID uint64, due time.Time, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT l.id, l.copy_id, l.due_date FROM loans l
		 JOIN copies c ON c.id = l.copy_id
		 WHERE c.book_id = ? AND l.member_id = ? AND l.return_date IS NULL
		 LIMIT 1`,
		bookID, memberID).Scan(&loanID, &copyID, &due)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNoActiveLoan
	}
	return
}

// CloseTx stamps the return date on an open loan.  The loan becomes
// immutable afterwards; renewals and repeated returns are rejected by
// the return_date IS NULL guard.
func (r *LoanRepo) CloseTx(ctx context.Context, tx *sql.Tx, loanID uint64, returnedAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE loans SET return_date = ? WHERE id = ? AND return_date IS NULL`,
		returnedAt, loanID)
	return err
}

// GetOpenTx loads an open loan by id together with the book it is for.
// ErrLoanNotFound is returned when the id is unknown or the loan has
// already been returned.
func (r *LoanRepo) GetOpenTx(ctx context.Context, tx *sql.Tx, loanID uint64) (model.Loan, uint64, error) {
	var (
		l      model.Loan
		bookID uint64
	)
	err := tx.QueryRowContext(ctx,
		`SELECT l.id, l.copy_id, l.member_id, l.checkout_date, l.due_date, l.renewed_count, c.book_id
		 FROM loans l
		 JOIN copies c ON c.id = l.copy_id
		 WHERE l.id = ? AND l.return_date IS NULL`,
		loanID).Scan(&l.ID, &l.CopyID, &l.MemberID, &l.CheckoutDate, &l.DueDate, &l.RenewedCount, &bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Loan{}, 0, ErrLoanNotFound
	}
	return l, bookID, err
}

// RenewTx moves the due date forward and bumps the renewal counter.
func (r *LoanRepo) RenewTx(ctx context.Context, tx *sql.Tx, loanID uint64, newDue time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE loans SET due_date = ?, renewed_count = renewed_count + 1
		 WHERE id = ? AND return_date IS NULL`,
		newDue, loanID)
	return err
}

const loanSummaryQuery = `SELECT l.id, b.title, m.name, l.checkout_date, l.due_date, l.return_date,
	CASE WHEN l.return_date IS NULL THEN 'Active' ELSE 'Returned' END AS status
	FROM loans l
	JOIN copies c ON c.id = l.copy_id
	JOIN books b ON b.id = c.book_id
	JOIN members m ON m.id = l.member_id`

func scanLoanSummaries(rows *sql.Rows) ([]model.LoanSummary, error) {
	defer rows.Close()
	summaries := make([]model.LoanSummary, 0)
	for rows.Next() {
		var (
			s        model.LoanSummary
			returned sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.MemberName, &s.CheckoutDate, &s.DueDate, &returned, &s.Status); err != nil {
			return nil, err
		}
		if returned.Valid {
			t := returned.Time
			s.ReturnDate = &t
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// ListAll returns every loan joined with its title and member name,
// newest checkout first.
func (r *LoanRepo) ListAll(ctx context.Context) ([]model.LoanSummary, error) {
	rows, err := r.db.QueryContext(ctx, loanSummaryQuery+` ORDER BY l.checkout_date DESC, l.id DESC`)
	if err != nil {
		return nil, err
	}
	return scanLoanSummaries(rows)
}

// ListByMember returns the member's own loans, newest checkout first.
func (r *LoanRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.LoanSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		loanSummaryQuery+` WHERE l.member_id = ? ORDER BY l.checkout_date DESC, l.id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	return scanLoanSummaries(rows)
}

// CountActive returns the number of open loans.
func (r *LoanRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE return_date IS NULL`).Scan(&n)
	return n, err
}

// CountOverdue returns the number of open loans whose due date has
// passed the given instant.
func (r *LoanRepo) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE return_date IS NULL AND due_date < ?`, now).Scan(&n)
	return n, err
}
