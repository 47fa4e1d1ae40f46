package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/library-circulation/internal/model"
	"github.com/iliyamo/library-circulation/internal/utils"
)

// MemberRepo provides data access to the members table.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a new MemberRepo bound to the provided database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = `id, name, email, password_hash, role, registration_date, is_active`

func scanMember(row interface{ Scan(...any) error }) (model.Member, error) {
	var m model.Member
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role, &m.RegistrationDate, &m.IsActive)
	return m, err
}

// Create inserts a member with a bcrypt-hashed password and returns its
// id.  ErrEmailExists is returned on a duplicate email.
func (r *MemberRepo) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (name, email, password_hash, role, registration_date, is_active)
		 VALUES (?, ?, ?, ?, ?, TRUE)`,
		name, email, hash, role, time.Now().UTC().Truncate(time.Second))
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") || strings.Contains(msg, "unique") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a member by normalized email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (model.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m, err := scanMember(r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE email = ? LIMIT 1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, ErrMemberNotFound
	}
	return m, err
}

// GetByID fetches a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, ErrMemberNotFound
	}
	return m, err
}

// Search lists members whose name or email matches the keyword; an
// empty keyword lists everyone.
func (r *MemberRepo) Search(ctx context.Context, keyword string) ([]model.Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members`
	var args []any
	if keyword != "" {
		like := "%" + keyword + "%"
		q += ` WHERE name LIKE ? OR email LIKE ?`
		args = append(args, like, like)
	}
	q += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]model.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// SetActive toggles the borrowing flag on an account.  Returns false
// when the member does not exist.
func (r *MemberRepo) SetActive(ctx context.Context, id uint64, active bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of registered members.
func (r *MemberRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n)
	return n, err
}
