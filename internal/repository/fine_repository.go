package repository

import (
	"context"
	"database/sql"
	"time"
)

// FineRepo provides data access to the fines ledger.  The ledger is
// append-only: rows are inserted once and only their status and paid
// date ever change, each transition guarded by the expected current
// status.
type FineRepo struct {
	db *sql.DB
}

// NewFineRepo returns a new FineRepo bound to the provided database.
func NewFineRepo(db *sql.DB) *FineRepo { return &FineRepo{db: db} }

// Create appends an UNPAID fine and returns its id.  loanID may be nil
// for manual assessments not tied to a loan.
func (r *FineRepo) Create(ctx context.Context, memberID uint64, loanID *uint64, amountCents int64, reason string, issuedAt time.Time) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO fines (member_id, loan_id, amount_cents, reason, issue_date, status)
		 VALUES (?, ?, ?, ?, ?, 'UNPAID')`,
		memberID, loanID, amountCents, reason, issuedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// MarkPaid flips an UNPAID fine to PAID with the given payment date.
// Returns false when the fine does not exist or is not UNPAID.
func (r *FineRepo) MarkPaid(ctx context.Context, fineID uint64, paidAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE fines SET status = 'PAID', paid_date = ? WHERE id = ? AND status = 'UNPAID'`,
		paidAt, fineID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Waive flips an UNPAID fine to WAIVED.  Returns false when the fine
// does not exist or is not UNPAID.
func (r *FineRepo) Waive(ctx context.Context, fineID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE fines SET status = 'WAIVED' WHERE id = ? AND status = 'UNPAID'`, fineID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UnpaidSummary returns the count and total amount of UNPAID fines.
func (r *FineRepo) UnpaidSummary(ctx context.Context) (count int, totalCents int64, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM fines WHERE status = 'UNPAID'`).
		Scan(&count, &totalCents)
	return
}

// FineDetail is a fine joined with the member's name, returned by the
// librarian listing.
type FineDetail struct {
	ID          uint64     `json:"id"`
	MemberID    uint64     `json:"member_id"`
	MemberName  string     `json:"member_name"`
	LoanID      *uint64    `json:"loan_id,omitempty"`
	AmountCents int64      `json:"amount_cents"`
	Reason      string     `json:"reason"`
	IssueDate   time.Time  `json:"issue_date"`
	PaidDate    *time.Time `json:"paid_date,omitempty"`
	Status      string     `json:"status"`
}

const fineDetailQuery = `SELECT f.id, f.member_id, m.name, f.loan_id, f.amount_cents, f.reason,
	f.issue_date, f.paid_date, f.status
	FROM fines f
	JOIN members m ON m.id = f.member_id`

func scanFineDetails(rows *sql.Rows) ([]FineDetail, error) {
	defer rows.Close()
	fines := make([]FineDetail, 0)
	for rows.Next() {
		var (
			f      FineDetail
			loanID sql.NullInt64
			paid   sql.NullTime
		)
		if err := rows.Scan(&f.ID, &f.MemberID, &f.MemberName, &loanID, &f.AmountCents, &f.Reason,
			&f.IssueDate, &paid, &f.Status); err != nil {
			return nil, err
		}
		if loanID.Valid {
			id := uint64(loanID.Int64)
			f.LoanID = &id
		}
		if paid.Valid {
			t := paid.Time
			f.PaidDate = &t
		}
		fines = append(fines, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fines, nil
}

// ListAll returns every fine with the member's name, newest first.
func (r *FineRepo) ListAll(ctx context.Context) ([]FineDetail, error) {
	rows, err := r.db.QueryContext(ctx, fineDetailQuery+` ORDER BY f.issue_date DESC, f.id DESC`)
	if err != nil {
		return nil, err
	}
	return scanFineDetails(rows)
}

// ListByMember returns the member's fines, newest first.
func (r *FineRepo) ListByMember(ctx context.Context, memberID uint64) ([]FineDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		fineDetailQuery+` WHERE f.member_id = ? ORDER BY f.issue_date DESC, f.id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	return scanFineDetails(rows)
}
