package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/library-circulation/internal/model"
)

// CopyRepo provides data access to the copies table.  Circulation only
// ever flips a copy between AVAILABLE and CHECKED_OUT; every mutation
// here is guarded by the expected current status so that two
// transactions can never claim or release the same copy twice.
type CopyRepo struct {
	db *sql.DB
}

// NewCopyRepo returns a new CopyRepo bound to the provided database.
func NewCopyRepo(db *sql.DB) *CopyRepo { return &CopyRepo{db: db} }

// ClaimAvailableTx claims one AVAILABLE copy of the given book inside
// the transaction and transitions it to CHECKED_OUT.  The claim is a
// compare-and-set: the UPDATE only succeeds while the row is still
// AVAILABLE, so a concurrent checkout that won the race leaves zero
// affected rows and the next candidate is tried.  When every candidate
// is gone, ErrNoAvailableCopies is returned.
func (r *CopyRepo) ClaimAvailableTx(ctx context.Context, tx *sql.Tx, bookID uint64) (uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM copies WHERE book_id = ? AND status = 'AVAILABLE' ORDER BY id`,
		bookID)
	if err != nil {
		return 0, err
	}
	var candidates []uint64
	for rows.Next() {
		var id uint64
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return 0, scanErr
		}
		candidates = append(candidates, id)
	}
	if err = rows.Close(); err != nil {
		return 0, err
	}
	return r.claimCandidatesTx(ctx, tx, candidates)
}

// claimCandidatesTx runs the compare-and-set loop over candidate copy
// ids.  A concurrent checkout may flip a candidate between the select
// and the update; the loser sees zero affected rows and moves on to
// the next candidate, so a stale candidate list still claims at most
// one copy.
func (r *CopyRepo) claimCandidatesTx(ctx context.Context, tx *sql.Tx, candidates []uint64) (uint64, error) {
	for _, id := range candidates {
		res, err := tx.ExecContext(ctx,
			`UPDATE copies SET status = 'CHECKED_OUT' WHERE id = ? AND status = 'AVAILABLE'`, id)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return id, nil
		}
		// Lost the race for this copy; try the next candidate.
	}
	return 0, ErrNoAvailableCopies
}

// ReleaseTx transitions a CHECKED_OUT copy back to AVAILABLE within the
// transaction that closes its loan.
func (r *CopyRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, copyID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE copies SET status = 'AVAILABLE' WHERE id = ? AND status = 'CHECKED_OUT'`, copyID)
	return err
}

// ListByBook returns all copies of a book, ordered by id.  Used by the
// catalog detail view so librarians can see per-copy status and
// location.
func (r *CopyRepo) ListByBook(ctx context.Context, bookID uint64) ([]model.Copy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, book_id, status, location FROM copies WHERE book_id = ? ORDER BY id`,
		bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	copies := make([]model.Copy, 0)
	for rows.Next() {
		var c model.Copy
		if err := rows.Scan(&c.ID, &c.BookID, &c.Status, &c.Location); err != nil {
			return nil, err
		}
		copies = append(copies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return copies, nil
}
