package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/library-circulation/internal/model"
)

// HoldRepo provides data access to the holds table.  A hold's queue
// position is never stored; it is recomputed on demand from placement
// order so cancellations ahead of a waiter shrink its position
// automatically.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a new HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// HasActiveTx reports whether the member already has a PENDING or READY
// hold on the book.  A member may wait at most once per title.
func (r *HoldRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, bookID, memberID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM holds
		 WHERE book_id = ? AND member_id = ? AND status IN ('PENDING','READY')`,
		bookID, memberID).Scan(&n)
	return n > 0, err
}

// PendingFromOthersTx reports whether any other member has a PENDING
// hold on the book.  Renewal uses this to refuse extending a loan that
// someone else is waiting on.
func (r *HoldRepo) PendingFromOthersTx(ctx context.Context, tx *sql.Tx, bookID, memberID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM holds
		 WHERE book_id = ? AND member_id <> ? AND status = 'PENDING'`,
		bookID, memberID).Scan(&n)
	return n > 0, err
}

// CreateTx inserts a PENDING hold with the server-assigned placement
// timestamp and returns the generated id.
func (r *HoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, bookID, memberID uint64, placedAt time.Time) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO holds (book_id, member_id, place_date, status, notification_sent)
		 VALUES (?, ?, ?, 'PENDING', FALSE)`,
		bookID, memberID, placedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// PositionTx computes the 1-based queue position of a PENDING hold: the
// count of PENDING holds on the same book placed no later than it, with
// ties broken by primary key.  It must run in the same transaction as
// the insert it follows so the count sees the just-inserted row.
func (r *HoldRepo) PositionTx(ctx context.Context, tx *sql.Tx, holdID uint64) (int, error) {
	var pos int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM holds h2, holds h
		 WHERE h.id = ? AND h2.book_id = h.book_id AND h2.status = 'PENDING'
		 AND (h2.place_date < h.place_date
		      OR (h2.place_date = h.place_date AND h2.id <= h.id))`,
		holdID).Scan(&pos)
	return pos, err
}

// Cancel transitions a PENDING or READY hold owned by the member to
// CANCELLED.  It returns false when the hold does not exist, belongs to
// someone else, or is already terminal.
func (r *HoldRepo) Cancel(ctx context.Context, holdID, memberID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE holds SET status = 'CANCELLED'
		 WHERE id = ? AND member_id = ? AND status IN ('PENDING','READY')`,
		holdID, memberID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PromoteNextTx promotes the earliest PENDING hold for the book to
// READY and returns it, or nil when the queue is empty.  The promotion
// is a compare-and-set on the PENDING status, so two concurrent
// promotions can never both take the same hold: the loser sees zero
// affected rows and moves to the next candidate.
func (r *HoldRepo) PromoteNextTx(ctx context.Context, tx *sql.Tx, bookID uint64) (*model.Hold, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, member_id, place_date, notification_sent FROM holds
		 WHERE book_id = ? AND status = 'PENDING'
		 ORDER BY place_date ASC, id ASC`,
		bookID)
	if err != nil {
		return nil, err
	}
	var candidates []model.Hold
	for rows.Next() {
		h := model.Hold{BookID: bookID, Status: model.HoldPending}
		if scanErr := rows.Scan(&h.ID, &h.MemberID, &h.PlaceDate, &h.NotificationSent); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		candidates = append(candidates, h)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}
	return r.promoteCandidatesTx(ctx, tx, candidates)
}

// promoteCandidatesTx runs the compare-and-set loop over promotion
// candidates.  A concurrent promotion may have taken a candidate
// already; the loser sees zero affected rows and tries the next one,
// so two promoters can never both take the same hold.
func (r *HoldRepo) promoteCandidatesTx(ctx context.Context, tx *sql.Tx, candidates []model.Hold) (*model.Hold, error) {
	for _, h := range candidates {
		res, err := tx.ExecContext(ctx,
			`UPDATE holds SET status = 'READY' WHERE id = ? AND status = 'PENDING'`, h.ID)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 1 {
			h.Status = model.HoldReady
			return &h, nil
		}
	}
	return nil, nil
}

// MarkNotified records that the member was told their hold is READY.
// Called after the notification event is published.
func (r *HoldRepo) MarkNotified(ctx context.Context, holdID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE holds SET notification_sent = TRUE WHERE id = ?`, holdID)
	return err
}

// QueueForBook returns the PENDING and READY holds for a book in
// placement order.  A PENDING hold's position counts only PENDING
// holds placed no later than it (the same expression PositionTx uses),
// so a promotion or cancellation ahead of a waiter moves it up
// immediately.  READY holds report position zero: they have left the
// wait line and sit at the pickup shelf.
func (r *HoldRepo) QueueForBook(ctx context.Context, bookID uint64) ([]model.Hold, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT h.id, h.member_id, h.place_date, h.status, h.notification_sent,
		        CASE WHEN h.status = 'PENDING' THEN
		            (SELECT COUNT(*) FROM holds h2
		             WHERE h2.book_id = h.book_id AND h2.status = 'PENDING'
		               AND (h2.place_date < h.place_date
		                    OR (h2.place_date = h.place_date AND h2.id <= h.id)))
		        ELSE 0 END AS queue_pos
		 FROM holds h
		 WHERE h.book_id = ? AND h.status IN ('PENDING','READY')
		 ORDER BY h.place_date ASC, h.id ASC`,
		bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holds := make([]model.Hold, 0)
	for rows.Next() {
		h := model.Hold{BookID: bookID}
		if err := rows.Scan(&h.ID, &h.MemberID, &h.PlaceDate, &h.Status, &h.NotificationSent, &h.QueuePosition); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holds, nil
}

// CountPending returns the number of PENDING holds across all books.
func (r *HoldRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM holds WHERE status = 'PENDING'`).Scan(&n)
	return n, err
}

// MemberHold is a hold joined with its book title, returned by the
// member-facing listing.
type MemberHold struct {
	ID        uint64    `json:"id"`
	BookID    uint64    `json:"book_id"`
	BookTitle string    `json:"book_title"`
	PlaceDate time.Time `json:"place_date"`
	Status    string    `json:"status"`
}

// ListByMember returns every hold the member has placed, newest first,
// including cancelled ones so the history stays visible.
func (r *HoldRepo) ListByMember(ctx context.Context, memberID uint64) ([]MemberHold, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT h.id, h.book_id, b.title, h.place_date, h.status
		 FROM holds h
		 JOIN books b ON b.id = h.book_id
		 WHERE h.member_id = ?
		 ORDER BY h.place_date DESC, h.id DESC`,
		memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holds := make([]MemberHold, 0)
	for rows.Next() {
		var h MemberHold
		if err := rows.Scan(&h.ID, &h.BookID, &h.BookTitle, &h.PlaceDate, &h.Status); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holds, nil
}
