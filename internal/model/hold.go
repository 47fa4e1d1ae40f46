package model

import "time"

// Hold status values.  PENDING holds wait in the queue, READY holds
// have been promoted and await pickup, CANCELLED is terminal.
const (
	HoldPending   = "PENDING"
	HoldReady     = "READY"
	HoldCancelled = "CANCELLED"
)

// Hold represents a member's place in the wait line for a book (not a
// specific copy).  QueuePosition is derived on demand: the count of
// PENDING holds on the same book placed no later than this one, with
// ties broken by primary key.  Cancelled holds ahead of a waiter
// therefore shrink its position automatically.
//
// Fields:
//  ID               – primary key identifier.
//  BookID           – title being waited on.
//  MemberID         – waiting member.
//  PlaceDate        – server-assigned placement timestamp.
//  Status           – PENDING, READY or CANCELLED.
//  NotificationSent – whether the member was notified of promotion.
//  QueuePosition    – derived 1-based rank among PENDING holds.
type Hold struct {
	ID               uint64    `json:"id"`                // holds.id
	BookID           uint64    `json:"book_id"`           // holds.book_id
	MemberID         uint64    `json:"member_id"`         // holds.member_id
	PlaceDate        time.Time `json:"place_date"`        // holds.place_date
	Status           string    `json:"status"`            // holds.status
	NotificationSent bool      `json:"notification_sent"` // holds.notification_sent
	QueuePosition    int       `json:"queue_position"`    // derived
}
