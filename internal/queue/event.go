// Package queue defines message payloads exchanged over the message broker.
package queue

// HoldReadyEvent is published when a hold is promoted to READY after a
// copy of the book comes back.  It carries enough information for
// downstream consumers to notify the member without querying the
// primary database.
type HoldReadyEvent struct {
	HoldID      uint64 `json:"hold_id"`
	BookID      uint64 `json:"book_id"`
	BookTitle   string `json:"book_title"`
	MemberID    uint64 `json:"member_id"`
	MemberName  string `json:"member_name"`
	MemberEmail string `json:"member_email"`
	PlacedAt    string `json:"placed_at"`
	PromotedAt  string `json:"promoted_at"`
}
