package model

import "time"

// Fine status values.
const (
	FineUnpaid = "UNPAID"
	FinePaid   = "PAID"
	FineWaived = "WAIVED"
)

// Fine is one monetary assessment against a member, optionally tied to
// a loan.  The ledger is append-only: a fine is never deleted, only
// transitioned UNPAID→PAID (with a paid date) or UNPAID→WAIVED.
//
// Fields:
//  ID          – primary key identifier.
//  MemberID    – member the fine is assessed against.
//  LoanID      – loan that triggered the fine (nil for manual fines).
//  AmountCents – fine amount in cents.
//  Reason      – short human-readable reason.
//  IssueDate   – when the fine was assessed.
//  PaidDate    – when the fine was paid (nil otherwise).
//  Status      – UNPAID, PAID or WAIVED.
type Fine struct {
	ID          uint64     `json:"id"`           // fines.id
	MemberID    uint64     `json:"member_id"`    // fines.member_id
	LoanID      *uint64    `json:"loan_id"`      // fines.loan_id (nullable)
	AmountCents int64      `json:"amount_cents"` // fines.amount_cents
	Reason      string     `json:"reason"`       // fines.reason
	IssueDate   time.Time  `json:"issue_date"`   // fines.issue_date
	PaidDate    *time.Time `json:"paid_date"`    // fines.paid_date (nullable)
	Status      string     `json:"status"`       // fines.status
}
