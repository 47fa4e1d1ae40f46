package model

import "time"

// Loan records one borrowing episode of a copy by a member.  A loan is
// open while ReturnDate is nil; at most one open loan may exist per
// copy, and at most one open loan may exist per (book, member) pair.
// Loans are never deleted.
//
// Fields:
//  ID           – primary key identifier.
//  CopyID       – copy that was lent.
//  MemberID     – borrowing member.
//  CheckoutDate – when the loan was created.
//  DueDate      – when the copy is due back.
//  ReturnDate   – when the copy came back (nil while open).
//  RenewedCount – number of times the loan has been renewed.
type Loan struct {
	ID           uint64     `json:"id"`            // loans.id
	CopyID       uint64     `json:"copy_id"`       // loans.copy_id
	MemberID     uint64     `json:"member_id"`     // loans.member_id
	CheckoutDate time.Time  `json:"checkout_date"` // loans.checkout_date
	DueDate      time.Time  `json:"due_date"`      // loans.due_date
	ReturnDate   *time.Time `json:"return_date"`   // loans.return_date (nullable)
	RenewedCount int        `json:"renewed_count"` // loans.renewed_count
}

// Open reports whether the loan is still active.
func (l Loan) Open() bool { return l.ReturnDate == nil }

// LoanSummary is the projection returned by loan listings: the loan
// joined with its book title and member name plus a human status.
type LoanSummary struct {
	ID           uint64     `json:"id"`
	Title        string     `json:"title"`
	MemberName   string     `json:"member_name"`
	CheckoutDate time.Time  `json:"checkout_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
	Status       string     `json:"status"` // Active | Returned
}
