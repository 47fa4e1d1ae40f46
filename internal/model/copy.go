package model

// Copy status values.  A copy's status is the single source of truth
// for availability: a copy is lendable iff its status is AVAILABLE,
// and a copy with an open loan must always be CHECKED_OUT.
const (
	CopyAvailable   = "AVAILABLE"
	CopyCheckedOut  = "CHECKED_OUT"
	CopyMaintenance = "MAINTENANCE"
)

// Copy represents one physical instance of a book.  Copies are owned
// by the catalog; circulation mutates only their status.
//
// Fields:
//  ID       – primary key identifier.
//  BookID   – title this copy belongs to.
//  Status   – AVAILABLE, CHECKED_OUT or MAINTENANCE.
//  Location – shelf location of the copy.
type Copy struct {
	ID       uint64 `json:"id"`       // copies.id
	BookID   uint64 `json:"book_id"`  // copies.book_id
	Status   string `json:"status"`   // copies.status
	Location string `json:"location"` // copies.location
}
