package model

// Book holds the immutable catalog metadata for a title.  Availability
// is never stored on the book itself; the AvailableCopies and
// TotalCopies fields are derived from the status of the book's copies
// at query time so that they can never drift from loan state.
//
// Fields:
//  ID              – primary key identifier.
//  ISBN            – unique ISBN of the title.
//  Title           – book title.
//  Author          – book author.
//  Category        – coarse category used for browsing.
//  PublicationYear – year of publication.
//  Description     – free-text description.
//  TotalCopies     – derived count of all copies.
//  AvailableCopies – derived count of copies with status AVAILABLE.
type Book struct {
	ID              uint64 `json:"id"`               // books.id
	ISBN            string `json:"isbn"`             // books.isbn
	Title           string `json:"title"`            // books.title
	Author          string `json:"author"`           // books.author
	Category        string `json:"category"`         // books.category
	PublicationYear int    `json:"publication_year"` // books.publication_year
	Description     string `json:"description"`      // books.description
	TotalCopies     int    `json:"total_copies"`     // derived from copies
	AvailableCopies int    `json:"available_copies"` // derived from copies
}
