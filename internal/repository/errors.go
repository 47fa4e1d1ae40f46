// Package repository implements data access for the circulation engine
// on top of database/sql.  This file defines the sentinel errors shared
// across repositories.  They represent expected business-rule outcomes;
// handlers translate them into client responses while any other error is
// treated as a storage failure and surfaced opaquely.
package repository

import "errors"

// ErrBookNotFound is returned when a referenced book does not exist.
var ErrBookNotFound = errors.New("book not found")

// ErrNoAvailableCopies is returned when a checkout finds no copy of the
// requested book in AVAILABLE state.
var ErrNoAvailableCopies = errors.New("no available copies")

// ErrDuplicateLoan is returned when a member already has an open loan
// for the same title, regardless of which copy it was issued on.
var ErrDuplicateLoan = errors.New("member already has this book checked out")

// ErrNoActiveLoan is returned by a return attempt when no open loan
// exists for the given book and member.
var ErrNoActiveLoan = errors.New("no active loan for this book and member")

// ErrLoanNotFound is returned by a renewal when the loan id is unknown
// or the loan has already been returned.
var ErrLoanNotFound = errors.New("loan id is invalid or book already returned")

// ErrBookAvailable is returned by hold placement when the book still
// has at least one available copy; callers should check out instead.
var ErrBookAvailable = errors.New("book currently available")

// ErrDuplicateHold is returned when a member already has a PENDING or
// READY hold on the same book.
var ErrDuplicateHold = errors.New("member already has an active hold for this book")

// ErrMemberNotFound is returned when a referenced member does not exist.
var ErrMemberNotFound = errors.New("member not found")

// ErrEmailExists is returned when registering a member with an email
// address that is already taken.
var ErrEmailExists = errors.New("email already exists")
