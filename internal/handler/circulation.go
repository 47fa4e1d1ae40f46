package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-circulation/internal/config"
	"github.com/iliyamo/library-circulation/internal/model"
	"github.com/iliyamo/library-circulation/internal/policy"
	"github.com/iliyamo/library-circulation/internal/queue"
	"github.com/iliyamo/library-circulation/internal/repository"
)

// CirculationHandler implements checkout, return and renewal.  Every
// state change runs inside a single transaction so a failure of any
// step leaves no partial state behind.  Hold promotion after a return
// runs as its own transaction once the return has committed: the copy
// coming back must never be lost to a promotion failure.
type CirculationHandler struct {
	Cfg     config.Config
	Books   *repository.BookRepo
	Copies  *repository.CopyRepo
	Loans   *repository.LoanRepo
	Holds   *repository.HoldRepo
	Fines   *repository.FineRepo
	Members *repository.MemberRepo
	Overdue policy.OverduePolicy

	// PublishHoldReady sends the promotion notification event.  Nil
	// disables publishing (tests, broker-less deployments).
	PublishHoldReady func(ctx context.Context, ev queue.HoldReadyEvent) error
}

// onBehalfReq is the optional body accepted by desk operations: a
// librarian may name the member they are serving.
type onBehalfReq struct {
	MemberID uint64 `json:"member_id"`
}

// Checkout handles POST /v1/books/:id/checkout.  It claims one
// available copy of the book for the acting member and opens a loan due
// LoanPeriodDays from now.  A member cannot hold two open loans on the
// same title, regardless of which copies are involved.
func (h *CirculationHandler) Checkout(c echo.Context) error {
	bookID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	var body onBehalfReq
	_ = c.Bind(&body)
	memberID, err := actingMemberID(c, body.MemberID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	member, err := h.Members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !member.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "member account is deactivated"})
	}

	tx, err := h.Books.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := h.Books.AvailableCountTx(ctx, tx, bookID); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	dup, err := h.Loans.HasOpenLoanTx(ctx, tx, bookID, memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if dup {
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrDuplicateLoan.Error()})
	}

	copyID, err := h.Copies.ClaimAvailableTx(ctx, tx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrNoAvailableCopies) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no available copies; place a hold instead"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	now := time.Now().UTC().Truncate(time.Second)
	due := now.AddDate(0, 0, h.Cfg.LoanPeriodDays)
	loanID, err := h.Loans.CreateTx(ctx, tx, copyID, memberID, now, due)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create loan"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"loan_id":       loanID,
		"copy_id":       copyID,
		"member_id":     memberID,
		"checkout_date": now,
		"due_date":      due,
	})
}

// Return handles POST /v1/books/:id/return.  It closes the acting
// member's open loan on the book, releases the copy, assesses an
// overdue fine when configured, and then promotes the earliest waiting
// hold.  Fine assessment and promotion both happen after the return has
// committed; their failures are logged, never surfaced as a failed
// return.
func (h *CirculationHandler) Return(c echo.Context) error {
	bookID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	var body onBehalfReq
	_ = c.Bind(&body)
	memberID, err := actingMemberID(c, body.MemberID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	tx, err := h.Books.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	loanID, copyID, due, err := h.Loans.OpenLoanTx(ctx, tx, bookID, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveLoan) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no active loan for this book and member"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := h.Loans.CloseTx(ctx, tx, loanID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to close loan"})
	}
	if err := h.Copies.ReleaseTx(ctx, tx, copyID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release copy"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	var fineCents int64
	if h.Cfg.FineOnReturn && h.Overdue != nil {
		if fineCents = h.Overdue(due, now); fineCents > 0 {
			lid := loanID
			if _, err := h.Fines.Create(ctx, memberID, &lid, fineCents, "overdue return", now); err != nil {
				log.Printf("return: fine assessment failed for loan %d: %v", loanID, err)
			}
		}
	}

	promoted := h.promoteAndNotify(ctx, bookID)

	resp := echo.Map{
		"loan_id":     loanID,
		"return_date": now,
		"fine_cents":  fineCents,
	}
	if promoted != nil {
		resp["promoted_hold_id"] = promoted.ID
	}
	return c.JSON(http.StatusOK, resp)
}

// promoteAndNotify promotes the earliest PENDING hold for the book in
// its own transaction and publishes the pickup notification.  Returns
// the promoted hold, or nil when the queue is empty or promotion
// failed.
func (h *CirculationHandler) promoteAndNotify(ctx context.Context, bookID uint64) *model.Hold {
	tx, err := h.Books.DB().BeginTx(ctx, nil)
	if err != nil {
		log.Printf("promote: failed to start transaction: %v", err)
		return nil
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	hold, err := h.Holds.PromoteNextTx(ctx, tx, bookID)
	if err != nil {
		log.Printf("promote: book %d: %v", bookID, err)
		return nil
	}
	if hold == nil {
		return nil
	}
	if err := tx.Commit(); err != nil {
		log.Printf("promote: commit failed for hold %d: %v", hold.ID, err)
		return nil
	}
	committed = true

	if h.PublishHoldReady == nil {
		return hold
	}
	book, err := h.Books.GetByID(ctx, bookID)
	if err != nil {
		log.Printf("promote: load book %d failed: %v", bookID, err)
		return hold
	}
	member, err := h.Members.GetByID(ctx, hold.MemberID)
	if err != nil {
		log.Printf("promote: load member %d failed: %v", hold.MemberID, err)
		return hold
	}
	ev := queue.HoldReadyEvent{
		HoldID:      hold.ID,
		BookID:      bookID,
		BookTitle:   book.Title,
		MemberID:    member.ID,
		MemberName:  member.Name,
		MemberEmail: member.Email,
		PlacedAt:    hold.PlaceDate.Format(time.RFC3339),
		PromotedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.PublishHoldReady(ctx, ev); err != nil {
		// Leave notification_sent false so the notification can be retried.
		log.Printf("promote: publish failed for hold %d: %v", hold.ID, err)
		return hold
	}
	if err := h.Holds.MarkNotified(ctx, hold.ID); err != nil {
		log.Printf("promote: mark notified failed for hold %d: %v", hold.ID, err)
	}
	return hold
}

// Renew handles POST /v1/loans/:id/renew.  The new due date compounds
// from the current one rather than from the renewal time, so renewing
// early never shortens a loan.  A renewal is refused when the renewal
// cap is reached or, when configured, while another member has a
// pending hold on the title.
func (h *CirculationHandler) Renew(c echo.Context) error {
	loanID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid loan id"})
	}
	self, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, _ := c.Get("role").(string)

	ctx := c.Request().Context()
	tx, err := h.Books.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	loan, bookID, err := h.Loans.GetOpenTx(ctx, tx, loanID)
	if err != nil {
		if errors.Is(err, repository.ErrLoanNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "loan id is invalid or book already returned"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if loan.MemberID != self && role != model.RoleLibrarian {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if h.Cfg.MaxRenewals > 0 && loan.RenewedCount >= h.Cfg.MaxRenewals {
		return c.JSON(http.StatusConflict, echo.Map{"error": "renewal limit reached"})
	}
	if h.Cfg.RenewBlockWhenHeld {
		held, err := h.Holds.PendingFromOthersTx(ctx, tx, bookID, loan.MemberID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if held {
			return c.JSON(http.StatusConflict, echo.Map{"error": "book is on hold for another member"})
		}
	}

	newDue := loan.DueDate.AddDate(0, 0, h.Cfg.LoanPeriodDays)
	if err := h.Loans.RenewTx(ctx, tx, loanID, newDue); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to renew loan"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"loan_id":       loanID,
		"due_date":      newDue,
		"renewed_count": loan.RenewedCount + 1,
	})
}

// ListLoans handles GET /v1/loans (librarian).  Every loan, newest
// checkout first.
func (h *CirculationHandler) ListLoans(c echo.Context) error {
	loans, err := h.Loans.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load loans"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": loans})
}

// MyLoans handles GET /v1/my-loans.  The acting member's own borrowing
// history, open loans first by recency.
func (h *CirculationHandler) MyLoans(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	loans, err := h.Loans.ListByMember(c.Request().Context(), memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load loans"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": loans})
}
