package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-circulation/internal/repository"
)

// HoldHandler implements the wait-line endpoints.  A hold targets a
// book, never a specific copy; the queue position is recomputed from
// placement order on demand rather than stored.
type HoldHandler struct {
	Books *repository.BookRepo
	Holds *repository.HoldRepo
}

func NewHoldHandler(b *repository.BookRepo, h *repository.HoldRepo) *HoldHandler {
	return &HoldHandler{Books: b, Holds: h}
}

// PlaceHold handles POST /v1/books/:id/holds.  A hold may only be
// placed while every copy of the book is out: when a copy is available
// the request is refused and the member is pointed at checkout instead.
// One active hold per member per title.
func (h *HoldHandler) PlaceHold(c echo.Context) error {
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

	available, err := h.Books.AvailableCountTx(ctx, tx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if available > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrBookAvailable.Error()})
	}
	active, err := h.Holds.HasActiveTx(ctx, tx, bookID, memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if active {
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrDuplicateHold.Error()})
	}

	placedAt := time.Now().UTC().Truncate(time.Second)
	holdID, err := h.Holds.CreateTx(ctx, tx, bookID, memberID, placedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create hold"})
	}
	pos, err := h.Holds.PositionTx(ctx, tx, holdID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute position"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"hold_id":        holdID,
		"book_id":        bookID,
		"member_id":      memberID,
		"place_date":     placedAt,
		"queue_position": pos,
	})
}

// CancelHold handles DELETE /v1/holds/:id.  Only the owning member (or
// a librarian acting for them) may cancel, and only while the hold is
// PENDING or READY.  Cancellation is terminal; positions behind the
// cancelled hold shrink automatically because they are derived.
func (h *HoldHandler) CancelHold(c echo.Context) error {
	holdID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold id"})
	}
	var body onBehalfReq
	_ = c.Bind(&body)
	memberID, err := actingMemberID(c, body.MemberID)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	}

	ok, err := h.Holds.Cancel(c.Request().Context(), holdID, memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel hold"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no active hold with this id for the member"})
	}
	return c.NoContent(http.StatusNoContent)
}

// MyHolds handles GET /v1/my-holds.  Every hold the member has placed,
// including cancelled history, newest first.
func (h *HoldHandler) MyHolds(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	holds, err := h.Holds.ListByMember(c.Request().Context(), memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load holds"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": holds})
}

// BookQueue handles GET /v1/books/:id/holds (librarian).  The active
// wait line for a title in promotion order, with computed positions.
func (h *HoldHandler) BookQueue(c echo.Context) error {
	bookID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Books.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	holds, err := h.Holds.QueueForBook(ctx, bookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load queue"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": holds})
}
