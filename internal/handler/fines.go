package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-circulation/internal/repository"
)

// FineHandler implements the fine ledger endpoints.  Fines are
// append-only; payment and waiving are guarded status transitions and a
// settled fine can never be reopened.
type FineHandler struct {
	Fines   *repository.FineRepo
	Members *repository.MemberRepo
}

func NewFineHandler(f *repository.FineRepo, m *repository.MemberRepo) *FineHandler {
	return &FineHandler{Fines: f, Members: m}
}

// MyFines handles GET /v1/my-fines.
func (h *FineHandler) MyFines(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fines, err := h.Fines.ListByMember(c.Request().Context(), memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load fines"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": fines})
}

// ListFines handles GET /v1/fines (librarian).
func (h *FineHandler) ListFines(c echo.Context) error {
	fines, err := h.Fines.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load fines"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": fines})
}

type assessFineReq struct {
	MemberID    uint64  `json:"member_id"`
	LoanID      *uint64 `json:"loan_id"`
	AmountCents int64   `json:"amount_cents"`
	Reason      string  `json:"reason"`
}

// AssessFine handles POST /v1/fines (librarian).  Manual assessment for
// damage, lost items and similar cases not covered by the automatic
// overdue policy.
func (h *FineHandler) AssessFine(c echo.Context) error {
	var req assessFineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.MemberID == 0 || req.AmountCents <= 0 || req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id, positive amount_cents and reason required"})
	}

	ctx := c.Request().Context()
	if _, err := h.Members.GetByID(ctx, req.MemberID); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	issuedAt := time.Now().UTC().Truncate(time.Second)
	id, err := h.Fines.Create(ctx, req.MemberID, req.LoanID, req.AmountCents, req.Reason, issuedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create fine"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"fine_id":      id,
		"member_id":    req.MemberID,
		"amount_cents": req.AmountCents,
		"issue_date":   issuedAt,
	})
}

// PayFine handles POST /v1/fines/:id/pay (librarian).  Only an UNPAID
// fine can be paid; paying twice or paying a waived fine is a 409.
func (h *FineHandler) PayFine(c echo.Context) error {
	fineID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fine id"})
	}
	paidAt := time.Now().UTC().Truncate(time.Second)
	ok, err := h.Fines.MarkPaid(c.Request().Context(), fineID, paidAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to pay fine"})
	}
	if !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": "fine does not exist or is not unpaid"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fine_id": fineID, "paid_date": paidAt})
}

// WaiveFine handles POST /v1/fines/:id/waive (librarian).
func (h *FineHandler) WaiveFine(c echo.Context) error {
	fineID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fine id"})
	}
	ok, err := h.Fines.Waive(c.Request().Context(), fineID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to waive fine"})
	}
	if !ok {
		return c.JSON(http.StatusConflict, echo.Map{"error": "fine does not exist or is not unpaid"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fine_id": fineID, "status": "WAIVED"})
}
