package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-circulation/internal/repository"
)

// ReportHandler serves the librarian operations summary.
type ReportHandler struct {
	Books   *repository.BookRepo
	Members *repository.MemberRepo
	Loans   *repository.LoanRepo
	Holds   *repository.HoldRepo
	Fines   *repository.FineRepo
}

func NewReportHandler(b *repository.BookRepo, m *repository.MemberRepo, l *repository.LoanRepo,
	h *repository.HoldRepo, f *repository.FineRepo) *ReportHandler {
	return &ReportHandler{Books: b, Members: m, Loans: l, Holds: h, Fines: f}
}

// Summary handles GET /v1/reports/summary (librarian).  A snapshot of
// the library's state: catalog and membership size, open and overdue
// loans, the pending wait line, and the outstanding fine balance.
func (h *ReportHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()

	books, err := h.Books.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}
	members, err := h.Members.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}
	activeLoans, err := h.Loans.CountActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}
	overdueLoans, err := h.Loans.CountOverdue(ctx, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}
	pendingHolds, err := h.Holds.CountPending(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}
	unpaidCount, unpaidCents, err := h.Fines.UnpaidSummary(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"books":              books,
		"members":            members,
		"active_loans":       activeLoans,
		"overdue_loans":      overdueLoans,
		"pending_holds":      pendingHolds,
		"unpaid_fines":       unpaidCount,
		"unpaid_fines_cents": unpaidCents,
	})
}
