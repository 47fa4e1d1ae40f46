package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-circulation/internal/repository"
)

// MemberHandler implements the librarian-facing account endpoints.
type MemberHandler struct {
	Members *repository.MemberRepo
	Tokens  *repository.TokenRepo
}

func NewMemberHandler(m *repository.MemberRepo, t *repository.TokenRepo) *MemberHandler {
	return &MemberHandler{Members: m, Tokens: t}
}

// ListMembers handles GET /v1/members (librarian).  The optional q
// parameter filters by name or email.
func (h *MemberHandler) ListMembers(c echo.Context) error {
	members, err := h.Members.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load members"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": members})
}

type setActiveReq struct {
	Active *bool `json:"active"`
}

// SetActive handles PATCH /v1/members/:id/active (librarian).
// Deactivation blocks new checkouts and holds but leaves existing
// loans, holds and fines untouched.  Deactivating also revokes the
// member's refresh tokens so their sessions wind down with the access
// token TTL.
func (h *MemberHandler) SetActive(c echo.Context) error {
	memberID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid member id"})
	}
	var req setActiveReq
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active (boolean) required"})
	}

	ctx := c.Request().Context()
	ok, err := h.Members.SetActive(ctx, memberID, *req.Active)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update member"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "member not found"})
	}
	if !*req.Active {
		_ = h.Tokens.RevokeAllForMember(ctx, memberID)
	}
	return c.JSON(http.StatusOK, echo.Map{"member_id": memberID, "is_active": *req.Active})
}
