package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-circulation/internal/model"
)

// getMemberID extracts the authenticated member's ID from the echo
// context.  The JWT middleware stores the raw "sub" claim, which the
// jwt library decodes as float64; string and integer forms are accepted
// as well so tests can set the value directly.
func getMemberID(c echo.Context) (uint64, error) {
	switch v := c.Get("member_id").(type) {
	case float64:
		return uint64(v), nil
	case uint64:
		return v, nil
	case int:
		return uint64(v), nil
	case string:
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			return parsed, nil
		}
	}
	return 0, errors.New("member_id not found in context")
}

// actingMemberID resolves which member an operation applies to.  A
// librarian working the circulation desk may pass member_id in the
// request body to act on a member's behalf; everyone else always acts
// as themselves, so a member can never touch another account's loans
// or holds.
func actingMemberID(c echo.Context, requested uint64) (uint64, error) {
	self, err := getMemberID(c)
	if err != nil {
		return 0, err
	}
	if requested == 0 || requested == self {
		return self, nil
	}
	if role, _ := c.Get("role").(string); role == model.RoleLibrarian {
		return requested, nil
	}
	return 0, errors.New("only librarians may act on behalf of another member")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
