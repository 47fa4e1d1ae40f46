package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-circulation/internal/utils"
)

const testSecret = "test-secret"

func run(t *testing.T, mw echo.MiddlewareFunc, authHeader string, setup func(echo.Context)) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuthValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 7, "MEMBER", 15)
	require.NoError(t, err)

	rec, c := run(t, JWTAuth(testSecret), "Bearer "+at.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), c.Get("member_id"))
	assert.Equal(t, "MEMBER", c.Get("role"))
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := run(t, JWTAuth(testSecret), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 7, "MEMBER", 15)
	require.NoError(t, err)

	rec, _ := run(t, JWTAuth(testSecret), "Bearer "+at.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthGarbageToken(t *testing.T) {
	rec, _ := run(t, JWTAuth(testSecret), "Bearer not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("LIBRARIAN")

	rec, _ := run(t, mw, "", func(c echo.Context) { c.Set("role", "LIBRARIAN") })
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = run(t, mw, "", func(c echo.Context) { c.Set("role", "MEMBER") })
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// No role in context at all.
	rec, _ = run(t, mw, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleMultiple(t *testing.T) {
	mw := RequireRole("LIBRARIAN", "MEMBER")
	rec, _ := run(t, mw, "", func(c echo.Context) { c.Set("role", "MEMBER") })
	assert.Equal(t, http.StatusOK, rec.Code)
}
