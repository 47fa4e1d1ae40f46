package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-circulation/internal/model"
)

func TestRegisterLoginRefresh(t *testing.T) {
	e := newEnv(t)

	body := `{"name": "Alice Reader", "email": "Alice@Example.org", "password": "hunter22"}`
	code, resp := request(t, http.MethodPost, "/v1/auth/register", body, 0, "", nil, e.auth.Register)
	require.Equal(t, http.StatusCreated, code)
	member := resp["member"].(map[string]any)
	assert.Equal(t, "alice@example.org", member["email"]) // normalized
	assert.Equal(t, model.RoleMember, member["role"])     // default role
	refreshRaw := resp["refresh"].(map[string]any)["token"].(string)
	require.NotEmpty(t, refreshRaw)

	// Duplicate email is a conflict regardless of case.
	code, _ = request(t, http.MethodPost, "/v1/auth/register", body, 0, "", nil, e.auth.Register)
	assert.Equal(t, http.StatusConflict, code)

	// Login with the right password.
	code, resp = request(t, http.MethodPost, "/v1/auth/login",
		`{"email": "alice@example.org", "password": "hunter22"}`, 0, "", nil, e.auth.Login)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, resp["access"].(map[string]any)["token"])

	// And with a wrong one.
	code, _ = request(t, http.MethodPost, "/v1/auth/login",
		`{"email": "alice@example.org", "password": "wrong"}`, 0, "", nil, e.auth.Login)
	assert.Equal(t, http.StatusUnauthorized, code)

	// Rotate the refresh token; the old one is dead afterwards.
	code, resp = request(t, http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token": "`+refreshRaw+`"}`, 0, "", nil, e.auth.Refresh)
	require.Equal(t, http.StatusOK, code)
	newRaw := resp["refresh"].(map[string]any)["token"].(string)
	require.NotEqual(t, refreshRaw, newRaw)

	code, _ = request(t, http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token": "`+refreshRaw+`"}`, 0, "", nil, e.auth.Refresh)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogoutRevokesSession(t *testing.T) {
	e := newEnv(t)

	body := `{"name": "Bob Browser", "email": "bob@example.org", "password": "hunter22"}`
	code, resp := request(t, http.MethodPost, "/v1/auth/register", body, 0, "", nil, e.auth.Register)
	require.Equal(t, http.StatusCreated, code)
	refreshRaw := resp["refresh"].(map[string]any)["token"].(string)

	code, _ = request(t, http.MethodPost, "/v1/auth/logout",
		`{"refresh_token": "`+refreshRaw+`"}`, 0, "", nil, e.auth.Logout)
	require.Equal(t, http.StatusNoContent, code)

	code, _ = request(t, http.MethodPost, "/v1/auth/refresh",
		`{"refresh_token": "`+refreshRaw+`"}`, 0, "", nil, e.auth.Refresh)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	code, _ := request(t, http.MethodPost, "/v1/auth/register",
		`{"email": "x@example.org"}`, 0, "", nil, e.auth.Register)
	assert.Equal(t, http.StatusBadRequest, code)

	// Unknown roles collapse to MEMBER.
	code, resp := request(t, http.MethodPost, "/v1/auth/register",
		`{"name": "Eve", "email": "eve@example.org", "password": "pw", "role": "ADMIN"}`,
		0, "", nil, e.auth.Register)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, model.RoleMember, resp["member"].(map[string]any)["role"])
}
