package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-circulation/internal/model"
)

func TestMemberSearchAndDeactivation(t *testing.T) {
	e := newEnv(t)
	lib := e.addMember(t, "Lena Librarian", model.RoleLibrarian)
	alice := e.addMember(t, "Alice Reader", model.RoleMember)
	e.addMember(t, "Bob Browser", model.RoleMember)

	code, resp := request(t, http.MethodGet, "/v1/members?q=alice", "", lib, model.RoleLibrarian,
		nil, e.memb.ListMembers)
	require.Equal(t, http.StatusOK, code)
	items := resp["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Alice Reader", items[0].(map[string]any)["name"])

	// Deactivate Alice; she can no longer check out, and her sessions
	// lose their refresh tokens.
	code, resp = request(t, http.MethodPatch, "/v1/members/:id/active", `{"active": false}`,
		lib, model.RoleLibrarian, map[string]string{"id": fmt.Sprint(alice)}, e.memb.SetActive)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["is_active"])

	book := e.addBook(t, "Off Limits", 1)
	code, _ = checkout(t, e, book, alice)
	assert.Equal(t, http.StatusForbidden, code)

	// Reactivation restores borrowing.
	code, _ = request(t, http.MethodPatch, "/v1/members/:id/active", `{"active": true}`,
		lib, model.RoleLibrarian, map[string]string{"id": fmt.Sprint(alice)}, e.memb.SetActive)
	require.Equal(t, http.StatusOK, code)
	code, _ = checkout(t, e, book, alice)
	assert.Equal(t, http.StatusCreated, code)
}

func TestSetActiveValidation(t *testing.T) {
	e := newEnv(t)
	lib := e.addMember(t, "Lena Librarian", model.RoleLibrarian)

	code, _ := request(t, http.MethodPatch, "/v1/members/:id/active", `{}`,
		lib, model.RoleLibrarian, map[string]string{"id": "1"}, e.memb.SetActive)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = request(t, http.MethodPatch, "/v1/members/:id/active", `{"active": true}`,
		lib, model.RoleLibrarian, map[string]string{"id": "999"}, e.memb.SetActive)
	assert.Equal(t, http.StatusNotFound, code)
}
