package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-circulation/internal/model"
)

func assessFine(t *testing.T, e *env, lib, member uint64, cents int64, reason string) uint64 {
	t.Helper()
	body := fmt.Sprintf(`{"member_id": %d, "amount_cents": %d, "reason": %q}`, member, cents, reason)
	code, resp := request(t, http.MethodPost, "/v1/fines", body, lib, model.RoleLibrarian, nil, e.fine.AssessFine)
	require.Equal(t, http.StatusCreated, code)
	return uint64(resp["fine_id"].(float64))
}

func TestFineLifecycle(t *testing.T) {
	e := newEnv(t)
	lib := e.addMember(t, "Lena Librarian", model.RoleLibrarian)
	member := e.addMember(t, "Alice Reader", model.RoleMember)

	fineID := assessFine(t, e, lib, member, 750, "damaged cover")

	// The member sees it as unpaid.
	code, resp := request(t, http.MethodGet, "/v1/my-fines", "", member, model.RoleMember, nil, e.fine.MyFines)
	require.Equal(t, http.StatusOK, code)
	items := resp["items"].([]any)
	require.Len(t, items, 1)
	f := items[0].(map[string]any)
	assert.Equal(t, model.FineUnpaid, f["status"])
	assert.Equal(t, float64(750), f["amount_cents"])

	// Pay it; paying again conflicts.
	code, resp = request(t, http.MethodPost, "/v1/fines/:id/pay", "", lib, model.RoleLibrarian,
		map[string]string{"id": fmt.Sprint(fineID)}, e.fine.PayFine)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, resp["paid_date"])

	code, _ = request(t, http.MethodPost, "/v1/fines/:id/pay", "", lib, model.RoleLibrarian,
		map[string]string{"id": fmt.Sprint(fineID)}, e.fine.PayFine)
	assert.Equal(t, http.StatusConflict, code)

	// A settled fine cannot be waived either.
	code, _ = request(t, http.MethodPost, "/v1/fines/:id/waive", "", lib, model.RoleLibrarian,
		map[string]string{"id": fmt.Sprint(fineID)}, e.fine.WaiveFine)
	assert.Equal(t, http.StatusConflict, code)
}

func TestFineWaive(t *testing.T) {
	e := newEnv(t)
	lib := e.addMember(t, "Lena Librarian", model.RoleLibrarian)
	member := e.addMember(t, "Alice Reader", model.RoleMember)

	fineID := assessFine(t, e, lib, member, 300, "lost bookmark")
	code, resp := request(t, http.MethodPost, "/v1/fines/:id/waive", "", lib, model.RoleLibrarian,
		map[string]string{"id": fmt.Sprint(fineID)}, e.fine.WaiveFine)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.FineWaived, resp["status"])
}

func TestAssessFineValidation(t *testing.T) {
	e := newEnv(t)
	lib := e.addMember(t, "Lena Librarian", model.RoleLibrarian)

	// Unknown member.
	body := `{"member_id": 999, "amount_cents": 100, "reason": "x"}`
	code, _ := request(t, http.MethodPost, "/v1/fines", body, lib, model.RoleLibrarian, nil, e.fine.AssessFine)
	assert.Equal(t, http.StatusNotFound, code)

	// Non-positive amount.
	member := e.addMember(t, "Alice Reader", model.RoleMember)
	body = fmt.Sprintf(`{"member_id": %d, "amount_cents": 0, "reason": "x"}`, member)
	code, _ = request(t, http.MethodPost, "/v1/fines", body, lib, model.RoleLibrarian, nil, e.fine.AssessFine)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUnpaidSummaryFeedsReport(t *testing.T) {
	e := newEnv(t)
	lib := e.addMember(t, "Lena Librarian", model.RoleLibrarian)
	member := e.addMember(t, "Alice Reader", model.RoleMember)

	assessFine(t, e, lib, member, 100, "one")
	second := assessFine(t, e, lib, member, 250, "two")
	code, _ := request(t, http.MethodPost, "/v1/fines/:id/pay", "", lib, model.RoleLibrarian,
		map[string]string{"id": fmt.Sprint(second)}, e.fine.PayFine)
	require.Equal(t, http.StatusOK, code)

	code, resp := request(t, http.MethodGet, "/v1/reports/summary", "", lib, model.RoleLibrarian, nil, e.rep.Summary)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), resp["unpaid_fines"])
	assert.Equal(t, float64(100), resp["unpaid_fines_cents"])
}
