/*
scenarios_test.go - Tests for demo scenario loaders

Each scenario must load cleanly and leave the database in the state its
description promises, since demos walk through them live.
*/
package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/scenarios/load",
		map[string]string{"scenario_id": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListScenarios(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)

	rec := doRequest(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, rec), 4)
}

func TestLoadScenario_Unknown(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)

	rec := doRequest(t, router, http.MethodPost, "/api/scenarios/load",
		map[string]string{"scenario_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadScenario_FreshTeam(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	loadScenario(t, router, "fresh-team")

	rec := doRequest(t, router, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]EmployeeDTO](t, rec), 3)

	rec = doRequest(t, router, http.MethodGet, "/api/holidays?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]HolidayDTO](t, rec), 4)

	rec = doRequest(t, router, http.MethodGet, "/api/applications/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]ApplicationDTO](t, rec))

	// Current scenario is tracked
	rec = doRequest(t, router, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fresh-team", decodeBody[ScenarioDTO](t, rec).ID)
}

func TestLoadScenario_ApprovalQueue(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	loadScenario(t, router, "approval-queue")

	// One casual application waits in the queue
	rec := doRequest(t, router, http.MethodGet, "/api/applications/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeBody[[]ApplicationDTO](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, "casual", pending[0].LeaveType)

	// The approved sick day is already charged
	rec = doRequest(t, router, http.MethodGet, "/api/employees/emp-001/balances?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sick := findBalance(t, decodeBody[BalanceSummaryDTO](t, rec), "sick")
	assert.Equal(t, "1", sick.Used)
}

func TestLoadScenario_LOPOverflow(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	loadScenario(t, router, "lop-overflow")

	// Intern joined three months back: 4 accrual months at 0.625/month,
	// so a ten-day vacation overflows by 7.5 days
	rec := doRequest(t, router, http.MethodGet, "/api/employees/emp-101/balances?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	vacation := findBalance(t, decodeBody[BalanceSummaryDTO](t, rec), "vacation")
	assert.Equal(t, "2.5", vacation.Accrued)
	assert.Equal(t, "10", vacation.Used)
	assert.Equal(t, "7.5", vacation.LOPDays)
	assert.Equal(t, "0", vacation.Current)
}

func TestLoadScenario_YearEndRollover(t *testing.T) {
	h := newTestHandler(t)
	router := NewRouter(h)
	loadScenario(t, router, "year-end-rollover")

	// Joined January 2024: a full year of vacation accrual (15) rolls
	// into 2025 capped at 5; casual does not carry at all
	rec := doRequest(t, router, http.MethodGet, "/api/employees/emp-201/balances?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[BalanceSummaryDTO](t, rec)

	vacation := findBalance(t, summary, "vacation")
	assert.Equal(t, "5", vacation.CarriedForward)

	casual := findBalance(t, summary, "casual")
	assert.Equal(t, "0", casual.CarriedForward)

	rec = doRequest(t, router, http.MethodGet, "/api/employees/emp-201/balances?year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lastYear := findBalance(t, decodeBody[BalanceSummaryDTO](t, rec), "vacation")
	assert.Equal(t, "15", lastYear.Accrued)
}
