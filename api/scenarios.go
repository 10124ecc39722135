/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates employees, policies,
	holidays, and applications that demonstrate specific features.

AVAILABLE SCENARIOS:

	fresh-team:        Seeded directory and policy table, no applications
	approval-queue:    Pending and approved applications for a small team
	lop-overflow:      Intern whose approved vacation overflows into LOP
	year-end-rollover: Finalized previous year with capped carry-forward

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed the default policy table
 3. Create employees and holidays
 4. Drive real operations through the service so balances, LOP and the
    audit trail come out exactly as production traffic would produce them

DATES:

	Scenario dates are computed relative to the current clock so eligibility
	rules (advance notice, future start) hold whenever the scenario is
	loaded.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "approval-queue"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: The operational endpoints the seeded data shows up in
  - leave/service.go: The operations the loaders drive
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-team",
		Name:        "Fresh Team",
		Description: "Employees, default policies and holidays, no applications yet",
	},
	{
		ID:          "approval-queue",
		Name:        "Approval Queue",
		Description: "A pending casual application and an approved sick day",
	},
	{
		ID:          "lop-overflow",
		Name:        "Loss of Pay Overflow",
		Description: "Intern's approved vacation exceeds the accrued balance",
	},
	{
		ID:          "year-end-rollover",
		Name:        "Year-End Rollover",
		Description: "Previous year finalized, carry-forward capped into this year",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "fresh-team":
		err = h.loadFreshTeamScenario(ctx)
	case "approval-queue":
		err = h.loadApprovalQueueScenario(ctx)
	case "lop-overflow":
		err = h.loadLOPOverflowScenario(ctx)
	case "year-end-rollover":
		err = h.loadYearEndRolloverScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFreshTeamScenario(ctx context.Context) error {
	today := leave.DateOf(h.now().UTC())

	if err := h.seedScenarioPolicies(ctx); err != nil {
		return err
	}
	if err := h.seedScenarioHolidays(ctx, today.Year()); err != nil {
		return err
	}

	employees := []leave.Employee{
		{
			ID: "emp-001", Name: "Alice Johnson", Email: "alice@example.com",
			EmploymentType: leave.FullTime, Role: leave.RoleEmployee,
			JoinDate: today.AddMonths(-14),
		},
		{
			ID: "emp-002", Name: "Bhavna Rao", Email: "bhavna@example.com",
			EmploymentType: leave.FullTime, Role: leave.RoleManager,
			JoinDate: today.AddMonths(-30),
		},
		{
			ID: "emp-003", Name: "Carlos Mendes", Email: "carlos@example.com",
			EmploymentType: leave.FullTime, Role: leave.RoleAdmin,
			JoinDate: today.AddMonths(-48),
		},
	}
	for _, emp := range employees {
		emp.CreatedAt = h.now().UTC()
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadApprovalQueueScenario(ctx context.Context) error {
	if err := h.loadFreshTeamScenario(ctx); err != nil {
		return err
	}
	today := leave.DateOf(h.now().UTC())

	holidays, err := h.Store.ListHolidays(ctx, today.Year())
	if err != nil {
		return err
	}
	observed := leave.NewHolidaySet(holidays)

	// A pending two-day casual request three weeks out
	casualStart := scenarioStart(observed, today.AddDays(21))
	if _, err := h.Service.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-001",
		LeaveType:  leave.LeaveCasual,
		StartDate:  casualStart,
		EndDate:    casualStart.AddDays(1),
		Reason:     "family function",
	}); err != nil {
		return fmt.Errorf("casual submit: %w", err)
	}

	// An approved single sick day next week
	sickStart := scenarioStart(observed, today.AddDays(7))
	result, err := h.Service.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-001",
		LeaveType:  leave.LeaveSick,
		StartDate:  sickStart,
		EndDate:    sickStart,
		Reason:     "doctor appointment",
	})
	if err != nil {
		return fmt.Errorf("sick submit: %w", err)
	}
	if _, err := h.Service.Approve(ctx, result.Application.ID, "emp-002"); err != nil {
		return fmt.Errorf("sick approve: %w", err)
	}
	return nil
}

func (h *Handler) loadLOPOverflowScenario(ctx context.Context) error {
	today := leave.DateOf(h.now().UTC())

	if err := h.seedScenarioPolicies(ctx); err != nil {
		return err
	}

	intern := leave.Employee{
		ID: "emp-101", Name: "Divya Nair", Email: "divya@example.com",
		EmploymentType: leave.Intern, Role: leave.RoleEmployee,
		JoinDate:  today.AddMonths(-3),
		CreatedAt: h.now().UTC(),
	}
	manager := leave.Employee{
		ID: "emp-102", Name: "Emil Berg", Email: "emil@example.com",
		EmploymentType: leave.FullTime, Role: leave.RoleManager,
		JoinDate:  today.AddMonths(-24),
		CreatedAt: h.now().UTC(),
	}
	for _, emp := range []leave.Employee{intern, manager} {
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}

	// Ten working days of vacation against roughly two accrued days.
	// Submission reports the deficit as an advisory finding; approval
	// charges whatever is accrued and books the rest as loss of pay.
	start := upcomingMonday(today.AddDays(28))
	result, err := h.Service.Submit(ctx, leave.SubmitInput{
		EmployeeID: intern.ID,
		LeaveType:  leave.LeaveVacation,
		StartDate:  start,
		EndDate:    start.AddDays(11),
		Reason:     "hometown visit",
	})
	if err != nil {
		return fmt.Errorf("vacation submit: %w", err)
	}
	if _, err := h.Service.Approve(ctx, result.Application.ID, manager.ID); err != nil {
		return fmt.Errorf("vacation approve: %w", err)
	}
	return nil
}

func (h *Handler) loadYearEndRolloverScenario(ctx context.Context) error {
	today := leave.DateOf(h.now().UTC())
	lastYear := today.Year() - 1

	if err := h.seedScenarioPolicies(ctx); err != nil {
		return err
	}

	emp := leave.Employee{
		ID: "emp-201", Name: "Farah Khan", Email: "farah@example.com",
		EmploymentType: leave.FullTime, Role: leave.RoleEmployee,
		JoinDate:  leave.NewDate(lastYear, time.January, 10),
		CreatedAt: h.now().UTC(),
	}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}

	// Finalize last year's accrual, then roll every type forward. The
	// vacation balance accrues the full year and hits the carry cap.
	yearEnd := leave.EndOfYear(lastYear)
	for _, lt := range leave.BalanceLeaveTypes {
		if _, err := h.Service.RefreshAccrual(ctx, emp.ID, lt, lastYear, yearEnd); err != nil {
			return fmt.Errorf("finalize %s: %w", lt, err)
		}
		if err := h.Service.Rollover(ctx, emp.ID, lt, lastYear, yearEnd); err != nil {
			return fmt.Errorf("rollover %s: %w", lt, err)
		}
	}
	return nil
}

// =============================================================================
// SEEDING HELPERS
// =============================================================================

func (h *Handler) seedScenarioPolicies(ctx context.Context) error {
	for _, p := range leave.DefaultPolicies() {
		if err := h.Store.SavePolicy(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedScenarioHolidays(ctx context.Context, year int) error {
	holidays := []leave.Holiday{
		{ID: "hol-republic", Date: leave.NewDate(year, time.January, 26), Name: "Republic Day"},
		{ID: "hol-independence", Date: leave.NewDate(year, time.August, 15), Name: "Independence Day"},
		{ID: "hol-gandhi", Date: leave.NewDate(year, time.October, 2), Name: "Gandhi Jayanti"},
		{ID: "hol-regional", Date: leave.NewDate(year, time.November, 5), Name: "Regional Festival", Optional: true},
	}
	for _, hol := range holidays {
		if err := h.Store.SaveHoliday(ctx, hol); err != nil {
			return err
		}
	}
	return nil
}

// upcomingMonday returns d if it is a Monday, otherwise the next one.
// Keeps scenario leave spans on predictable working days.
func upcomingMonday(d leave.Date) leave.Date {
	for d.Weekday() != time.Monday {
		d = d.AddDays(1)
	}
	return d
}

// scenarioStart picks the next Monday that is not an observed holiday.
func scenarioStart(observed leave.HolidaySet, d leave.Date) leave.Date {
	d = upcomingMonday(d)
	for observed.Contains(d) {
		d = upcomingMonday(d.AddDays(7))
	}
	return d
}
