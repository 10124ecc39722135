/*
handlers.go - HTTP API handlers for the leave accounting engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                     List all employees
    POST   /api/employees                     Create employee
    GET    /api/employees/{id}                Get employee details
    GET    /api/employees/{id}/balances       Balance summary for a year
    GET    /api/employees/{id}/applications   Application history
    POST   /api/employees/{id}/applications   Submit leave application
    GET    /api/employees/{id}/compoff        Comp-off history
    POST   /api/employees/{id}/compoff        Claim comp-off credit
    GET    /api/employees/{id}/wfh            WFH history
    POST   /api/employees/{id}/wfh            Submit WFH request

  Applications:
    GET    /api/applications/pending          Manager's pending queue
    GET    /api/applications/{id}             Application with audit trail
    POST   /api/applications/{id}/approve     Approve (charges balance)
    POST   /api/applications/{id}/reject      Reject
    POST   /api/applications/{id}/cancel      Cancel (reverts if approved)

  Policies / Holidays:
    GET    /api/policies                      List policy table
    PUT    /api/policies                      Upsert a policy
    POST   /api/policies/defaults             Seed the default table
    GET    /api/holidays?year=YYYY            List holidays
    POST   /api/holidays                      Add holiday
    DELETE /api/holidays/{id}                 Remove holiday

  Admin:
    POST   /api/admin/rollover                Year-end rollover
    GET    /api/admin/rollover/runs           Rollover run history
    POST   /api/admin/accrual/refresh         Recompute a balance's accrual
    POST   /api/admin/reset                   Clear all data (dev/demo)

  Scenarios:
    GET    /api/scenarios                     List demo scenarios
    GET    /api/scenarios/current             Currently loaded scenario
    POST   /api/scenarios/load                Load a demo scenario

  Reports:
    GET    /api/reports/summary?year=YYYY     Per-employee year summary

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input (bad dates, unknown leave type)
  - 404: Resource not found
  - 409: Conflict (version race exhausted retries, invalid transition)
  - 422: Application blocked by eligibility findings (findings in body)
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware. Actor identity arrives in request bodies;
  production deployments put an auth layer in front.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - leave/service.go: The domain operations behind these handlers
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *leave.Service

	now             func() time.Time
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, notifier leave.Notifier) *Handler {
	return &Handler{
		Store:   store,
		Service: leave.NewService(store, notifier),
		now:     time.Now,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	joinDate, err := leave.ParseDate(req.JoinDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid join_date format (use YYYY-MM-DD)", err)
		return
	}

	emp := leave.Employee{
		ID:             req.ID,
		Name:           req.Name,
		Email:          req.Email,
		EmploymentType: leave.EmploymentType(req.EmploymentType),
		Role:           leave.Role(req.Role),
		JoinDate:       joinDate,
		CreatedAt:      h.now().UTC(),
	}
	if emp.EmploymentType == "" {
		emp.EmploymentType = leave.FullTime
	}
	if emp.Role == "" {
		emp.Role = leave.RoleEmployee
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalances returns the year's balance rows for an employee. Missing
// rows materialize with accrual computed to today; nothing is persisted.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	year := h.yearParam(r)

	balances, err := h.Service.Balances(r.Context(), id, year)
	if err != nil {
		writeDomainError(w, "Failed to get balances", err)
		return
	}

	dtos := make([]BalanceDTO, len(balances))
	for i, b := range balances {
		dtos[i] = toBalanceDTO(b)
	}
	writeJSON(w, http.StatusOK, BalanceSummaryDTO{
		EmployeeID: id,
		Year:       year,
		Balances:   dtos,
	})
}

// =============================================================================
// APPLICATION HANDLERS
// =============================================================================

// SubmitApplication evaluates and submits a leave application. A blocked
// submission returns 422 with the findings; an eligible one returns 201
// with the pending application and any advisory findings (e.g. LOP).
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := leave.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := leave.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date is before start_date", nil)
		return
	}

	result, err := h.Service.Submit(r.Context(), leave.SubmitInput{
		EmployeeID:   employeeID,
		LeaveType:    leave.LeaveType(req.LeaveType),
		StartDate:    start,
		EndDate:      end,
		Reason:       req.Reason,
		IsEmergency:  req.IsEmergency,
		HasDocuments: req.HasDocuments,
	})
	if errors.Is(err, leave.ErrNotEligible) {
		writeJSON(w, http.StatusUnprocessableEntity, SubmitApplicationResponse{
			Findings: toFindingDTOs(result.Findings),
		})
		return
	}
	if err != nil {
		writeDomainError(w, "Failed to submit application", err)
		return
	}

	app := toApplicationDTO(*result.Application)
	writeJSON(w, http.StatusCreated, SubmitApplicationResponse{
		Application: &app,
		Findings:    toFindingDTOs(result.Findings),
	})
}

// ListApplications returns an employee's application history.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	apps, err := h.Store.ListApplications(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list applications", err)
		return
	}

	dtos := make([]ApplicationDTO, len(apps))
	for i, a := range apps {
		dtos[i] = toApplicationDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetApplication returns one application with its audit trail.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	app, err := h.Store.GetApplication(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get application", err)
		return
	}

	audit, err := h.Store.ListAudit(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get audit trail", err)
		return
	}

	auditDTOs := make([]AuditEntryDTO, len(audit))
	for i, e := range audit {
		auditDTOs[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, ApplicationDetailDTO{
		Application: toApplicationDTO(app),
		Audit:       auditDTOs,
	})
}

// ListPendingApplications returns the manager's approval queue.
func (h *Handler) ListPendingApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.ListByStatus(r.Context(), leave.StatusPending)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending applications", err)
		return
	}

	dtos := make([]ApplicationDTO, len(apps))
	for i, a := range apps {
		dtos[i] = toApplicationDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveApplication approves a pending application and charges the balance.
func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	app, err := h.Service.Approve(r.Context(), id, req.ActorID)
	if err != nil {
		writeDomainError(w, "Failed to approve application", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// RejectApplication rejects a pending application. No balance effect.
func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required", nil)
		return
	}

	app, err := h.Service.Reject(r.Context(), id, req.ActorID, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to reject application", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// CancelApplication cancels a pending or approved future application.
// Cancelling an approved one reverts the balance charge.
func (h *Handler) CancelApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	app, err := h.Service.Cancel(r.Context(), id, req.ActorID)
	if err != nil {
		writeDomainError(w, "Failed to cancel application", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

func decodeDecision(w http.ResponseWriter, r *http.Request) (DecisionRequest, bool) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return req, false
	}
	if req.ActorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id is required", nil)
		return req, false
	}
	return req, true
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns the full policy table.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	dtos := make([]PolicyDTO, len(policies))
	for i, p := range policies {
		dtos[i] = toPolicyDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpsertPolicy creates or replaces one policy row.
func (h *Handler) UpsertPolicy(w http.ResponseWriter, r *http.Request) {
	var req PolicyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.LeaveType == "" || req.EmploymentType == "" {
		writeError(w, http.StatusBadRequest, "leave_type and employment_type are required", nil)
		return
	}

	accrual, err := leave.ParseDays(req.MonthlyAccrual)
	if err != nil || accrual.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid monthly_accrual", err)
		return
	}

	p := leave.Policy{
		LeaveType:          leave.LeaveType(req.LeaveType),
		EmploymentType:     leave.EmploymentType(req.EmploymentType),
		MonthlyAccrual:     accrual,
		MaxCarryForward:    req.MaxCarryForward,
		AdvanceNoticeDays:  req.AdvanceNoticeDays,
		SameDayAllowed:     req.SameDayAllowed,
		MaxConsecutiveDays: req.MaxConsecutiveDays,
		RequiresDocuments:  req.RequiresDocuments,
	}
	if err := h.Store.SavePolicy(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save policy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(p))
}

// SeedDefaultPolicies loads the standard policy table. Existing rows with
// the same key are replaced.
func (h *Handler) SeedDefaultPolicies(w http.ResponseWriter, r *http.Request) {
	for _, p := range leave.DefaultPolicies() {
		if err := h.Store.SavePolicy(r.Context(), p); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed policies", err)
			return
		}
	}
	h.ListPolicies(w, r)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the configured holidays for a year.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.yearParam(r)

	holidays, err := h.Store.ListHolidays(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds one holiday to the calendar.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := leave.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	hol := leave.Holiday{
		ID:       uuid.NewString(),
		Date:     date,
		Name:     req.Name,
		Optional: req.Optional,
	}
	if err := h.Store.SaveHoliday(r.Context(), hol); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(hol))
}

// DeleteHoliday removes a holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// COMP-OFF HANDLERS
// =============================================================================

// SubmitCompOff claims a comp-off credit for a worked non-working day.
func (h *Handler) SubmitCompOff(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req SubmitCompOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	workedDate, err := leave.ParseDate(req.WorkedDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid worked_date format (use YYYY-MM-DD)", err)
		return
	}
	var compOffDate *leave.Date
	if req.CompOffDate != "" {
		parsed, err := leave.ParseDate(req.CompOffDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid comp_off_date format (use YYYY-MM-DD)", err)
			return
		}
		compOffDate = &parsed
	}

	co, findings, err := h.Service.SubmitCompOff(r.Context(), employeeID, workedDate, compOffDate, req.Reason)
	if errors.Is(err, leave.ErrNotEligible) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"findings": toFindingDTOs(findings),
		})
		return
	}
	if err != nil {
		writeDomainError(w, "Failed to submit comp-off request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompOffDTO(*co))
}

// ListCompOffs returns an employee's comp-off history.
func (h *Handler) ListCompOffs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reqs, err := h.Store.ListCompOffs(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list comp-off requests", err)
		return
	}

	dtos := make([]CompOffDTO, len(reqs))
	for i, c := range reqs {
		dtos[i] = toCompOffDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveCompOff approves a comp-off request and credits one day.
func (h *Handler) ApproveCompOff(w http.ResponseWriter, r *http.Request) {
	h.decideCompOff(w, r, true)
}

// RejectCompOff rejects a comp-off request.
func (h *Handler) RejectCompOff(w http.ResponseWriter, r *http.Request) {
	h.decideCompOff(w, r, false)
}

func (h *Handler) decideCompOff(w http.ResponseWriter, r *http.Request, approve bool) {
	id := chi.URLParam(r, "id")

	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	co, err := h.Service.DecideCompOff(r.Context(), id, req.ActorID, approve, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to decide comp-off request", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompOffDTO(*co))
}

// =============================================================================
// WFH HANDLERS
// =============================================================================

// SubmitWFH submits a work-from-home request. WFH never touches balances.
func (h *Handler) SubmitWFH(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req SubmitWFHRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := leave.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := leave.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date is before start_date", nil)
		return
	}

	wfh, err := h.Service.SubmitWFH(r.Context(), employeeID, start, end, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to submit WFH request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWFHDTO(*wfh))
}

// ListWFH returns an employee's WFH history.
func (h *Handler) ListWFH(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reqs, err := h.Store.ListWFH(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list WFH requests", err)
		return
	}

	dtos := make([]WFHDTO, len(reqs))
	for i, wr := range reqs {
		dtos[i] = toWFHDTO(wr)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveWFH approves a WFH request.
func (h *Handler) ApproveWFH(w http.ResponseWriter, r *http.Request) {
	h.decideWFH(w, r, true)
}

// RejectWFH rejects a WFH request.
func (h *Handler) RejectWFH(w http.ResponseWriter, r *http.Request) {
	h.decideWFH(w, r, false)
}

func (h *Handler) decideWFH(w http.ResponseWriter, r *http.Request, approve bool) {
	id := chi.URLParam(r, "id")

	req, ok := decodeDecision(w, r)
	if !ok {
		return
	}

	wfh, err := h.Service.DecideWFH(r.Context(), id, req.ActorID, approve, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to decide WFH request", err)
		return
	}
	writeJSON(w, http.StatusOK, toWFHDTO(*wfh))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerRollover runs the year-end rollover for one employee or, with
// employee_id empty, for everyone. Keys already rolled over are skipped,
// so a partially failed batch can be re-run.
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	var req RolloverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FromYear == 0 {
		req.FromYear = h.now().UTC().Year() - 1
	}

	var employees []leave.Employee
	if req.EmployeeID != "" {
		emp, err := h.Store.GetEmployee(r.Context(), req.EmployeeID)
		if err != nil {
			writeDomainError(w, "Failed to get employee", err)
			return
		}
		employees = []leave.Employee{emp}
	} else {
		var err error
		employees, err = h.Store.ListEmployees(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
			return
		}
	}

	asOf := leave.EndOfYear(req.FromYear)
	processed := 0
	skipped := 0
	var failures []string
	for _, emp := range employees {
		for _, lt := range leave.BalanceLeaveTypes {
			alreadyDone, err := h.Store.IsRolloverComplete(r.Context(), emp.ID, lt, req.FromYear)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to check rollover status", err)
				return
			}
			if alreadyDone {
				skipped++
				continue
			}

			run := sqlite.RolloverRun{
				ID:         uuid.NewString(),
				EmployeeID: emp.ID,
				LeaveType:  lt,
				FromYear:   req.FromYear,
				Status:     "running",
				StartedAt:  h.now().UTC(),
			}
			if err := h.Store.SaveRolloverRun(r.Context(), run); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to record rollover run", err)
				return
			}

			err = h.Service.Rollover(r.Context(), emp.ID, lt, req.FromYear, asOf)
			completed := h.now().UTC()
			run.CompletedAt = &completed
			if err != nil {
				run.Status = "failed"
				run.Error = err.Error()
				failures = append(failures, fmt.Sprintf("%s/%s: %v", emp.ID, lt, err))
			} else {
				run.Status = "completed"
				processed++
			}
			if err := h.Store.SaveRolloverRun(r.Context(), run); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to record rollover run", err)
				return
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from_year": req.FromYear,
		"processed": processed,
		"skipped":   skipped,
		"failures":  failures,
	})
}

// ListRolloverRuns returns rollover run history for a year.
func (h *Handler) ListRolloverRuns(w http.ResponseWriter, r *http.Request) {
	fromYear := h.now().UTC().Year() - 1
	if y := r.URL.Query().Get("from_year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from_year", err)
			return
		}
		fromYear = parsed
	}

	runs, err := h.Store.ListRolloverRuns(r.Context(), fromYear)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rollover runs", err)
		return
	}

	dtos := make([]RolloverRunDTO, len(runs))
	for i, run := range runs {
		dto := RolloverRunDTO{
			ID:         run.ID,
			EmployeeID: run.EmployeeID,
			LeaveType:  string(run.LeaveType),
			FromYear:   run.FromYear,
			Status:     run.Status,
			Error:      run.Error,
			StartedAt:  run.StartedAt.Format(time.RFC3339),
		}
		if run.CompletedAt != nil {
			dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RefreshAccrual recomputes one balance's accrued column from the policy
// and the employee's join date.
func (h *Handler) RefreshAccrual(w http.ResponseWriter, r *http.Request) {
	var req RefreshAccrualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" || req.LeaveType == "" {
		writeError(w, http.StatusBadRequest, "employee_id and leave_type are required", nil)
		return
	}

	asOf := leave.DateOf(h.now().UTC())
	if req.AsOf != "" {
		parsed, err := leave.ParseDate(req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
		asOf = parsed
	}
	year := req.Year
	if year == 0 {
		year = asOf.Year()
	}

	balance, err := h.Service.RefreshAccrual(r.Context(), req.EmployeeID, leave.LeaveType(req.LeaveType), year, asOf)
	if err != nil {
		writeDomainError(w, "Failed to refresh accrual", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// ResetDatabase clears all data. For development and demo environments.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// SummaryReport returns per-employee balance totals for a year.
func (h *Handler) SummaryReport(w http.ResponseWriter, r *http.Request) {
	year := h.yearParam(r)

	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	report := SummaryReportDTO{Year: year, Employees: []EmployeeSummaryDTO{}}
	for _, emp := range employees {
		balances, err := h.Service.Balances(r.Context(), emp.ID, year)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get balances", err)
			return
		}

		totalUsed := leave.ZeroDays()
		totalLOP := leave.ZeroDays()
		dtos := make([]BalanceDTO, len(balances))
		for i, b := range balances {
			dtos[i] = toBalanceDTO(b)
			totalUsed = totalUsed.Add(b.Used)
			totalLOP = totalLOP.Add(b.LOPDays)
		}

		report.Employees = append(report.Employees, EmployeeSummaryDTO{
			Employee:  toEmployeeDTO(emp),
			Balances:  dtos,
			TotalUsed: totalUsed.String(),
			TotalLOP:  totalLOP.String(),
		})
	}
	writeJSON(w, http.StatusOK, report)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) yearParam(r *http.Request) int {
	if y := r.URL.Query().Get("year"); y != "" {
		if parsed, err := strconv.Atoi(y); err == nil {
			return parsed
		}
	}
	return h.now().UTC().Year()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, leave.ErrConflict), errors.Is(err, leave.ErrInvalidTransition):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
