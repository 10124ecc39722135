/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

DAY QUANTITIES:
  Balances and durations are serialized as JSON strings ("1.5", not 1.5)
  so clients never see float artifacts. Dates are "YYYY-MM-DD".

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/service.go: Domain operations behind the handlers
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmploymentType string `json:"employment_type"`
	Role           string `json:"role"`
	JoinDate       string `json:"join_date"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmploymentType string `json:"employment_type"`
	Role           string `json:"role"`
	JoinDate       string `json:"join_date"`
}

// =============================================================================
// BALANCE TYPES
// =============================================================================

// BalanceDTO represents one (leave_type, year) balance row.
type BalanceDTO struct {
	LeaveType      string `json:"leave_type"`
	Year           int    `json:"year"`
	Opening        string `json:"opening"`
	Accrued        string `json:"accrued"`
	Used           string `json:"used"`
	CarriedForward string `json:"carried_forward"`
	LOPDays        string `json:"lop_days"`
	Available      string `json:"available"`
	Current        string `json:"current"`
}

// BalanceSummaryDTO is the full balance picture for one employee.
type BalanceSummaryDTO struct {
	EmployeeID string       `json:"employee_id"`
	Year       int          `json:"year"`
	Balances   []BalanceDTO `json:"balances"`
}

// =============================================================================
// APPLICATION TYPES
// =============================================================================

// SubmitApplicationRequest is the request to submit a leave application.
type SubmitApplicationRequest struct {
	LeaveType    string `json:"leave_type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Reason       string `json:"reason"`
	IsEmergency  bool   `json:"is_emergency"`
	HasDocuments bool   `json:"has_documents"`
}

// FindingDTO is one eligibility finding.
type FindingDTO struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Blocking bool   `json:"blocking"`
}

// ApplicationDTO represents a leave application in API responses.
type ApplicationDTO struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	LeaveType      string `json:"leave_type"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	TotalDays      string `json:"total_days"`
	Reason         string `json:"reason,omitempty"`
	Status         string `json:"status"`
	IsEmergency    bool   `json:"is_emergency"`
	LOPDays        string `json:"lop_days"`
	AppliedAt      string `json:"applied_at"`
	ApprovedBy     string `json:"approved_by,omitempty"`
	ApprovedAt     string `json:"approved_at,omitempty"`
	RejectedReason string `json:"rejected_reason,omitempty"`
	CancelledAt    string `json:"cancelled_at,omitempty"`
}

// SubmitApplicationResponse carries the outcome of a submission. When the
// application was blocked, Application is null and Findings explains why.
type SubmitApplicationResponse struct {
	Application *ApplicationDTO `json:"application"`
	Findings    []FindingDTO    `json:"findings"`
}

// DecisionRequest is the request body for approve/reject/cancel.
type DecisionRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

// AuditEntryDTO is one audit log entry.
type AuditEntryDTO struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	PerformedBy string `json:"performed_by"`
	OldStatus   string `json:"old_status,omitempty"`
	NewStatus   string `json:"new_status"`
	Comments    string `json:"comments,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// ApplicationDetailDTO bundles an application with its audit trail.
type ApplicationDetailDTO struct {
	Application ApplicationDTO  `json:"application"`
	Audit       []AuditEntryDTO `json:"audit"`
}

// =============================================================================
// POLICY TYPES
// =============================================================================

// PolicyDTO represents one policy row.
type PolicyDTO struct {
	LeaveType          string `json:"leave_type"`
	EmploymentType     string `json:"employment_type"`
	MonthlyAccrual     string `json:"monthly_accrual"`
	MaxCarryForward    int    `json:"max_carry_forward"`
	AdvanceNoticeDays  int    `json:"advance_notice_days"`
	SameDayAllowed     bool   `json:"same_day_allowed"`
	MaxConsecutiveDays *int   `json:"max_consecutive_days,omitempty"`
	RequiresDocuments  bool   `json:"requires_documents"`
}

// =============================================================================
// HOLIDAY TYPES
// =============================================================================

// HolidayDTO represents one configured holiday.
type HolidayDTO struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Name     string `json:"name"`
	Optional bool   `json:"optional"`
}

// CreateHolidayRequest is the request to add a holiday.
type CreateHolidayRequest struct {
	Date     string `json:"date"`
	Name     string `json:"name"`
	Optional bool   `json:"optional"`
}

// =============================================================================
// COMP-OFF AND WFH TYPES
// =============================================================================

// SubmitCompOffRequest is the request to claim a comp-off credit.
type SubmitCompOffRequest struct {
	WorkedDate  string `json:"worked_date"`
	CompOffDate string `json:"comp_off_date,omitempty"`
	Reason      string `json:"reason"`
}

// CompOffDTO represents a comp-off request in API responses.
type CompOffDTO struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	WorkedDate     string `json:"worked_date"`
	CompOffDate    string `json:"comp_off_date,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Status         string `json:"status"`
	AppliedAt      string `json:"applied_at"`
	ApprovedBy     string `json:"approved_by,omitempty"`
	ApprovedAt     string `json:"approved_at,omitempty"`
	RejectedReason string `json:"rejected_reason,omitempty"`
}

// SubmitWFHRequest is the request to apply for work from home.
type SubmitWFHRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// WFHDTO represents a work-from-home request in API responses.
type WFHDTO struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	TotalDays      string `json:"total_days"`
	Reason         string `json:"reason,omitempty"`
	Status         string `json:"status"`
	AppliedAt      string `json:"applied_at"`
	ApprovedBy     string `json:"approved_by,omitempty"`
	ApprovedAt     string `json:"approved_at,omitempty"`
	RejectedReason string `json:"rejected_reason,omitempty"`
}

// =============================================================================
// ADMIN TYPES
// =============================================================================

// RolloverRequest triggers a year-end rollover. With EmployeeID empty the
// rollover runs for every employee.
type RolloverRequest struct {
	EmployeeID string `json:"employee_id,omitempty"`
	FromYear   int    `json:"from_year"`
}

// RolloverRunDTO reports one rollover attempt.
type RolloverRunDTO struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	LeaveType   string `json:"leave_type"`
	FromYear    int    `json:"from_year"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// RefreshAccrualRequest recomputes a balance's accrual column.
type RefreshAccrualRequest struct {
	EmployeeID string `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	Year       int    `json:"year"`
	AsOf       string `json:"as_of,omitempty"`
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// EmployeeSummaryDTO is one row in the year summary report.
type EmployeeSummaryDTO struct {
	Employee  EmployeeDTO  `json:"employee"`
	Balances  []BalanceDTO `json:"balances"`
	TotalUsed string       `json:"total_used"`
	TotalLOP  string       `json:"total_lop"`
}

// SummaryReportDTO is the full year summary report.
type SummaryReportDTO struct {
	Year      int                  `json:"year"`
	Employees []EmployeeSummaryDTO `json:"employees"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:             e.ID,
		Name:           e.Name,
		Email:          e.Email,
		EmploymentType: string(e.EmploymentType),
		Role:           string(e.Role),
		JoinDate:       e.JoinDate.String(),
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}

func toBalanceDTO(b leave.Balance) BalanceDTO {
	return BalanceDTO{
		LeaveType:      string(b.LeaveType),
		Year:           b.Year,
		Opening:        b.Opening.String(),
		Accrued:        b.Accrued.String(),
		Used:           b.Used.String(),
		CarriedForward: b.CarriedForward.String(),
		LOPDays:        b.LOPDays.String(),
		Available:      b.Available().String(),
		Current:        b.Current().String(),
	}
}

func toApplicationDTO(a leave.Application) ApplicationDTO {
	dto := ApplicationDTO{
		ID:             a.ID,
		EmployeeID:     a.EmployeeID,
		LeaveType:      string(a.LeaveType),
		StartDate:      a.StartDate.String(),
		EndDate:        a.EndDate.String(),
		TotalDays:      a.TotalDays.String(),
		Reason:         a.Reason,
		Status:         string(a.Status),
		IsEmergency:    a.IsEmergency,
		LOPDays:        a.LOPDays.String(),
		AppliedAt:      a.AppliedAt.Format(time.RFC3339),
		ApprovedBy:     a.ApprovedBy,
		RejectedReason: a.RejectedReason,
	}
	if a.ApprovedAt != nil {
		dto.ApprovedAt = a.ApprovedAt.Format(time.RFC3339)
	}
	if a.CancelledAt != nil {
		dto.CancelledAt = a.CancelledAt.Format(time.RFC3339)
	}
	return dto
}

func toFindingDTOs(findings []leave.Finding) []FindingDTO {
	dtos := make([]FindingDTO, len(findings))
	for i, f := range findings {
		dtos[i] = FindingDTO{Code: string(f.Code), Message: f.Message, Blocking: f.Blocking}
	}
	return dtos
}

func toAuditEntryDTO(e leave.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:          e.ID,
		Action:      e.Action,
		PerformedBy: e.PerformedBy,
		OldStatus:   string(e.OldStatus),
		NewStatus:   string(e.NewStatus),
		Comments:    e.Comments,
		Timestamp:   e.Timestamp.Format(time.RFC3339),
	}
}

func toPolicyDTO(p leave.Policy) PolicyDTO {
	return PolicyDTO{
		LeaveType:          string(p.LeaveType),
		EmploymentType:     string(p.EmploymentType),
		MonthlyAccrual:     p.MonthlyAccrual.String(),
		MaxCarryForward:    p.MaxCarryForward,
		AdvanceNoticeDays:  p.AdvanceNoticeDays,
		SameDayAllowed:     p.SameDayAllowed,
		MaxConsecutiveDays: p.MaxConsecutiveDays,
		RequiresDocuments:  p.RequiresDocuments,
	}
}

func toHolidayDTO(h leave.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:       h.ID,
		Date:     h.Date.String(),
		Name:     h.Name,
		Optional: h.Optional,
	}
}

func toCompOffDTO(c leave.CompOffRequest) CompOffDTO {
	dto := CompOffDTO{
		ID:             c.ID,
		EmployeeID:     c.EmployeeID,
		WorkedDate:     c.WorkedDate.String(),
		Reason:         c.Reason,
		Status:         string(c.Status),
		AppliedAt:      c.AppliedAt.Format(time.RFC3339),
		ApprovedBy:     c.ApprovedBy,
		RejectedReason: c.RejectedReason,
	}
	if c.CompOffDate != nil {
		dto.CompOffDate = c.CompOffDate.String()
	}
	if c.ApprovedAt != nil {
		dto.ApprovedAt = c.ApprovedAt.Format(time.RFC3339)
	}
	return dto
}

func toWFHDTO(w leave.WFHRequest) WFHDTO {
	dto := WFHDTO{
		ID:             w.ID,
		EmployeeID:     w.EmployeeID,
		StartDate:      w.StartDate.String(),
		EndDate:        w.EndDate.String(),
		TotalDays:      w.TotalDays.String(),
		Reason:         w.Reason,
		Status:         string(w.Status),
		AppliedAt:      w.AppliedAt.Format(time.RFC3339),
		ApprovedBy:     w.ApprovedBy,
		RejectedReason: w.RejectedReason,
	}
	if w.ApprovedAt != nil {
		dto.ApprovedAt = w.ApprovedAt.Format(time.RFC3339)
	}
	return dto
}
