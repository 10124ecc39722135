// Package store provides an in-memory implementation of leave.Store,
// used by tests and local development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type balanceKey struct {
	EmployeeID string
	LeaveType  leave.LeaveType
	Year       int
}

// Memory holds every table in maps behind one RWMutex. Balance writes
// honor the optimistic-concurrency contract: a SaveBalance with a stale
// Version returns leave.ErrConflict.
type Memory struct {
	mu           sync.RWMutex
	employees    map[string]leave.Employee
	policies     map[leave.PolicyKey]leave.Policy
	holidays     map[string]leave.Holiday
	balances     map[balanceKey]leave.Balance
	applications map[string]leave.Application
	compoffs     map[string]leave.CompOffRequest
	wfh          map[string]leave.WFHRequest
	audit        []leave.AuditEntry
}

var _ leave.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		employees:    make(map[string]leave.Employee),
		policies:     make(map[leave.PolicyKey]leave.Policy),
		holidays:     make(map[string]leave.Holiday),
		balances:     make(map[balanceKey]leave.Balance),
		applications: make(map[string]leave.Application),
		compoffs:     make(map[string]leave.CompOffRequest),
		wfh:          make(map[string]leave.WFHRequest),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// PutEmployee seeds the directory. The engine itself only reads it.
func (m *Memory) PutEmployee(e leave.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
}

func (m *Memory) GetEmployee(_ context.Context, id string) (leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return leave.Employee{}, &leave.NotFoundError{Kind: "employee", Key: id}
	}
	return e, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]leave.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// POLICIES
// =============================================================================

func (m *Memory) GetPolicy(_ context.Context, lt leave.LeaveType, et leave.EmploymentType) (leave.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[leave.PolicyKey{LeaveType: lt, EmploymentType: et}]
	if !ok {
		return leave.Policy{}, &leave.NotFoundError{Kind: "policy", Key: string(lt) + "/" + string(et)}
	}
	return p, nil
}

func (m *Memory) ListPolicies(_ context.Context) ([]leave.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]leave.Policy, 0, len(m.policies))
	for _, p := range m.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LeaveType != out[j].LeaveType {
			return out[i].LeaveType < out[j].LeaveType
		}
		return out[i].EmploymentType < out[j].EmploymentType
	})
	return out, nil
}

func (m *Memory) SavePolicy(_ context.Context, p leave.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[p.Key()] = p
	return nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) ListHolidays(_ context.Context, year int) ([]leave.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Holiday
	for _, h := range m.holidays {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) SaveHoliday(_ context.Context, h leave.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holidays[id]; !ok {
		return &leave.NotFoundError{Kind: "holiday", Key: id}
	}
	delete(m.holidays, id)
	return nil
}

// =============================================================================
// BALANCES - optimistic concurrency
// =============================================================================

func (m *Memory) GetBalance(_ context.Context, employeeID string, lt leave.LeaveType, year int) (leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.balances[balanceKey{EmployeeID: employeeID, LeaveType: lt, Year: year}]
	if !ok {
		return leave.Balance{}, &leave.NotFoundError{Kind: "balance", Key: employeeID + "/" + string(lt)}
	}
	return b, nil
}

func (m *Memory) SaveBalance(_ context.Context, b leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := balanceKey{EmployeeID: b.EmployeeID, LeaveType: b.LeaveType, Year: b.Year}
	current, exists := m.balances[k]

	// Version 0 is an insert; anything else must match the stored row.
	if exists && current.Version != b.Version {
		return leave.ErrConflict
	}
	if !exists && b.Version != 0 {
		return leave.ErrConflict
	}

	b.Version++
	m.balances[k] = b
	return nil
}

func (m *Memory) ListBalances(_ context.Context, employeeID string, year int) ([]leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Balance
	for k, b := range m.balances {
		if k.EmployeeID == employeeID && k.Year == year {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveType < out[j].LeaveType })
	return out, nil
}

// =============================================================================
// APPLICATIONS
// =============================================================================

func (m *Memory) InsertApplication(_ context.Context, a leave.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applications[a.ID] = a
	return nil
}

func (m *Memory) GetApplication(_ context.Context, id string) (leave.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.applications[id]
	if !ok {
		return leave.Application{}, &leave.NotFoundError{Kind: "application", Key: id}
	}
	return a, nil
}

func (m *Memory) UpdateApplication(_ context.Context, a leave.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.applications[a.ID]; !ok {
		return &leave.NotFoundError{Kind: "application", Key: a.ID}
	}
	m.applications[a.ID] = a
	return nil
}

func (m *Memory) ListActiveApplications(_ context.Context, employeeID string) ([]leave.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Application
	for _, a := range m.applications {
		if a.EmployeeID == employeeID && a.Active() {
			out = append(out, a)
		}
	}
	sortApplications(out)
	return out, nil
}

func (m *Memory) ListApplications(_ context.Context, employeeID string) ([]leave.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Application
	for _, a := range m.applications {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	sortApplications(out)
	return out, nil
}

func (m *Memory) ListByStatus(_ context.Context, status leave.Status) ([]leave.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Application
	for _, a := range m.applications {
		if a.Status == status {
			out = append(out, a)
		}
	}
	sortApplications(out)
	return out, nil
}

func sortApplications(apps []leave.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].AppliedAt.Equal(apps[j].AppliedAt) {
			return apps[i].AppliedAt.After(apps[j].AppliedAt)
		}
		return apps[i].ID < apps[j].ID
	})
}

// =============================================================================
// COMP-OFF / WFH
// =============================================================================

func (m *Memory) InsertCompOff(_ context.Context, c leave.CompOffRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compoffs[c.ID] = c
	return nil
}

func (m *Memory) GetCompOff(_ context.Context, id string) (leave.CompOffRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.compoffs[id]
	if !ok {
		return leave.CompOffRequest{}, &leave.NotFoundError{Kind: "comp-off request", Key: id}
	}
	return c, nil
}

func (m *Memory) UpdateCompOff(_ context.Context, c leave.CompOffRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.compoffs[c.ID]; !ok {
		return &leave.NotFoundError{Kind: "comp-off request", Key: c.ID}
	}
	m.compoffs[c.ID] = c
	return nil
}

func (m *Memory) ListCompOffs(_ context.Context, employeeID string) ([]leave.CompOffRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.CompOffRequest
	for _, c := range m.compoffs {
		if c.EmployeeID == employeeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.After(out[j].AppliedAt) })
	return out, nil
}

func (m *Memory) InsertWFH(_ context.Context, w leave.WFHRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wfh[w.ID] = w
	return nil
}

func (m *Memory) GetWFH(_ context.Context, id string) (leave.WFHRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.wfh[id]
	if !ok {
		return leave.WFHRequest{}, &leave.NotFoundError{Kind: "wfh request", Key: id}
	}
	return w, nil
}

func (m *Memory) UpdateWFH(_ context.Context, w leave.WFHRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wfh[w.ID]; !ok {
		return &leave.NotFoundError{Kind: "wfh request", Key: w.ID}
	}
	m.wfh[w.ID] = w
	return nil
}

func (m *Memory) ListWFH(_ context.Context, employeeID string) ([]leave.WFHRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.WFHRequest
	for _, w := range m.wfh {
		if w.EmployeeID == employeeID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.After(out[j].AppliedAt) })
	return out, nil
}

// =============================================================================
// AUDIT - append-only
// =============================================================================

func (m *Memory) AppendAudit(_ context.Context, entry leave.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) ListAudit(_ context.Context, applicationID string) ([]leave.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.AuditEntry
	for _, e := range m.audit {
		if e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	return out, nil
}
