package registry

import (
	"context"
	"errors"
	"strings"

	"docingest/internal/extract"
	"docingest/internal/services"
	"docingest/internal/similarity"
)

// Employee is one active employee record.
type Employee struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id,omitempty"`
	Badge string `json:"badge,omitempty"`
	Email string `json:"email,omitempty"`
}

// Source lists the active employees of the organization.
type Source interface {
	ListActiveEmployees(ctx context.Context) ([]Employee, error)
}

// ambiguous marks an index key shared by more than one employee.
const ambiguous = -1

// Registry is an immutable employee snapshot with lookup indexes.
type Registry struct {
	employees    []Employee
	prepared     []similarity.Text
	byIdentifier map[string]int
	byEmail      map[string]int
}

// Load fetches the active employees from src and builds a snapshot. Any
// source failure is fatal for the run.
func Load(ctx context.Context, src Source) (*Registry, error) {
	if src == nil {
		return nil, services.Fatal("registry", "load", errors.New("no employee source configured"))
	}
	employees, err := src.ListActiveEmployees(ctx)
	if err != nil {
		return nil, services.Fatal("registry", "load", err)
	}
	return New(employees), nil
}

// New builds a snapshot from employees. Tax ids and badges are normalized to
// digits and emails to lowercase. An identifier or email shared by several
// employees is indexed as ambiguous and never resolves.
func New(employees []Employee) *Registry {
	r := &Registry{
		employees:    make([]Employee, 0, len(employees)),
		byIdentifier: make(map[string]int),
		byEmail:      make(map[string]int),
	}
	for _, e := range employees {
		e.Name = strings.TrimSpace(e.Name)
		e.TaxID = extract.NormalizeIdentifier(e.TaxID)
		e.Badge = extract.NormalizeIdentifier(e.Badge)
		e.Email = strings.ToLower(strings.TrimSpace(e.Email))

		idx := len(r.employees)
		r.employees = append(r.employees, e)
		r.prepared = append(r.prepared, similarity.Prepare(e.Name))

		seen := make(map[string]struct{}, 2)
		for _, id := range []string{e.TaxID, e.Badge} {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			index(r.byIdentifier, id, idx)
		}
		if e.Email != "" {
			index(r.byEmail, e.Email, idx)
		}
	}
	return r
}

func index(m map[string]int, key string, idx int) {
	if _, exists := m[key]; exists {
		m[key] = ambiguous
		return
	}
	m[key] = idx
}

// Len returns the number of employees in the snapshot.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.employees)
}

// At returns the employee at position i.
func (r *Registry) At(i int) Employee {
	return r.employees[i]
}

// Employees returns a copy of the snapshot in load order.
func (r *Registry) Employees() []Employee {
	if r == nil {
		return nil
	}
	return append([]Employee(nil), r.employees...)
}

// PreparedNames returns the employee names prepared for similarity scoring,
// aligned with At. The slice is shared and must not be modified.
func (r *Registry) PreparedNames() []similarity.Text {
	if r == nil {
		return nil
	}
	return r.prepared
}

// ByIdentifier returns the single employee whose tax id or badge equals id
// digit for digit.
func (r *Registry) ByIdentifier(id string) (Employee, bool) {
	if r == nil {
		return Employee{}, false
	}
	return r.lookup(r.byIdentifier, extract.NormalizeIdentifier(id))
}

// ByEmail returns the single employee with the given email, ignoring case.
func (r *Registry) ByEmail(email string) (Employee, bool) {
	if r == nil {
		return Employee{}, false
	}
	return r.lookup(r.byEmail, strings.ToLower(strings.TrimSpace(email)))
}

func (r *Registry) lookup(m map[string]int, key string) (Employee, bool) {
	if key == "" {
		return Employee{}, false
	}
	idx, ok := m[key]
	if !ok || idx == ambiguous {
		return Employee{}, false
	}
	return r.employees[idx], true
}
