package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"docingest/internal/services"
)

// Record is an employee entry in a JSON export. Active defaults to true when
// the field is omitted.
type Record struct {
	Employee
	Active bool `json:"active"`
}

type jsonRecord struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	TaxID  string `json:"tax_id"`
	Badge  string `json:"badge"`
	Email  string `json:"email"`
	Active *bool  `json:"active"`
}

// ReadJSON decodes an employee export: a JSON array of records with id, name,
// tax_id, badge, email, and active fields.
func ReadJSON(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "registry", "read json", "Employee export unavailable", err)
	}
	var raw []jsonRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrValidation, "registry", "decode json", "Employee export is not a JSON array", err)
	}
	records := make([]Record, 0, len(raw))
	for i, r := range raw {
		if r.ID <= 0 {
			return nil, services.Wrap(services.ErrValidation, "registry", "decode json", fmt.Sprintf("record %d has no positive id", i), nil)
		}
		if strings.TrimSpace(r.Name) == "" {
			return nil, services.Wrap(services.ErrValidation, "registry", "decode json", fmt.Sprintf("record %d (id %d) has no name", i, r.ID), nil)
		}
		active := true
		if r.Active != nil {
			active = *r.Active
		}
		records = append(records, Record{
			Employee: Employee{ID: r.ID, Name: r.Name, TaxID: r.TaxID, Badge: r.Badge, Email: r.Email},
			Active:   active,
		})
	}
	return records, nil
}

// JSONSource reads active employees from a JSON export on every call.
type JSONSource struct {
	Path string
}

// ListActiveEmployees implements Source.
func (s JSONSource) ListActiveEmployees(ctx context.Context) ([]Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := ReadJSON(s.Path)
	if err != nil {
		return nil, err
	}
	employees := make([]Employee, 0, len(records))
	for _, r := range records {
		if r.Active {
			employees = append(employees, r.Employee)
		}
	}
	return employees, nil
}
