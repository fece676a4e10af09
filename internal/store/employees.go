package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docingest/internal/registry"
)

// ListActiveEmployees implements registry.Source over the employees table.
func (s *Store) ListActiveEmployees(ctx context.Context) ([]registry.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, tax_id, badge, email FROM employees WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var employees []registry.Employee
	for rows.Next() {
		var (
			e                   registry.Employee
			taxID, badge, email sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &taxID, &badge, &email); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		e.TaxID = taxID.String
		e.Badge = badge.String
		e.Email = email.String
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// UpsertEmployees inserts or replaces employee records in one transaction and
// returns how many rows were written.
func (s *Store) UpsertEmployees(ctx context.Context, records []registry.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin employee tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO employees (id, name, tax_id, badge, email, active, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            tax_id = excluded.tax_id,
            badge = excluded.badge,
            email = excluded.email,
            active = excluded.active,
            updated_at = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare employee upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ID,
			r.Name,
			nullableString(r.TaxID),
			nullableString(r.Badge),
			nullableString(r.Email),
			boolToInt(r.Active),
			now,
		); err != nil {
			return 0, fmt.Errorf("upsert employee %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit employees: %w", err)
	}
	return len(records), nil
}
