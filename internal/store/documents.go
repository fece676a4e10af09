package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docingest/internal/services"
)

// Document is one persisted file linked to an employee.
type Document struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id,omitempty"`
	EmployeeID   int64     `json:"employee_id"`
	FileName     string    `json:"file_name"`
	OriginalPath string    `json:"original_path"`
	Fingerprint  string    `json:"fingerprint"`
	SizeBytes    int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	StorageMode  string    `json:"storage_mode"`
	StorageRef   string    `json:"storage_ref"`
	MatchedVia   string    `json:"matched_via"`
	Score        float64   `json:"score"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const documentColumns = "id, run_id, employee_id, file_name, original_path, fingerprint, size_bytes, content_type, storage_mode, storage_ref, matched_via, score, reason, created_at"

// InsertDocument records doc, assigning an id and creation time when unset.
// A fingerprint that is already stored yields an error marked
// services.ErrDuplicate.
func (s *Store) InsertDocument(ctx context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if doc.EmployeeID <= 0 {
		return services.Wrap(services.ErrValidation, "store", "insert document", "employee id is required", nil)
	}
	if strings.TrimSpace(doc.Fingerprint) == "" {
		return services.Wrap(services.ErrValidation, "store", "insert document", "fingerprint is required", nil)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID,
		nullableString(doc.RunID),
		doc.EmployeeID,
		doc.FileName,
		doc.OriginalPath,
		doc.Fingerprint,
		doc.SizeBytes,
		nullableString(doc.ContentType),
		doc.StorageMode,
		doc.StorageRef,
		doc.MatchedVia,
		doc.Score,
		nullableString(doc.Reason),
		doc.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return services.Wrap(services.ErrDuplicate, "store", "insert document", "fingerprint already stored", err)
		}
		return services.Wrap(services.ErrExternal, "store", "insert document", "database write failed", err)
	}
	return nil
}

// Fingerprints returns every stored document fingerprint.
func (s *Store) Fingerprints(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fingerprint FROM documents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// DocumentsByEmployee returns the documents linked to an employee, oldest first.
func (s *Store) DocumentsByEmployee(ctx context.Context, employeeID int64) ([]*Document, error) {
	return s.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents WHERE employee_id = ? ORDER BY created_at`, employeeID)
}

// DocumentsByRun returns the documents a run inserted, oldest first.
func (s *Store) DocumentsByRun(ctx context.Context, runID string) ([]*Document, error) {
	return s.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents WHERE run_id = ? ORDER BY created_at`, runID)
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*Document, error) {
	var (
		doc         Document
		runID       sql.NullString
		contentType sql.NullString
		reason      sql.NullString
		createdRaw  sql.NullString
	)
	if err := scanner.Scan(
		&doc.ID,
		&runID,
		&doc.EmployeeID,
		&doc.FileName,
		&doc.OriginalPath,
		&doc.Fingerprint,
		&doc.SizeBytes,
		&contentType,
		&doc.StorageMode,
		&doc.StorageRef,
		&doc.MatchedVia,
		&doc.Score,
		&reason,
		&createdRaw,
	); err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.RunID = runID.String
	doc.ContentType = contentType.String
	doc.Reason = reason.String
	doc.CreatedAt = parseTime(createdRaw)
	return &doc, nil
}
