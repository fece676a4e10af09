package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"docingest/internal/ingest"
	"docingest/internal/progress"
)

// Artifact kinds.
const (
	KindSummary = "summary"
	KindMatches = "matches"
	KindErrors  = "errors"
	KindDetails = "details"
)

const timestampLayout = "20060102T150405.000Z"

// maxSuffix bounds the no-clobber search for one timestamp.
const maxSuffix = 1000

// MatchRecord is one line of the matches artifact.
type MatchRecord struct {
	File         string  `json:"file"`
	Fingerprint  string  `json:"fingerprint"`
	SizeBytes    int64   `json:"size_bytes"`
	EmployeeID   int64   `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	MatchedVia   string  `json:"matched_via"`
	Score        float64 `json:"score"`
	Evidence     string  `json:"evidence,omitempty"`
	Reason       string  `json:"reason"`
	StorageRef   string  `json:"storage_ref"`
	ContentType  string  `json:"content_type,omitempty"`
}

// ErrorRecord is one line of the errors artifact.
type ErrorRecord struct {
	File       string `json:"file"`
	Category   string `json:"category"`
	Reason     string `json:"reason"`
	EmployeeID int64  `json:"employee_id,omitempty"`
}

// DetailRecord is one line of the details artifact.
type DetailRecord struct {
	File        string  `json:"file"`
	Status      string  `json:"status"`
	Success     bool    `json:"success"`
	Reason      string  `json:"reason"`
	MatchedVia  string  `json:"matched_via"`
	Score       float64 `json:"score"`
	Evidence    string  `json:"evidence,omitempty"`
	EmployeeID  int64   `json:"employee_id,omitempty"`
	DurationMS  int64   `json:"duration_ms"`
	StorageRef  string  `json:"storage_ref,omitempty"`
	ContentType string  `json:"content_type,omitempty"`
}

// Run bundles what a batch run hands to the writer.
type Run struct {
	Stats    progress.Stats
	Matches  []ingest.Outcome
	Failures []ingest.Outcome
	// Details is written only when non-nil.
	Details []ingest.Outcome
}

// Writer creates artifacts in Dir.
type Writer struct {
	Dir string
	now func() time.Time
}

// NewWriter returns a Writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, now: time.Now}
}

// WriteRun writes the summary, matches, errors, and optional details
// artifacts. It returns the paths written before the first failure.
func (w *Writer) WriteRun(run Run) ([]string, error) {
	type artifact struct {
		kind  string
		value any
	}
	artifacts := []artifact{
		{KindSummary, run.Stats},
		{KindMatches, MatchRecords(run.Matches)},
		{KindErrors, ErrorRecords(run.Failures)},
	}
	if run.Details != nil {
		artifacts = append(artifacts, artifact{KindDetails, DetailRecords(run.Details)})
	}

	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path, err := w.Write(a.kind, a.value)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Write encodes v as indented JSON into "<kind>-<timestamp>.json". When the
// name is taken a numeric suffix is added.
func (w *Writer) Write(kind string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s report: %w", kind, err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports directory: %w", err)
	}

	stamp := w.now().UTC().Format(timestampLayout)
	for i := 0; i < maxSuffix; i++ {
		name := fmt.Sprintf("%s-%s.json", kind, stamp)
		if i > 0 {
			name = fmt.Sprintf("%s-%s-%d.json", kind, stamp, i)
		}
		path := filepath.Join(w.Dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s report: %w", kind, err)
		}
		_, werr := file.Write(data)
		cerr := file.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("write %s report: %w", kind, errors.Join(werr, cerr))
		}
		return path, nil
	}
	return "", fmt.Errorf("write %s report: no free name for timestamp %s", kind, stamp)
}

// MatchRecords flattens uploaded outcomes.
func MatchRecords(outcomes []ingest.Outcome) []MatchRecord {
	out := make([]MatchRecord, 0, len(outcomes))
	for _, o := range outcomes {
		rec := MatchRecord{
			File:        o.File.Path,
			Fingerprint: o.File.Fingerprint,
			SizeBytes:   o.File.Size,
			MatchedVia:  string(o.Match.Via),
			Score:       o.Match.Score,
			Evidence:    o.Match.Evidence,
			Reason:      o.Reason,
			StorageRef:  o.StorageRef,
			ContentType: o.ContentType,
		}
		if o.Employee != nil {
			rec.EmployeeID = o.Employee.ID
			rec.EmployeeName = o.Employee.Name
		}
		out = append(out, rec)
	}
	return out
}

// ErrorRecords flattens error outcomes.
func ErrorRecords(outcomes []ingest.Outcome) []ErrorRecord {
	out := make([]ErrorRecord, 0, len(outcomes))
	for _, o := range outcomes {
		rec := ErrorRecord{File: o.File.Path, Category: o.ErrorCategory, Reason: o.Reason}
		if o.Employee != nil {
			rec.EmployeeID = o.Employee.ID
		}
		out = append(out, rec)
	}
	return out
}

// DetailRecords flattens every outcome.
func DetailRecords(outcomes []ingest.Outcome) []DetailRecord {
	out := make([]DetailRecord, 0, len(outcomes))
	for _, o := range outcomes {
		rec := DetailRecord{
			File:        o.File.Path,
			Status:      string(o.Status),
			Success:     o.Success(),
			Reason:      o.Reason,
			MatchedVia:  string(o.Match.Via),
			Score:       o.Match.Score,
			Evidence:    o.Match.Evidence,
			DurationMS:  o.Duration.Milliseconds(),
			StorageRef:  o.StorageRef,
			ContentType: o.ContentType,
		}
		if rec.MatchedVia == "" {
			rec.MatchedVia = "none"
		}
		if o.Employee != nil {
			rec.EmployeeID = o.Employee.ID
		}
		out = append(out, rec)
	}
	return out
}
