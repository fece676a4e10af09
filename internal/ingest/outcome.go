package ingest

import (
	"encoding/json"
	"time"

	"docingest/internal/matcher"
	"docingest/internal/registry"
	"docingest/internal/scanner"
	"docingest/internal/services"
)

// Status is the terminal state of one processed file.
type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusUnmatched Status = "unmatched"
	StatusDuplicate Status = "duplicate"
	StatusError     Status = "error"
)

// Outcome is the immutable result of processing one file.
type Outcome struct {
	File          scanner.FileDescriptor `json:"file"`
	Status        Status                 `json:"status"`
	Matched       bool                   `json:"matched"`
	Reason        string                 `json:"reason"`
	Employee      *registry.Employee     `json:"employee,omitempty"`
	Match         matcher.Result         `json:"match"`
	StorageRef    string                 `json:"storage_ref,omitempty"`
	ContentType   string                 `json:"content_type,omitempty"`
	ErrorCategory string                 `json:"error_category,omitempty"`
	Duration      time.Duration          `json:"duration_ns"`
}

// Success reports whether the file was handled as intended: stored and
// recorded, or deliberately left alone because no employee matched.
func (o Outcome) Success() bool {
	return o.Status == StatusUploaded || o.Status == StatusUnmatched
}

// MarshalJSON adds the derived success flag.
func (o Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	return json.Marshal(struct {
		plain
		Success bool `json:"success"`
	}{plain(o), o.Success()})
}

// ErrorOutcome builds the outcome for a file whose processing failed with err.
func ErrorOutcome(fd scanner.FileDescriptor, err error, elapsed time.Duration) Outcome {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return Outcome{
		File:          fd,
		Status:        StatusError,
		Reason:        reason,
		ErrorCategory: services.Category(err),
		Duration:      elapsed,
	}
}
