package logging

import (
	"context"
	"log/slog"

	"docingest/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for the batch run identifier.
	FieldRunID = "run_id"
	// FieldWorker is the standardized structured logging key for worker numbers.
	FieldWorker = "worker"
	// FieldFile is the standardized structured logging key for the file being processed.
	FieldFile = "file"
	// FieldEventType classifies a log line for filtering (e.g. "file_skipped").
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact states what the warning means for the run.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if worker, ok := services.WorkerFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldWorker, worker))
	}
	if file, ok := services.FileFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFile, file))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
