package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	workerKey contextKey = "worker"
	fileKey   contextKey = "file"
)

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithWorker annotates context with the 1-based worker number.
func WithWorker(ctx context.Context, worker int) context.Context {
	return context.WithValue(ctx, workerKey, worker)
}

// WorkerFromContext returns the worker number if present.
func WorkerFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(workerKey).(int)
	return v, ok
}

// WithFile annotates context with the path of the file being processed.
func WithFile(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, fileKey, path)
}

// FileFromContext returns the file path if present.
func FileFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(fileKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
