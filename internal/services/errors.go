package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
	ErrExternal      = errors.New("external service error")
	ErrDuplicate     = errors.New("duplicate")
	ErrFatal         = errors.New("fatal startup failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal tags err as a startup failure that must abort the run before any file
// is processed.
func Fatal(component, operation string, err error) error {
	return Wrap(ErrFatal, component, operation, "", err)
}

// IsFatal reports whether err aborts the run (registry unreachable, root
// directory inaccessible, no storage session).
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// Category maps a per-file error to the label used in reports.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExternal):
		return "external"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrFatal):
		return "fatal"
	default:
		return "transient"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
