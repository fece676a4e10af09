package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"docingest/internal/logging"
	"docingest/internal/matcher"
	"docingest/internal/scanner"
	"docingest/internal/services"
	"docingest/internal/store"
)

// Resolver maps a file to an employee.
type Resolver interface {
	Resolve(ctx context.Context, fd scanner.FileDescriptor) matcher.Result
}

// Persister records a stored document.
type Persister interface {
	InsertDocument(ctx context.Context, doc *store.Document) error
}

// Manager processes single files. It is safe for concurrent use when its
// collaborators are.
type Manager struct {
	resolver Resolver
	content  ContentStore
	persist  Persister
	dedup    *DedupSet
	runID    string
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager wires a Manager. A nil dedup set starts empty and a nil logger
// discards output.
func NewManager(resolver Resolver, content ContentStore, persist Persister, dedup *DedupSet, runID string, logger *slog.Logger) *Manager {
	if dedup == nil {
		dedup = NewDedupSet()
	}
	if content == nil {
		content = MetadataStore{}
	}
	return &Manager{
		resolver: resolver,
		content:  content,
		persist:  persist,
		dedup:    dedup,
		runID:    runID,
		logger:   logging.NewComponentLogger(logger, "ingest"),
		now:      time.Now,
	}
}

// Dedup exposes the run's dedup set.
func (m *Manager) Dedup() *DedupSet {
	return m.dedup
}

// UploadFile runs the duplicate check, resolution, storage, and persistence
// steps for fd.
func (m *Manager) UploadFile(ctx context.Context, fd scanner.FileDescriptor) Outcome {
	start := m.now()
	ctx = services.WithFile(ctx, fd.Path)
	logger := logging.WithContext(ctx, m.logger)
	elapsed := func() time.Duration { return m.now().Sub(start) }

	if !m.dedup.Claim(fd.Fingerprint) {
		logger.Debug("duplicate fingerprint", logging.String("fingerprint", fd.Fingerprint))
		return Outcome{File: fd, Status: StatusDuplicate, Reason: "fingerprint already processed", Duration: elapsed()}
	}

	result := m.resolver.Resolve(ctx, fd)
	if !result.Matched() {
		m.dedup.Release(fd.Fingerprint)
		logger.Info("file unmatched",
			logging.String("reason", result.Reason),
			logging.String(logging.FieldEventType, "file_unmatched"),
		)
		return Outcome{File: fd, Status: StatusUnmatched, Reason: result.Reason, Match: result, Duration: elapsed()}
	}
	owner := *result.Employee

	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(fd.Path); err == nil {
		contentType = mtype.String()
	}

	fail := func(op string, err error) Outcome {
		m.dedup.Release(fd.Fingerprint)
		logging.ErrorWithContext(logger, "document "+op+" failed", "file_failed",
			logging.Int64("employee_id", owner.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the file is listed in the errors report; rerun to retry it"),
		)
		out := ErrorOutcome(fd, err, elapsed())
		out.Matched = true
		out.Employee = &owner
		out.Match = result
		out.ContentType = contentType
		return out
	}

	ref, err := m.content.Put(ctx, fd, owner)
	if err != nil {
		return fail("storage", err)
	}

	doc := &store.Document{
		RunID:        m.runID,
		EmployeeID:   owner.ID,
		FileName:     fd.DisplayName,
		OriginalPath: fd.Path,
		Fingerprint:  fd.Fingerprint,
		SizeBytes:    fd.Size,
		ContentType:  contentType,
		StorageMode:  m.content.Mode(),
		StorageRef:   ref,
		MatchedVia:   string(result.Via),
		Score:        result.Score,
		Reason:       result.Reason,
	}
	if err := m.persist.InsertDocument(ctx, doc); err != nil {
		if errors.Is(err, services.ErrDuplicate) {
			m.dedup.Commit(fd.Fingerprint)
			logger.Debug("document already recorded", logging.String("fingerprint", fd.Fingerprint))
			return Outcome{
				File:     fd,
				Status:   StatusDuplicate,
				Matched:  true,
				Reason:   "document already recorded",
				Employee: &owner,
				Match:    result,
				Duration: elapsed(),
			}
		}
		return fail("persistence", err)
	}

	m.dedup.Commit(fd.Fingerprint)
	logger.Debug("document stored",
		logging.Int64("employee_id", owner.ID),
		logging.String("matched_via", string(result.Via)),
		logging.Float64("score", result.Score),
		logging.String("storage_ref", ref),
	)
	return Outcome{
		File:        fd,
		Status:      StatusUploaded,
		Matched:     true,
		Reason:      result.Reason,
		Employee:    &owner,
		Match:       result,
		StorageRef:  ref,
		ContentType: contentType,
		Duration:    elapsed(),
	}
}
