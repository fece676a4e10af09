package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"docingest/internal/config"
	"docingest/internal/extract"
	"docingest/internal/logging"
	"docingest/internal/registry"
	"docingest/internal/scanner"
	"docingest/internal/similarity"
)

// Via names the channel that produced a match.
type Via string

const (
	ViaNone       Via = "none"
	ViaIdentifier Via = "identifier"
	ViaName       Via = "name"
	ViaEmail      Via = "email"
)

// Result is the outcome of resolving one file.
type Result struct {
	Employee *registry.Employee `json:"employee,omitempty"`
	Via      Via                `json:"matched_via"`
	Score    float64            `json:"score"`
	Reason   string             `json:"reason"`
	// Evidence is the identifier, candidate, or email that matched, or the
	// nearest candidate for an unmatched file.
	Evidence string `json:"evidence,omitempty"`
}

// Matched reports whether an employee was found.
func (r Result) Matched() bool {
	return r.Employee != nil
}

// Options configures a Matcher.
type Options struct {
	MinScore float64
	// CacheKey is config.CacheKeyNameSize or config.CacheKeyFingerprint.
	CacheKey string
	// Text supplies document content for candidate extraction. Nil disables it.
	Text extract.TextExtractor
}

// OptionsFromConfig builds matcher options. Content extraction uses the
// plain-text extractor when enabled.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		MinScore: cfg.Ingest.MinSimilarity,
		CacheKey: cfg.Ingest.CacheKey,
	}
	if cfg.Ingest.ContentExtraction {
		opts.Text = extract.PlainText{}
	}
	return opts
}

// Matcher resolves files against an immutable registry snapshot. It is safe
// for concurrent use.
type Matcher struct {
	registry *registry.Registry
	opts     Options
	logger   *slog.Logger

	mu     sync.RWMutex
	cache  map[string]Result
	flight singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// New constructs a Matcher. A nil logger discards output.
func New(reg *registry.Registry, opts Options, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Text == nil {
		opts.Text = extract.Nop{}
	}
	return &Matcher{
		registry: reg,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "matcher"),
		cache:    make(map[string]Result),
	}
}

// CacheKey returns the cache key used for fd.
func (m *Matcher) CacheKey(fd scanner.FileDescriptor) string {
	if m.opts.CacheKey == config.CacheKeyFingerprint {
		return "fp|" + fd.Fingerprint
	}
	return "ns|" + fd.DisplayName + "|" + strconv.FormatInt(fd.Size, 10)
}

// Resolve returns the cached resolution for fd, computing it on first use.
func (m *Matcher) Resolve(ctx context.Context, fd scanner.FileDescriptor) Result {
	key := m.CacheKey(fd)

	m.mu.RLock()
	cached, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		m.hits.Add(1)
		return cached
	}

	v, _, shared := m.flight.Do(key, func() (any, error) {
		m.mu.RLock()
		cached, ok := m.cache[key]
		m.mu.RUnlock()
		if ok {
			return flightResult{result: cached, cached: true}, nil
		}
		result := m.resolve(ctx, fd)
		m.mu.Lock()
		m.cache[key] = result
		m.mu.Unlock()
		return flightResult{result: result}, nil
	})
	fr := v.(flightResult)
	if shared || fr.cached {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	return fr.result
}

type flightResult struct {
	result Result
	cached bool
}

// CacheStats returns cache hit and miss counts.
func (m *Matcher) CacheStats() (hits, misses int64) {
	return m.hits.Load(), m.misses.Load()
}

func (m *Matcher) resolve(ctx context.Context, fd scanner.FileDescriptor) Result {
	text := m.text(ctx, fd)

	for _, id := range extract.Identifiers(fd.DisplayName, text) {
		if e, ok := m.registry.ByIdentifier(id); ok {
			return m.found(fd, Result{
				Employee: &e,
				Via:      ViaIdentifier,
				Score:    1,
				Reason:   fmt.Sprintf("identifier %s matches employee %d", id, e.ID),
				Evidence: id,
			})
		}
	}

	candidates := extract.Candidates(fd.DisplayName, text)
	best, haveBest := similarity.BestMatchText(similarity.PrepareAll(candidates), m.registry.PreparedNames(), 0)
	if haveBest && best.Score >= m.opts.MinScore {
		e := m.registry.At(best.TargetIndex)
		return m.found(fd, Result{
			Employee: &e,
			Via:      ViaName,
			Score:    best.Score,
			Reason:   fmt.Sprintf("name %q matches %q (score %.3f)", best.Candidate, best.Target, best.Score),
			Evidence: best.Candidate,
		})
	}

	for _, email := range extract.Emails(fd.DisplayName) {
		if e, ok := m.registry.ByEmail(email); ok {
			return m.found(fd, Result{
				Employee: &e,
				Via:      ViaEmail,
				Score:    1,
				Reason:   fmt.Sprintf("email %s matches employee %d", email, e.ID),
				Evidence: email,
			})
		}
	}

	result := Result{Via: ViaNone}
	switch {
	case len(candidates) == 0:
		result.Reason = "no name candidates found"
	case !haveBest:
		result.Reason = "no employees to compare against"
	default:
		result.Score = best.Score
		result.Evidence = best.Candidate
		result.Reason = fmt.Sprintf("best candidate %q scored %.3f against %q, below %.2f",
			best.Candidate, best.Score, best.Target, m.opts.MinScore)
	}
	m.logger.Debug("file unmatched",
		logging.String(logging.FieldFile, fd.Path),
		logging.String("reason", result.Reason),
	)
	return result
}

func (m *Matcher) found(fd scanner.FileDescriptor, r Result) Result {
	m.logger.Debug("file matched",
		logging.String(logging.FieldFile, fd.Path),
		logging.String("matched_via", string(r.Via)),
		logging.Int64("employee_id", r.Employee.ID),
		logging.Float64("score", r.Score),
	)
	return r
}

func (m *Matcher) text(ctx context.Context, fd scanner.FileDescriptor) string {
	text, err := m.opts.Text.ExtractText(ctx, fd.Path)
	if err != nil {
		logging.WarnWithContext(m.logger, "content extraction failed", "content_extraction_failed",
			logging.String(logging.FieldFile, fd.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "matching uses the filename only"),
			logging.String(logging.FieldErrorHint, "check the file is readable or disable ingest.content_extraction"),
		)
		return ""
	}
	return text
}
