package progress

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"docingest/internal/ingest"
	"docingest/internal/logging"
	"docingest/internal/scanner"
)

// Options configures a Monitor.
type Options struct {
	// Live enables periodic progress output.
	Live bool
	// Interval is the minimum delay between two redraws.
	Interval time.Duration
	// Output receives the redraw line. A terminal gets carriage-return
	// redraws; anything else gets periodic log lines.
	Output io.Writer
	// KeepOutcomes retains every outcome for detailed reports. Errors and
	// matches are always kept.
	KeepOutcomes bool
}

// Monitor aggregates outcomes into Stats. It is safe for concurrent use.
type Monitor struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time
	tty    bool

	mu         sync.Mutex
	stats      Stats
	matches    []ingest.Outcome
	failures   []ingest.Outcome
	all        []ingest.Outcome
	lastRender time.Time
	drawn      bool
	finished   bool
}

// New constructs a Monitor.
func New(opts Options, logger *slog.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return &Monitor{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "progress"),
		now:    time.Now,
		tty:    isTerminal(opts.Output),
		stats: Stats{
			ByVia:         make(map[string]int),
			ErrorsByClass: make(map[string]int),
		},
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Start records the scanned workload and starts the clock.
func (m *Monitor) Start(runID string, files []scanner.FileDescriptor, scanned scanner.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.RunID = runID
	m.stats.Total = len(files)
	m.stats.TotalBytes = 0
	for _, fd := range files {
		m.stats.TotalBytes += fd.Size
	}
	m.stats.Skipped = scanned.SkippedTotal()
	m.stats.StartedAt = m.now()
	m.lastRender = time.Time{}
}

// Record applies one outcome. It is the only mutator of the counters.
// Outcomes arriving after Finish are dropped and Record returns false.
func (m *Monitor) Record(fd scanner.FileDescriptor, out ingest.Outcome) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished {
		m.logger.Debug("outcome after finish dropped", logging.String(logging.FieldFile, fd.Path))
		return false
	}

	s := &m.stats
	s.Processed++
	s.BytesProcessed += fd.Size
	if out.Matched {
		s.Matched++
	}
	switch out.Status {
	case ingest.StatusUploaded:
		s.Uploaded++
		s.BytesUploaded += fd.Size
		s.ByVia[string(out.Match.Via)]++
		m.matches = append(m.matches, out)
	case ingest.StatusUnmatched:
		s.Unmatched++
	case ingest.StatusDuplicate:
		s.Duplicates++
	default:
		s.Errors++
		class := out.ErrorCategory
		if class == "" {
			class = "unknown"
		}
		s.ErrorsByClass[class]++
		m.failures = append(m.failures, out)
	}
	if m.opts.KeepOutcomes {
		m.all = append(m.all, out)
	}

	now := m.now()
	if m.opts.Live && (s.Processed == s.Total || now.Sub(m.lastRender) >= m.opts.Interval) {
		m.lastRender = now
		m.render(now)
	}
	return true
}

// MarkInterrupted flags the run as stopped before all files were processed.
func (m *Monitor) MarkInterrupted() {
	m.mu.Lock()
	m.stats.Interrupted = true
	m.mu.Unlock()
}

// Snapshot returns a copy of the current statistics with derived rates.
func (m *Monitor) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.stats.clone()
	out.derive(m.now())
	return out
}

// Matches returns the uploaded outcomes in record order.
func (m *Monitor) Matches() []ingest.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ingest.Outcome(nil), m.matches...)
}

// Failures returns the error outcomes in record order.
func (m *Monitor) Failures() []ingest.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ingest.Outcome(nil), m.failures...)
}

// Outcomes returns every outcome when KeepOutcomes is set.
func (m *Monitor) Outcomes() []ingest.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ingest.Outcome(nil), m.all...)
}

// Finish terminates the live line, stops accepting outcomes, and returns the
// final snapshot.
func (m *Monitor) Finish() Stats {
	m.mu.Lock()
	m.finished = true
	if m.opts.Live && m.tty && m.drawn {
		_, _ = io.WriteString(m.opts.Output, "\n")
	}
	m.mu.Unlock()
	return m.Snapshot()
}

// render is called with mu held.
func (m *Monitor) render(now time.Time) {
	snap := m.stats.clone()
	snap.derive(now)
	if m.tty {
		_, _ = io.WriteString(m.opts.Output, "\r\x1b[K"+FormatLine(snap))
		m.drawn = true
		return
	}
	m.logger.Info("progress",
		logging.String(logging.FieldEventType, "progress"),
		logging.Int("processed", snap.Processed),
		logging.Int("total", snap.Total),
		logging.Int("uploaded", snap.Uploaded),
		logging.Int("unmatched", snap.Unmatched),
		logging.Int("duplicates", snap.Duplicates),
		logging.Int("errors", snap.Errors),
		logging.Int64("bytes_processed", snap.BytesProcessed),
		logging.Float64("files_per_second", snap.FilesPerSecond),
		logging.Duration("eta", snap.ETA),
	)
}
