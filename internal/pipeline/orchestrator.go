package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docingest/internal/config"
	"docingest/internal/extract"
	"docingest/internal/ingest"
	"docingest/internal/logging"
	"docingest/internal/matcher"
	"docingest/internal/preflight"
	"docingest/internal/progress"
	"docingest/internal/registry"
	"docingest/internal/report"
	"docingest/internal/scanner"
	"docingest/internal/services"
	"docingest/internal/store"
	"docingest/internal/transport"
)

// Options adjusts a single run.
type Options struct {
	Root string
	// Output receives live progress. Defaults to stderr.
	Output io.Writer
	// Registry overrides the configured employee source.
	Registry registry.Source
	// Dialer overrides the configured transport in remote mode.
	Dialer transport.Dialer
	// Text overrides the configured content extractor.
	Text extract.TextExtractor
}

// Summary is the result of a completed or interrupted run.
type Summary struct {
	RunID       string
	Stats       progress.Stats
	Scan        scanner.Stats
	Reports     []string
	Interrupted bool
	CacheHits   int64
	CacheMisses int64
}

// abortWait bounds how long a run waits for workers after the grace period
// ended and their work was cancelled.
const abortWait = 5 * time.Second

// Orchestrator runs batches. One Orchestrator runs one batch at a time.
type Orchestrator struct {
	cfg       *config.Config
	logger    *slog.Logger
	state     atomic.Int32
	abortWait time.Duration

	// process is swapped in tests to inject worker failures.
	process func(ctx context.Context, mgr *ingest.Manager, fd scanner.FileDescriptor) ingest.Outcome
}

// New constructs an Orchestrator.
func New(cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		abortWait: abortWait,
		process: func(ctx context.Context, mgr *ingest.Manager, fd scanner.FileDescriptor) ingest.Outcome {
			return mgr.UploadFile(ctx, fd)
		},
	}
}

// State returns the current lifecycle phase.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(s State) {
	prev := State(o.state.Swap(int32(s)))
	if prev != s {
		o.logger.Debug("state changed", logging.String("from", prev.String()), logging.String("to", s.String()))
	}
}

// Run executes one batch over opts.Root. Cancelling ctx stops dispatch; files
// already in flight get the configured grace period before the transport is
// force-closed.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Summary, error) {
	if o.State() != StateIdle && o.State() != StateDone {
		return nil, errors.New("run already in progress")
	}
	o.setState(StateIdle)
	cfg := o.cfg

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Fatal("pipeline", "prepare directories", err)
	}
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Fatal("pipeline", "acquire lock", err)
	}
	if !locked {
		return nil, services.Fatal("pipeline", "acquire lock", fmt.Errorf("another run holds %s", cfg.LockPath()))
	}
	defer func() { _ = lock.Unlock() }()

	results := preflight.RunAll(cfg, opts.Root)
	for _, r := range results {
		logger.Debug("preflight", logging.String("check", r.Name), logging.Bool("passed", r.Passed), logging.String("detail", r.Detail))
	}
	if err := preflight.Failed(results); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, services.Fatal("pipeline", "open store", err)
	}
	defer st.Close()

	source := opts.Registry
	if source == nil {
		source = registrySource(cfg, st)
	}
	reg, err := registry.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	if reg.Len() == 0 {
		logging.WarnWithContext(logger, "employee registry is empty", "registry_empty",
			logging.String(logging.FieldImpact, "every file will be reported as unmatched"),
			logging.String(logging.FieldErrorHint, "import employees with 'docingest employees import'"),
		)
	}
	logger.Info("registry loaded", logging.Int("employees", reg.Len()))

	var uploader *transport.Uploader
	if cfg.Ingest.StorageMode == config.StorageModeRemote {
		dial := opts.Dialer
		if dial == nil {
			if dial, err = transport.DialerFromConfig(cfg); err != nil {
				return nil, services.Fatal("pipeline", "configure transport", err)
			}
		}
		uploader = transport.NewUploader(dial, nil, logger)
		if err := uploader.Probe(ctx); err != nil {
			uploader.Abort()
			return nil, services.Fatal("pipeline", "connect transport", err)
		}
		defer uploader.Close()
	}

	fingerprints, err := st.Fingerprints(ctx)
	if err != nil {
		return nil, services.Fatal("pipeline", "load fingerprints", err)
	}
	dedup := ingest.NewDedupSet()
	dedup.Seed(fingerprints)

	var contentUploader ingest.Uploader
	if uploader != nil {
		contentUploader = uploader
	}
	content, err := ingest.ContentStoreFromConfig(cfg, contentUploader)
	if err != nil {
		return nil, services.Fatal("pipeline", "configure storage", err)
	}
	matchOpts := matcher.OptionsFromConfig(cfg)
	if opts.Text != nil {
		matchOpts.Text = opts.Text
	}
	m := matcher.New(reg, matchOpts, logger)
	mgr := ingest.NewManager(m, content, st, dedup, runID, logger)

	o.setState(StateScanning)
	sc := scanner.New(scanner.OptionsFromConfig(cfg), logger)
	files, scanStats, err := sc.Scan(ctx, opts.Root)
	if err != nil && ctx.Err() == nil {
		o.setState(StateDone)
		return nil, err
	}

	monitor := progress.New(progress.Options{
		Live:         cfg.Progress.Live,
		Interval:     cfg.ProgressInterval(),
		Output:       opts.Output,
		KeepOutcomes: cfg.Reports.Enabled && cfg.Reports.Details,
	}, logger)
	monitor.Start(runID, files, scanStats)
	logger.Info("scan complete",
		logging.Int("files", len(files)),
		logging.Int("skipped", scanStats.SkippedTotal()),
		logging.Int64("bytes", scanStats.AcceptedBytes),
		logging.Int("previously_recorded", dedup.Len()),
	)

	interrupted := ctx.Err() != nil
	if !interrupted {
		o.setState(StateUploading)
		interrupted = o.dispatch(ctx, logger, files, mgr, monitor, uploader)
	}

	o.setState(StateDraining)
	if uploader != nil {
		_ = uploader.Close()
	}
	if interrupted {
		monitor.MarkInterrupted()
	}
	stats := monitor.Finish()
	hits, misses := m.CacheStats()

	summary := &Summary{
		RunID:       runID,
		Stats:       stats,
		Scan:        scanStats,
		Interrupted: interrupted,
		CacheHits:   hits,
		CacheMisses: misses,
	}
	if cfg.Reports.Enabled {
		run := report.Run{Stats: stats, Matches: monitor.Matches(), Failures: monitor.Failures()}
		if cfg.Reports.Details {
			run.Details = monitor.Outcomes()
		}
		paths, err := report.NewWriter(cfg.Paths.ReportsDir).WriteRun(run)
		summary.Reports = paths
		if err != nil {
			logging.WarnWithContext(logger, "report write failed", "report_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some JSON artifacts are missing for this run"),
				logging.String(logging.FieldErrorHint, "check paths.reports_dir is writable"),
			)
		}
	}

	logger.Info("run finished",
		logging.Int("processed", stats.Processed),
		logging.Int("uploaded", stats.Uploaded),
		logging.Int("unmatched", stats.Unmatched),
		logging.Int("duplicates", stats.Duplicates),
		logging.Int("errors", stats.Errors),
		logging.Bool("interrupted", interrupted),
		logging.Duration("elapsed", stats.Elapsed),
	)
	o.setState(StateDone)
	return summary, nil
}

// dispatch runs the worker pool over files. It reports whether the run was
// interrupted before every file was claimed.
func (o *Orchestrator) dispatch(
	ctx context.Context,
	logger *slog.Logger,
	files []scanner.FileDescriptor,
	mgr *ingest.Manager,
	monitor *progress.Monitor,
	uploader *transport.Uploader,
) bool {
	workers := config.ClampWorkers(o.cfg.Ingest.Workers)
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	// In-flight files keep running after an interrupt until the grace
	// period ends.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	var (
		cursor    atomic.Int64
		mu        sync.Mutex
		inFlight  = make(map[int]time.Time)
		abandoned bool
	)
	var g errgroup.Group
	for w := 1; w <= workers; w++ {
		wctx := services.WithWorker(workCtx, w)
		g.Go(func() error {
			for ctx.Err() == nil {
				i := int(cursor.Add(1) - 1)
				if i >= len(files) {
					return nil
				}
				fd := files[i]
				mu.Lock()
				if abandoned {
					mu.Unlock()
					return nil
				}
				inFlight[i] = time.Now()
				mu.Unlock()

				out := o.safeProcess(wctx, mgr, fd)

				mu.Lock()
				if !abandoned {
					delete(inFlight, i)
					monitor.Record(fd, out)
				}
				mu.Unlock()
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return ctx.Err() != nil && int(cursor.Load()) < len(files)
	case <-ctx.Done():
	}

	o.setState(StateDraining)
	grace := o.cfg.GracePeriod()
	logger.Info("interrupt received; waiting for in-flight files",
		logging.String(logging.FieldEventType, "run_interrupted"),
		logging.Duration("grace_period", grace),
	)
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
	}

	logging.WarnWithContext(logger, "grace period elapsed; aborting in-flight files", "grace_expired",
		logging.String(logging.FieldImpact, "files still in flight are reported as errors"),
		logging.String(logging.FieldErrorHint, "rerun the batch; recorded documents are skipped as duplicates"),
	)
	cancelWork()
	if uploader != nil {
		uploader.Abort()
	}
	wait := time.NewTimer(o.abortWait)
	defer wait.Stop()
	select {
	case <-done:
		return true
	case <-wait.C:
	}

	mu.Lock()
	defer mu.Unlock()
	abandoned = true
	for i, started := range inFlight {
		fd := files[i]
		err := services.Wrap(services.ErrTransient, "pipeline", "drain", "abandoned after grace period", context.Canceled)
		logging.ErrorWithContext(logger, "file abandoned", "file_abandoned",
			logging.String(logging.FieldFile, fd.Path),
			logging.String(logging.FieldErrorHint, "rerun the batch to retry this file"),
		)
		monitor.Record(fd, ingest.ErrorOutcome(fd, err, time.Since(started)))
	}
	return true
}

// safeProcess turns a panic while processing fd into an error outcome.
func (o *Orchestrator) safeProcess(ctx context.Context, mgr *ingest.Manager, fd scanner.FileDescriptor) (out ingest.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while processing file: %v", r)
			logging.ErrorWithContext(logging.WithContext(ctx, o.logger), "worker recovered from panic", "worker_panic",
				logging.String(logging.FieldFile, fd.Path),
				logging.Error(err),
			)
			out = ingest.ErrorOutcome(fd, err, time.Since(start))
		}
	}()
	return o.process(ctx, mgr, fd)
}

func registrySource(cfg *config.Config, st *store.Store) registry.Source {
	if cfg.Registry.Source == config.RegistrySourceJSON {
		return registry.JSONSource{Path: cfg.Registry.JSONPath}
	}
	return st
}
