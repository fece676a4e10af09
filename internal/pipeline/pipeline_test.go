package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"docingest/internal/config"
	"docingest/internal/ingest"
	"docingest/internal/registry"
	"docingest/internal/scanner"
	"docingest/internal/services"
	"docingest/internal/testsupport"
	"docingest/internal/transport"
)

func seededConfig(t *testing.T, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedEmployees(t, st,
		registry.Employee{ID: 7, Name: "João Silva", TaxID: "123.456.789-00"},
		registry.Employee{ID: 9, Name: "Maria Oliveira"},
	)
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func mixedRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(root, "JOAO_SILVA_contrato.pdf"))
	testsupport.WriteFile(t, filepath.Join(root, "sub", "vazio.pdf"), 0)
	testsupport.WriteText(t, filepath.Join(root, "sub", "notes.exe"), "binary")
	if err := os.Symlink(filepath.Join(root, "missing.pdf"), filepath.Join(root, "perdido.pdf")); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestRunMixedDirectory(t *testing.T) {
	cfg := seededConfig(t)
	o := New(cfg, nil)

	sum, err := o.Run(context.Background(), Options{Root: mixedRoot(t), Output: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := sum.Stats
	if s.Total != 1 || s.Processed != 1 || s.Uploaded != 1 || s.Matched != 1 {
		t.Fatalf("stats = %+v", s)
	}
	if sum.Scan.SkippedTotal() != 3 {
		t.Fatalf("skipped = %v", sum.Scan.Skipped)
	}
	if !s.Balanced() || sum.Interrupted {
		t.Fatalf("summary = %+v", sum)
	}
	if len(sum.Reports) != 3 {
		t.Fatalf("reports = %v", sum.Reports)
	}
	if o.State() != StateDone {
		t.Fatalf("state = %v", o.State())
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := seededConfig(t)
	root := mixedRoot(t)
	testsupport.WritePDF(t, filepath.Join(root, "Maria Oliveira - ficha.pdf"))
	testsupport.WritePDF(t, filepath.Join(root, "12345678900.pdf"))

	first, err := New(cfg, nil).Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	if first.Stats.Uploaded != 3 {
		t.Fatalf("first run = %+v", first.Stats)
	}

	second, err := New(cfg, nil).Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	if second.Stats.Uploaded != 0 || second.Stats.Duplicates != 3 || second.Stats.Processed != 3 {
		t.Fatalf("second run = %+v", second.Stats)
	}

	st := testsupport.MustOpenStore(t, cfg)
	if n, _ := st.CountDocuments(context.Background()); n != 3 {
		t.Fatalf("documents = %d, want 3", n)
	}
}

func TestRunRecoversWorkerPanic(t *testing.T) {
	cfg := seededConfig(t, testsupport.WithWorkers(3))
	root := t.TempDir()
	for _, name := range []string{"JOAO_SILVA_1.pdf", "JOAO_SILVA_2.pdf", "boom.pdf", "Maria_Oliveira.pdf"} {
		testsupport.WritePDF(t, filepath.Join(root, name))
	}

	o := New(cfg, nil)
	inner := o.process
	o.process = func(ctx context.Context, mgr *ingest.Manager, fd scanner.FileDescriptor) ingest.Outcome {
		if fd.DisplayName == "boom.pdf" {
			panic("extractor exploded")
		}
		return inner(ctx, mgr, fd)
	}

	sum, err := o.Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("per-file panics must not fail the run: %v", err)
	}
	if sum.Stats.Processed != 4 || sum.Stats.Uploaded != 3 || sum.Stats.Errors != 1 {
		t.Fatalf("stats = %+v", sum.Stats)
	}
}

func TestRunInterrupted(t *testing.T) {
	cfg := seededConfig(t, testsupport.WithWorkers(1))
	root := t.TempDir()
	for _, name := range []string{"JOAO_SILVA_1.pdf", "JOAO_SILVA_2.pdf", "JOAO_SILVA_3.pdf", "JOAO_SILVA_4.pdf"} {
		testsupport.WritePDF(t, filepath.Join(root, name))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o := New(cfg, nil)
	inner := o.process
	o.process = func(wctx context.Context, mgr *ingest.Manager, fd scanner.FileDescriptor) ingest.Outcome {
		cancel()
		return inner(wctx, mgr, fd)
	}

	sum, err := o.Run(ctx, Options{Root: root})
	if err != nil {
		t.Fatalf("interrupted runs are not failures: %v", err)
	}
	if !sum.Interrupted || !sum.Stats.Interrupted {
		t.Fatal("run should be marked interrupted")
	}
	// The in-flight file finishes; nothing else is claimed.
	if sum.Stats.Processed != 1 || sum.Stats.Uploaded != 1 || sum.Stats.Total != 4 {
		t.Fatalf("stats = %+v", sum.Stats)
	}
}

func TestRunGraceExpiredAbandonsStuckFile(t *testing.T) {
	cfg := seededConfig(t, testsupport.WithWorkers(1))
	root := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(root, "JOAO_SILVA_1.pdf"))
	testsupport.WritePDF(t, filepath.Join(root, "JOAO_SILVA_2.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	o := New(cfg, nil)
	o.abortWait = 50 * time.Millisecond
	o.process = func(context.Context, *ingest.Manager, scanner.FileDescriptor) ingest.Outcome {
		cancel()
		<-release
		return ingest.Outcome{Status: ingest.StatusUploaded}
	}

	start := time.Now()
	sum, err := o.Run(ctx, Options{Root: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > cfg.GracePeriod()+2*time.Second {
		t.Fatalf("Run returned after %s with a %s grace period", elapsed, cfg.GracePeriod())
	}
	s := sum.Stats
	if !s.Interrupted || s.Processed != 1 || s.Errors != 1 || s.ErrorsByClass["transient"] != 1 || s.Uploaded != 0 {
		t.Fatalf("stats = %+v", s)
	}
	if !s.Balanced() {
		t.Fatal("abandoned files must keep the counters balanced")
	}
}

type stuckSession struct {
	cancelled atomic.Bool
	closed    atomic.Bool
}

func (s *stuckSession) Store(ctx context.Context, _ transport.Object) (string, error) {
	<-ctx.Done()
	s.cancelled.Store(true)
	return "", ctx.Err()
}

func (s *stuckSession) Close() error {
	s.closed.Store(true)
	return nil
}

func TestRunGraceExpiredForceClosesTransport(t *testing.T) {
	cfg := seededConfig(t, testsupport.WithWorkers(1), testsupport.WithStorageMode(config.StorageModeRemote))
	root := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(root, "JOAO_SILVA_contrato.pdf"))

	session := &stuckSession{}
	dial := func(context.Context) (transport.Session, error) { return session, nil }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o := New(cfg, nil)
	inner := o.process
	o.process = func(wctx context.Context, mgr *ingest.Manager, fd scanner.FileDescriptor) ingest.Outcome {
		cancel()
		return inner(wctx, mgr, fd)
	}

	start := time.Now()
	sum, err := o.Run(ctx, Options{Root: root, Dialer: dial})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < cfg.GracePeriod() {
		t.Fatalf("upload aborted after %s, before the %s grace period", elapsed, cfg.GracePeriod())
	}
	if sum.Stats.Errors != 1 || sum.Stats.Uploaded != 0 || !sum.Interrupted {
		t.Fatalf("stats = %+v", sum.Stats)
	}
	deadline := time.Now().Add(5 * time.Second)
	for !session.closed.Load() {
		if time.Now().After(deadline) {
			t.Fatal("transport session was not closed")
		}
		time.Sleep(time.Millisecond)
	}
	if !session.cancelled.Load() {
		t.Fatal("in-flight remote command should be cancelled")
	}
}

func TestRunRemoteTransport(t *testing.T) {
	cfg := seededConfig(t, testsupport.WithStorageMode(config.StorageModeRemote))
	cfg.Transport.Kind = config.TransportLocal
	root := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(root, "JOAO_SILVA_contrato.pdf"))

	sum, err := New(cfg, nil).Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Stats.Uploaded != 1 {
		t.Fatalf("stats = %+v", sum.Stats)
	}
	entries, err := os.ReadDir(cfg.Transport.RemoteDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("remote dir entries = %v, %v", entries, err)
	}
}

func TestRunFatalStartup(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		cfg := seededConfig(t)
		_, err := New(cfg, nil).Run(context.Background(), Options{Root: filepath.Join(t.TempDir(), "nope")})
		if !services.IsFatal(err) {
			t.Fatalf("err = %v, want fatal", err)
		}
	})

	t.Run("registry unavailable", func(t *testing.T) {
		cfg := testsupport.NewConfig(t)
		_, err := New(cfg, nil).Run(context.Background(), Options{Root: t.TempDir(), Registry: failingSource{}})
		if !services.IsFatal(err) {
			t.Fatalf("err = %v, want fatal", err)
		}
	})

	t.Run("transport unreachable", func(t *testing.T) {
		cfg := seededConfig(t, testsupport.WithStorageMode(config.StorageModeRemote))
		dial := func(context.Context) (transport.Session, error) { return nil, errors.New("connection refused") }
		_, err := New(cfg, nil).Run(context.Background(), Options{Root: t.TempDir(), Dialer: dial})
		if !services.IsFatal(err) {
			t.Fatalf("err = %v, want fatal", err)
		}
	})

	t.Run("lock held", func(t *testing.T) {
		cfg := seededConfig(t)
		lock := flock.New(cfg.LockPath())
		if ok, err := lock.TryLock(); err != nil || !ok {
			t.Fatalf("TryLock = %v, %v", ok, err)
		}
		defer lock.Unlock()
		_, err := New(cfg, nil).Run(context.Background(), Options{Root: t.TempDir()})
		if !services.IsFatal(err) {
			t.Fatalf("err = %v, want fatal", err)
		}
	})
}

func TestRunEmptyRegistry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(root, "JOAO_SILVA.pdf"))

	sum, err := New(cfg, nil).Run(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Stats.Unmatched != 1 || sum.Stats.Uploaded != 0 {
		t.Fatalf("stats = %+v", sum.Stats)
	}
}

type failingSource struct{}

func (failingSource) ListActiveEmployees(context.Context) ([]registry.Employee, error) {
	return nil, errors.New("registry database unreachable")
}
