package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docingest/internal/config"
	"docingest/internal/ingest"
	"docingest/internal/matcher"
	"docingest/internal/registry"
	"docingest/internal/scanner"
	"docingest/internal/services"
	"docingest/internal/store"
	"docingest/internal/testsupport"
	"docingest/internal/transport"
)

func newMatcher() *matcher.Matcher {
	reg := registry.New([]registry.Employee{
		{ID: 7, Name: "João Silva", TaxID: "12345678900"},
		{ID: 9, Name: "Maria Oliveira"},
	})
	return matcher.New(reg, matcher.Options{MinScore: 0.7, CacheKey: config.CacheKeyFingerprint}, nil)
}

func descriptor(t *testing.T, dir, name, fingerprint string) scanner.FileDescriptor {
	t.Helper()
	path := filepath.Join(dir, name)
	testsupport.WritePDF(t, path)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return scanner.FileDescriptor{
		Path:        path,
		DisplayName: name,
		Extension:   filepath.Ext(name),
		Size:        info.Size(),
		ModifiedAt:  info.ModTime(),
		Fingerprint: fingerprint,
	}
}

type countingPersister struct {
	inner  ingest.Persister
	calls  atomic.Int32
	failOn int32
}

func (p *countingPersister) InsertDocument(ctx context.Context, doc *store.Document) error {
	n := p.calls.Add(1)
	if n == p.failOn {
		return services.Wrap(services.ErrExternal, "store", "insert document", "injected failure", errors.New("disk I/O error"))
	}
	return p.inner.InsertDocument(ctx, doc)
}

func TestDedupSet(t *testing.T) {
	d := ingest.NewDedupSet()
	d.Seed([]string{"a", ""})
	if !d.Contains("a") || d.Len() != 1 {
		t.Fatalf("seeded set: contains=%v len=%d", d.Contains("a"), d.Len())
	}
	if d.Claim("a") {
		t.Fatal("committed fingerprint must not be claimable")
	}
	if !d.Claim("b") || d.Claim("b") {
		t.Fatal("a fingerprint may be claimed once")
	}
	d.Release("b")
	if !d.Claim("b") {
		t.Fatal("released fingerprint should be claimable again")
	}
	d.Commit("b")
	if !d.Contains("b") || d.Claim("b") || d.Len() != 2 {
		t.Fatal("committed fingerprint should stay in the set")
	}
}

func TestUploadFileMatchedIsRecorded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mgr := ingest.NewManager(newMatcher(), ingest.MetadataStore{}, st, nil, "run-1", nil)

	fd := descriptor(t, t.TempDir(), "JOAO_SILVA_contrato.pdf", "fp-1")
	out := mgr.UploadFile(context.Background(), fd)
	if out.Status != ingest.StatusUploaded || !out.Matched {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Employee == nil || out.Employee.ID != 7 {
		t.Fatalf("employee = %+v", out.Employee)
	}
	if out.Match.Via != matcher.ViaName || out.Match.Score < 0.7 {
		t.Fatalf("match = %+v", out.Match)
	}
	if out.ContentType != "application/pdf" {
		t.Fatalf("content type = %q", out.ContentType)
	}
	if out.StorageRef != fd.Path {
		t.Fatalf("metadata mode should record the source path, got %q", out.StorageRef)
	}

	docs, err := st.DocumentsByEmployee(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Fingerprint != "fp-1" || docs[0].RunID != "run-1" || docs[0].MatchedVia != "name" {
		t.Fatalf("stored documents = %+v", docs)
	}
	if !mgr.Dedup().Contains("fp-1") {
		t.Fatal("fingerprint should be committed")
	}
}

func TestUploadFileUnmatchedReleasesFingerprint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mgr := ingest.NewManager(newMatcher(), ingest.MetadataStore{}, st, nil, "run", nil)

	out := mgr.UploadFile(context.Background(), descriptor(t, t.TempDir(), "relatorio_geral_2019.pdf", "fp-u"))
	if out.Status != ingest.StatusUnmatched || out.Matched || out.Reason == "" {
		t.Fatalf("outcome = %+v", out)
	}
	if !out.Success() {
		t.Fatal("an unmatched file is an intentional skip and counts as success")
	}
	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	if fields["success"] != true || fields["matched"] != false || fields["status"] != "unmatched" {
		t.Fatalf("serialized outcome = %s", raw)
	}
	if mgr.Dedup().Contains("fp-u") || !mgr.Dedup().Claim("fp-u") {
		t.Fatal("unmatched fingerprint must not stay claimed")
	}
	if n, _ := st.CountDocuments(context.Background()); n != 0 {
		t.Fatalf("documents = %d, want 0", n)
	}
}

func TestUploadFileConcurrentSameFingerprint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mgr := ingest.NewManager(newMatcher(), ingest.MetadataStore{}, st, nil, "run", nil)
	dir := t.TempDir()

	for i := 0; i < 10; i++ {
		fd := descriptor(t, dir, fmt.Sprintf("JOAO_SILVA_%d.pdf", i), fmt.Sprintf("fp-%d", i))
		var wg sync.WaitGroup
		start := make(chan struct{})
		outs := make([]ingest.Outcome, 2)
		for w := 0; w < 2; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				<-start
				outs[w] = mgr.UploadFile(context.Background(), fd)
			}(w)
		}
		close(start)
		wg.Wait()

		statuses := map[ingest.Status]int{}
		for _, out := range outs {
			statuses[out.Status]++
		}
		if statuses[ingest.StatusUploaded] != 1 || statuses[ingest.StatusDuplicate] != 1 {
			t.Fatalf("round %d statuses = %v, want one uploaded and one duplicate", i, statuses)
		}
	}
	if n, _ := st.CountDocuments(context.Background()); n != 10 {
		t.Fatalf("documents = %d, want 10", n)
	}
}

func TestUploadFilePersistenceFailureIsScoped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	persist := &countingPersister{inner: st, failOn: 3}
	mgr := ingest.NewManager(newMatcher(), ingest.MetadataStore{}, persist, nil, "run", nil)
	dir := t.TempDir()

	const n = 5
	var failed scanner.FileDescriptor
	counts := map[ingest.Status]int{}
	for i := 0; i < n; i++ {
		fd := descriptor(t, dir, fmt.Sprintf("Maria_Oliveira_%d.pdf", i), fmt.Sprintf("fp-%d", i))
		out := mgr.UploadFile(context.Background(), fd)
		counts[out.Status]++
		if out.Status == ingest.StatusError {
			failed = fd
			if out.ErrorCategory != "external" || !out.Matched || out.Employee == nil || out.Employee.ID != 9 {
				t.Fatalf("error outcome = %+v", out)
			}
		}
	}
	if counts[ingest.StatusUploaded] != n-1 || counts[ingest.StatusError] != 1 {
		t.Fatalf("statuses = %v, want %d uploaded and 1 error", counts, n-1)
	}

	out := mgr.UploadFile(context.Background(), failed)
	if out.Status != ingest.StatusUploaded {
		t.Fatalf("retry after released claim = %+v", out)
	}
}

func TestUploadFileRecordedByEarlierRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	fd := descriptor(t, t.TempDir(), "JOAO_SILVA_ficha.pdf", "fp-prior")

	first := ingest.NewManager(newMatcher(), ingest.MetadataStore{}, st, nil, "run-1", nil)
	if out := first.UploadFile(context.Background(), fd); out.Status != ingest.StatusUploaded {
		t.Fatalf("first run = %+v", out)
	}

	// Unseeded set: the store's unique fingerprint catches it.
	second := ingest.NewManager(newMatcher(), ingest.MetadataStore{}, st, nil, "run-2", nil)
	out := second.UploadFile(context.Background(), fd)
	if out.Status != ingest.StatusDuplicate || !second.Dedup().Contains("fp-prior") {
		t.Fatalf("unseeded rerun = %+v", out)
	}

	fingerprints, err := st.Fingerprints(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	seeded := ingest.NewDedupSet()
	seeded.Seed(fingerprints)
	persist := &countingPersister{inner: st}
	third := ingest.NewManager(newMatcher(), ingest.MetadataStore{}, persist, seeded, "run-3", nil)
	if out := third.UploadFile(context.Background(), fd); out.Status != ingest.StatusDuplicate {
		t.Fatalf("seeded rerun = %+v", out)
	}
	if persist.calls.Load() != 0 {
		t.Fatal("seeded duplicate should not reach the store")
	}
}

func TestCopyStore(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStorageMode(config.StorageModeCopy))
	st := testsupport.MustOpenStore(t, cfg)
	content, err := ingest.ContentStoreFromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	mgr := ingest.NewManager(newMatcher(), content, st, nil, "run", nil)

	fd := descriptor(t, t.TempDir(), "JOAO_SILVA_contrato.pdf", "fp-copy")
	out := mgr.UploadFile(context.Background(), fd)
	if out.Status != ingest.StatusUploaded {
		t.Fatalf("outcome = %+v", out)
	}
	wantDir := filepath.Join(cfg.Paths.DocumentsDir, "7")
	if filepath.Dir(out.StorageRef) != wantDir || !strings.HasSuffix(out.StorageRef, "_joao_silva_contrato.pdf") {
		t.Fatalf("storage ref = %q", out.StorageRef)
	}
	src, _ := os.ReadFile(fd.Path)
	dst, err := os.ReadFile(out.StorageRef)
	if err != nil || string(src) != string(dst) {
		t.Fatalf("copied content mismatch: %v", err)
	}

	missing := fd
	missing.Path = filepath.Join(t.TempDir(), "gone.pdf")
	missing.Fingerprint = "fp-missing"
	out = mgr.UploadFile(context.Background(), missing)
	if out.Status != ingest.StatusError || out.ErrorCategory != "external" {
		t.Fatalf("missing source outcome = %+v", out)
	}
	if mgr.Dedup().Contains("fp-missing") {
		t.Fatal("failed copy must not commit the fingerprint")
	}
}

func TestRemoteStore(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStorageMode(config.StorageModeRemote))
	st := testsupport.MustOpenStore(t, cfg)
	uploader := transport.NewUploader(transport.DialLocal(transport.LocalOptions{Dir: cfg.Transport.RemoteDir}), nil, nil)
	defer uploader.Close()

	if _, err := ingest.ContentStoreFromConfig(cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("remote mode without uploader = %v", err)
	}
	content, err := ingest.ContentStoreFromConfig(cfg, uploader)
	if err != nil {
		t.Fatal(err)
	}
	mgr := ingest.NewManager(newMatcher(), content, st, nil, "run", nil)

	out := mgr.UploadFile(context.Background(), descriptor(t, t.TempDir(), "12345678900.pdf", "fp-remote"))
	if out.Status != ingest.StatusUploaded || out.Match.Via != matcher.ViaIdentifier {
		t.Fatalf("outcome = %+v", out)
	}
	if !strings.HasPrefix(out.StorageRef, "file://"+cfg.Transport.RemoteDir+"/7_") {
		t.Fatalf("storage ref = %q", out.StorageRef)
	}
	docs, _ := st.DocumentsByEmployee(context.Background(), 7)
	if len(docs) != 1 || docs[0].StorageMode != config.StorageModeRemote {
		t.Fatalf("documents = %+v", docs)
	}
}

func TestErrorOutcome(t *testing.T) {
	fd := scanner.FileDescriptor{Path: "/x.pdf"}
	out := ingest.ErrorOutcome(fd, services.Wrap(services.ErrValidation, "ingest", "check", "bad", nil), time.Second)
	if out.Status != ingest.StatusError || out.ErrorCategory != "validation" || out.Success() {
		t.Fatalf("outcome = %+v", out)
	}
	if ingest.ErrorOutcome(fd, nil, 0).Reason == "" {
		t.Fatal("nil error should still carry a reason")
	}
}
