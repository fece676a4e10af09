package matcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"docingest/internal/config"
	"docingest/internal/registry"
	"docingest/internal/scanner"
)

func testRegistry() *registry.Registry {
	return registry.New([]registry.Employee{
		{ID: 1, Name: "João Silva", TaxID: "123.456.789-00"},
		{ID: 2, Name: "Maria Souza", Badge: "4521"},
		{ID: 3, Name: "Pedro Alves", Email: "pedro@empresa.com"},
		{ID: 4, Name: "Beatriz Lima"},
	})
}

func descriptor(path string, size int64) scanner.FileDescriptor {
	name := path[strings.LastIndex(path, "/")+1:]
	return scanner.FileDescriptor{
		Path:        path,
		DisplayName: name,
		Size:        size,
		Fingerprint: "fp-" + path,
	}
}

func newMatcher(opts Options) *Matcher {
	if opts.MinScore == 0 {
		opts.MinScore = 0.7
	}
	return New(testRegistry(), opts, nil)
}

func TestResolveByName(t *testing.T) {
	m := newMatcher(Options{})
	r := m.Resolve(context.Background(), descriptor("/docs/JOAO_SILVA_contrato.pdf", 10))
	if !r.Matched() || r.Via != ViaName {
		t.Fatalf("expected name match, got %+v", r)
	}
	if r.Employee.ID != 1 || r.Score < 0.7 {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.Evidence != "Joao Silva" {
		t.Fatalf("Evidence = %q", r.Evidence)
	}
}

func TestResolveIdentifierBeatsName(t *testing.T) {
	m := newMatcher(Options{})
	r := m.Resolve(context.Background(), descriptor("/docs/Maria Souza 123.456.789-00.pdf", 10))
	if r.Via != ViaIdentifier || r.Employee.ID != 1 || r.Score != 1 {
		t.Fatalf("expected identifier match for employee 1, got %+v", r)
	}

	r = m.Resolve(context.Background(), descriptor("/docs/ficha 4521.pdf", 10))
	if r.Via != ViaIdentifier || r.Employee.ID != 2 {
		t.Fatalf("expected badge match for employee 2, got %+v", r)
	}
}

func TestResolveByEmail(t *testing.T) {
	m := newMatcher(Options{})
	r := m.Resolve(context.Background(), descriptor("/docs/recibo PEDRO@empresa.com.pdf", 10))
	if r.Via != ViaEmail || r.Employee.ID != 3 {
		t.Fatalf("expected email match, got %+v", r)
	}
}

func TestResolveUnmatched(t *testing.T) {
	m := newMatcher(Options{})
	r := m.Resolve(context.Background(), descriptor("/docs/Carlos Pereira.pdf", 10))
	if r.Matched() || r.Via != ViaNone {
		t.Fatalf("expected no match, got %+v", r)
	}
	if !strings.Contains(r.Reason, "below 0.70") || r.Evidence != "Carlos Pereira" {
		t.Fatalf("unexpected reason %q evidence %q", r.Reason, r.Evidence)
	}

	r = m.Resolve(context.Background(), descriptor("/docs/scan0001.pdf", 10))
	if r.Matched() || r.Reason != "no name candidates found" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestResolveEmptyRegistry(t *testing.T) {
	m := New(registry.New(nil), Options{MinScore: 0.7}, nil)
	r := m.Resolve(context.Background(), descriptor("/docs/Joao Silva.pdf", 10))
	if r.Matched() || r.Reason != "no employees to compare against" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestCacheKeyNameSize(t *testing.T) {
	m := newMatcher(Options{CacheKey: config.CacheKeyNameSize})
	ctx := context.Background()
	first := m.Resolve(ctx, descriptor("/a/Joao Silva.pdf", 10))
	second := m.Resolve(ctx, descriptor("/b/Joao Silva.pdf", 10))
	if first.Employee.ID != second.Employee.ID {
		t.Fatal("cached resolution should be reused")
	}
	if hits, misses := m.CacheStats(); hits != 1 || misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 1/1", hits, misses)
	}

	m.Resolve(ctx, descriptor("/c/Joao Silva.pdf", 11))
	if _, misses := m.CacheStats(); misses != 2 {
		t.Fatalf("different size should miss, misses=%d", misses)
	}
}

func TestCacheKeyFingerprint(t *testing.T) {
	m := newMatcher(Options{CacheKey: config.CacheKeyFingerprint})
	ctx := context.Background()
	m.Resolve(ctx, descriptor("/a/Joao Silva.pdf", 10))
	m.Resolve(ctx, descriptor("/b/Joao Silva.pdf", 10))
	if hits, misses := m.CacheStats(); hits != 0 || misses != 2 {
		t.Fatalf("hits=%d misses=%d, want 0/2", hits, misses)
	}
	if m.CacheKey(descriptor("/a/x.pdf", 1)) == m.CacheKey(descriptor("/b/x.pdf", 1)) {
		t.Fatal("fingerprint keys should differ per file")
	}
}

type countingText struct {
	calls atomic.Int64
	text  string
	err   error
}

func (c *countingText) ExtractText(context.Context, string) (string, error) {
	c.calls.Add(1)
	return c.text, c.err
}

func TestResolveConcurrentSameKeyResolvesOnce(t *testing.T) {
	text := &countingText{}
	m := newMatcher(Options{Text: text})
	fd := descriptor("/docs/Maria Souza.pdf", 42)

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.Resolve(context.Background(), fd)
		}(i)
	}
	wg.Wait()

	if got := text.calls.Load(); got != 1 {
		t.Fatalf("resolution ran %d times, want 1", got)
	}
	for _, r := range results {
		if !r.Matched() || r.Employee.ID != 2 {
			t.Fatalf("unexpected result %+v", r)
		}
	}
	if hits, misses := m.CacheStats(); hits+misses != 16 || misses != 1 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}
}

func TestResolveUsesDocumentText(t *testing.T) {
	m := newMatcher(Options{Text: &countingText{text: "Declaração\nNome: Beatriz Lima\n"}})
	r := m.Resolve(context.Background(), descriptor("/docs/scan0001.pdf", 10))
	if r.Via != ViaName || r.Employee.ID != 4 {
		t.Fatalf("expected text-based name match, got %+v", r)
	}
}

func TestResolveTextErrorFallsBackToFileName(t *testing.T) {
	m := newMatcher(Options{Text: &countingText{err: errors.New("unreadable")}})
	r := m.Resolve(context.Background(), descriptor("/docs/Beatriz Lima.pdf", 10))
	if r.Via != ViaName || r.Employee.ID != 4 {
		t.Fatalf("expected filename match, got %+v", r)
	}
}

func TestDiagnose(t *testing.T) {
	m := newMatcher(Options{})
	d := m.Diagnose(context.Background(), descriptor("/docs/Maria Sousa 2019.pdf", 10), 2)
	if len(d.Candidates) == 0 || d.Candidates[0] != "Maria Sousa" {
		t.Fatalf("unexpected candidates %v", d.Candidates)
	}
	if len(d.Identifiers) != 0 {
		t.Fatalf("year should not be an identifier: %v", d.Identifiers)
	}
	if len(d.Nearest) != 2 || d.Nearest[0].Target != "Maria Souza" {
		t.Fatalf("unexpected nearest %+v", d.Nearest)
	}
	if !d.Result.Matched() || d.Result.Employee.ID != 2 {
		t.Fatalf("unexpected result %+v", d.Result)
	}
	if hits, misses := m.CacheStats(); hits != 0 || misses != 0 {
		t.Fatal("Diagnose must not touch the cache")
	}
}
