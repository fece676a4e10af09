package progress

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"docingest/internal/ingest"
	"docingest/internal/matcher"
	"docingest/internal/registry"
	"docingest/internal/scanner"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func files(n int, size int64) []scanner.FileDescriptor {
	out := make([]scanner.FileDescriptor, n)
	for i := range out {
		out[i] = scanner.FileDescriptor{Path: "/docs/f.pdf", DisplayName: "f.pdf", Size: size}
	}
	return out
}

func TestRecordKeepsCountersBalanced(t *testing.T) {
	m := New(Options{KeepOutcomes: true, Output: &bytes.Buffer{}}, nil)
	fds := files(5, 100)
	m.Start("run-1", fds, scanner.Stats{Skipped: map[scanner.SkipReason]int{scanner.SkipEmpty: 2}})

	emp := &registry.Employee{ID: 7, Name: "João Silva"}
	m.Record(fds[0], ingest.Outcome{Status: ingest.StatusUploaded, Matched: true, Employee: emp, Match: matcher.Result{Via: matcher.ViaName}})
	m.Record(fds[1], ingest.Outcome{Status: ingest.StatusUploaded, Matched: true, Employee: emp, Match: matcher.Result{Via: matcher.ViaIdentifier}})
	m.Record(fds[2], ingest.Outcome{Status: ingest.StatusUnmatched})
	m.Record(fds[3], ingest.Outcome{Status: ingest.StatusDuplicate})
	m.Record(fds[4], ingest.Outcome{Status: ingest.StatusError, Matched: true, ErrorCategory: "external"})

	s := m.Finish()
	if s.Processed != 5 || s.Uploaded != 2 || s.Unmatched != 1 || s.Duplicates != 1 || s.Errors != 1 {
		t.Fatalf("stats = %+v", s)
	}
	if !s.Balanced() {
		t.Fatal("processed must equal the sum of terminal buckets")
	}
	if s.Matched != 3 || s.Skipped != 2 || s.TotalBytes != 500 || s.BytesUploaded != 200 {
		t.Fatalf("stats = %+v", s)
	}
	if s.ByVia["name"] != 1 || s.ByVia["identifier"] != 1 || s.ErrorsByClass["external"] != 1 {
		t.Fatalf("breakdowns = %v %v", s.ByVia, s.ErrorsByClass)
	}
	if len(m.Matches()) != 2 || len(m.Failures()) != 1 || len(m.Outcomes()) != 5 {
		t.Fatal("outcome lists out of sync with counters")
	}

	s.ByVia["name"] = 99
	if m.Snapshot().ByVia["name"] != 1 {
		t.Fatal("snapshot must not alias monitor state")
	}
}

func TestRecordAfterFinishIsDropped(t *testing.T) {
	m := New(Options{Output: &bytes.Buffer{}}, nil)
	fds := files(2, 10)
	m.Start("run-1", fds, scanner.Stats{})
	if !m.Record(fds[0], ingest.Outcome{Status: ingest.StatusUploaded, Matched: true}) {
		t.Fatal("Record before Finish should be accepted")
	}
	final := m.Finish()
	if m.Record(fds[1], ingest.Outcome{Status: ingest.StatusError, ErrorCategory: "external"}) {
		t.Fatal("Record after Finish should be rejected")
	}
	after := m.Snapshot()
	if after.Processed != final.Processed || after.Errors != 0 || len(m.Failures()) != 0 {
		t.Fatalf("late outcome changed the run: %+v", after)
	}
}

func TestRecordThrottlesRendering(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	m := New(Options{Live: true, Interval: time.Second, Output: &bytes.Buffer{}}, logger)
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	m.now = c.now

	fds := files(25, 10)
	m.Start("run", fds, scanner.Stats{})
	for _, fd := range fds {
		c.t = c.t.Add(100 * time.Millisecond)
		m.Record(fd, ingest.Outcome{Status: ingest.StatusUnmatched})
	}
	// First record, every full second after it, and the final record.
	if got := strings.Count(logs.String(), "msg=progress"); got != 4 {
		t.Fatalf("rendered %d times, want 4:\n%s", got, logs.String())
	}
}

func TestSnapshotRates(t *testing.T) {
	m := New(Options{Output: &bytes.Buffer{}}, nil)
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	m.now = c.now

	fds := files(20, 1000)
	m.Start("run", fds, scanner.Stats{})
	for _, fd := range fds[:10] {
		m.Record(fd, ingest.Outcome{Status: ingest.StatusUploaded, Matched: true})
	}
	c.t = c.t.Add(10 * time.Second)

	s := m.Snapshot()
	if s.FilesPerSecond != 1 || s.BytesPerSecond != 1000 {
		t.Fatalf("rates = %v files/s, %v B/s", s.FilesPerSecond, s.BytesPerSecond)
	}
	if s.ETA != 10*time.Second {
		t.Fatalf("ETA = %v, want 10s", s.ETA)
	}
	if line := FormatLine(s); !strings.Contains(line, " 50.0%") || !strings.Contains(line, "10/20 files") {
		t.Fatalf("line = %q", line)
	}
}

func TestRenderSummary(t *testing.T) {
	s := Stats{
		RunID:         "run-9",
		Total:         3,
		Processed:     3,
		Uploaded:      2,
		Errors:        1,
		ByVia:         map[string]int{"name": 2},
		ErrorsByClass: map[string]int{"external": 1},
		Interrupted:   true,
	}
	out := RenderSummary(s)
	for _, want := range []string{"Run run-9", "Uploaded", "Matched via name", "Errors (external)", "interrupted"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if (Stats{}).Percent() != 100 {
		t.Fatal("empty workload should report complete")
	}
}
