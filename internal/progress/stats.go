package progress

import (
	"time"
)

// Stats is a snapshot of the run statistics.
type Stats struct {
	RunID string `json:"run_id"`

	// Total and TotalBytes describe the scanned workload.
	Total      int   `json:"total_files"`
	TotalBytes int64 `json:"total_bytes"`
	Skipped    int   `json:"skipped"`

	Processed  int `json:"processed"`
	Matched    int `json:"matched"`
	Uploaded   int `json:"uploaded"`
	Unmatched  int `json:"unmatched"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`

	BytesProcessed int64 `json:"bytes_processed"`
	BytesUploaded  int64 `json:"bytes_uploaded"`

	ByVia         map[string]int `json:"by_matched_via"`
	ErrorsByClass map[string]int `json:"errors_by_category"`

	StartedAt      time.Time     `json:"started_at"`
	Elapsed        time.Duration `json:"elapsed_ns"`
	FilesPerSecond float64       `json:"files_per_second"`
	BytesPerSecond float64       `json:"bytes_per_second"`
	ETA            time.Duration `json:"eta_ns"`
	Interrupted    bool          `json:"interrupted"`
}

// Percent returns processed files as a share of the workload.
func (s Stats) Percent() float64 {
	if s.Total == 0 {
		return 100
	}
	return float64(s.Processed) / float64(s.Total) * 100
}

// Balanced reports whether every processed file landed in exactly one
// terminal bucket.
func (s Stats) Balanced() bool {
	return s.Processed == s.Uploaded+s.Unmatched+s.Errors+s.Duplicates
}

func (s Stats) clone() Stats {
	out := s
	out.ByVia = copyCounts(s.ByVia)
	out.ErrorsByClass = copyCounts(s.ErrorsByClass)
	return out
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// derive fills the rate fields for the given instant.
func (s *Stats) derive(now time.Time) {
	if s.StartedAt.IsZero() {
		return
	}
	s.Elapsed = now.Sub(s.StartedAt)
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		s.FilesPerSecond, s.BytesPerSecond, s.ETA = 0, 0, 0
		return
	}
	s.FilesPerSecond = float64(s.Processed) / secs
	s.BytesPerSecond = float64(s.BytesProcessed) / secs
	remaining := s.Total - s.Processed
	if remaining <= 0 || s.FilesPerSecond == 0 {
		s.ETA = 0
		return
	}
	s.ETA = time.Duration(float64(remaining) / s.FilesPerSecond * float64(time.Second))
}
