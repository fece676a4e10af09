package scanner

// SkipReason explains why an entry never became a FileDescriptor.
type SkipReason string

const (
	SkipExtension  SkipReason = "extension"
	SkipEmpty      SkipReason = "empty"
	SkipTooLarge   SkipReason = "too_large"
	SkipUnreadable SkipReason = "unreadable"
	SkipDuplicate  SkipReason = "duplicate"
	SkipNotRegular SkipReason = "not_regular"
)

// Stats aggregates what a walk saw.
type Stats struct {
	Directories           int                `json:"directories"`
	UnreadableDirectories int                `json:"unreadable_directories"`
	Entries               int                `json:"entries"`
	Accepted              int                `json:"accepted"`
	AcceptedBytes         int64              `json:"accepted_bytes"`
	ByExtension           map[string]int     `json:"by_extension"`
	Skipped               map[SkipReason]int `json:"skipped"`
	SmallestPath          string             `json:"smallest_path,omitempty"`
	SmallestSize          int64              `json:"smallest_size"`
	LargestPath           string             `json:"largest_path,omitempty"`
	LargestSize           int64              `json:"largest_size"`
}

func newStats() Stats {
	return Stats{
		ByExtension: make(map[string]int),
		Skipped:     make(map[SkipReason]int),
	}
}

// SkippedTotal returns the number of entries filtered out.
func (s Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

func (s *Stats) accept(fd FileDescriptor) {
	s.Accepted++
	s.AcceptedBytes += fd.Size
	s.ByExtension[fd.Extension]++
	if s.SmallestPath == "" || fd.Size < s.SmallestSize {
		s.SmallestPath, s.SmallestSize = fd.Path, fd.Size
	}
	if s.LargestPath == "" || fd.Size > s.LargestSize {
		s.LargestPath, s.LargestSize = fd.Path, fd.Size
	}
}
