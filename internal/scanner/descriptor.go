package scanner

import (
	"fmt"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"
)

// FileDescriptor identifies one candidate document. It is created by the
// scanner and never modified afterwards.
type FileDescriptor struct {
	Path        string    `json:"path"`
	DisplayName string    `json:"display_name"`
	Extension   string    `json:"extension"`
	Size        int64     `json:"size_bytes"`
	ModifiedAt  time.Time `json:"modified_at"`
	Fingerprint string    `json:"fingerprint"`
}

// Fingerprint returns the hex xxh3 identity of a file from its real path,
// size, and modification time.
func Fingerprint(realPath string, size int64, modTime time.Time) string {
	key := realPath + "\x00" + strconv.FormatInt(size, 10) + "\x00" + strconv.FormatInt(modTime.UnixNano(), 10)
	return fmt.Sprintf("%016x", xxh3.HashString(key))
}
