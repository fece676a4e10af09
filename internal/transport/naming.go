package transport

import (
	"fmt"
	"sync"
	"time"

	"docingest/internal/textutil"
)

// Namer generates collision-free object names. Timestamps are strictly
// increasing across calls even when the clock stalls or steps back.
type Namer struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewNamer returns a Namer backed by the wall clock.
func NewNamer() *Namer {
	return &Namer{now: time.Now}
}

// Name returns "<owner>_<millis>_<sanitized name>".
func (n *Namer) Name(ownerID int64, originalName string) string {
	n.mu.Lock()
	ms := n.now().UnixMilli()
	if ms <= n.last {
		ms = n.last + 1
	}
	n.last = ms
	n.mu.Unlock()
	return fmt.Sprintf("%d_%d_%s", ownerID, ms, textutil.SanitizeObjectName(originalName))
}
