package ingest

import "sync"

// DedupSet tracks fingerprints uploaded during a run. A fingerprint is
// claimed before its file is processed and committed once the document is
// recorded, so two workers racing on the same fingerprint never both upload.
type DedupSet struct {
	mu        sync.Mutex
	committed map[string]struct{}
	pending   map[string]struct{}
}

// NewDedupSet returns an empty set.
func NewDedupSet() *DedupSet {
	return &DedupSet{
		committed: make(map[string]struct{}),
		pending:   make(map[string]struct{}),
	}
}

// Seed marks fingerprints recorded by earlier runs as committed.
func (d *DedupSet) Seed(fingerprints []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, fp := range fingerprints {
		if fp != "" {
			d.committed[fp] = struct{}{}
		}
	}
}

// Contains reports whether fp has been committed.
func (d *DedupSet) Contains(fp string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.committed[fp]
	return ok
}

// Claim reserves fp for the caller. It returns false when fp is committed or
// already claimed by another worker.
func (d *DedupSet) Claim(fp string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.committed[fp]; ok {
		return false
	}
	if _, ok := d.pending[fp]; ok {
		return false
	}
	d.pending[fp] = struct{}{}
	return true
}

// Commit records fp as uploaded. Committed fingerprints are never removed.
func (d *DedupSet) Commit(fp string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, fp)
	d.committed[fp] = struct{}{}
}

// Release drops a claim without committing it.
func (d *DedupSet) Release(fp string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, fp)
}

// Len returns the number of committed fingerprints.
func (d *DedupSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.committed)
}
