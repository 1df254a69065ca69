package archiver

import (
	"sync"
	"time"
)

// Summary tallies one crawl
type Summary struct {
	RunID              string
	Children           int
	FailedChildren     int
	Pages              int
	Stories            int
	Queued             int
	Saved              int
	SavedBytes         int64
	SkippedExisting    int
	SkippedUnsupported int
	Invalid            int
	Failed             int
	Duration           time.Duration
}

// HasFailures reports whether any branch of the crawl failed
func (s Summary) HasFailures() bool {
	return s.FailedChildren > 0 || s.Failed > 0 || s.Invalid > 0
}

// tally guards a Summary shared by child crawlers and the result consumer
type tally struct {
	mu sync.Mutex
	s  Summary
}

func (t *tally) update(fn func(s *Summary)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.s)
}

func (t *tally) snapshot() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.s
}
