package stats

import (
	"sync"
	"time"
)

// Summary is the finished state of one run.
type Summary struct {
	Name    string
	RunID   string
	Outcome string
	Message string

	// ErrorLocation is "scene:line" for failures with a located script error.
	ErrorLocation string

	Started  time.Time
	Duration time.Duration

	Iterations      uint64
	IntervalSamples int
	IntervalMin     time.Duration
	IntervalMax     time.Duration
	IntervalP50     time.Duration
	IntervalP95     time.Duration
	IntervalP99     time.Duration

	StdoutChunks int64
	StderrChunks int64
	StdoutLines  int64
	StderrLines  int64
	StdoutBytes  int64
	StderrBytes  int64
}

// DefaultHistorySize is the number of summaries kept by NewHistory(0).
const DefaultHistorySize = 100

// History keeps the summaries of finished runs in the order they finished.
// When full, the oldest summary is dropped.
type History struct {
	mu        sync.Mutex
	summaries []Summary
	size      int
}

// NewHistory creates a history holding up to size summaries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size}
}

// Add appends a finished run.
func (h *History) Add(s Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.summaries) == h.size {
		h.summaries = h.summaries[1:]
	}
	h.summaries = append(h.summaries, s)
}

// Len returns the number of kept summaries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.summaries)
}

// Last returns the most recent summary.
func (h *History) Last() (Summary, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.summaries) == 0 {
		return Summary{}, false
	}
	return h.summaries[len(h.summaries)-1], true
}
