package sink

import (
	"fmt"
	"io"
	"sync"
)

// DefaultTransientCapacity is the number of lines a Transient sink retains.
const DefaultTransientCapacity = 1000

// Transient is a bounded sink with no persistence. Old lines fall off the
// ring; once shown, every appended line is also written to the writer.
type Transient struct {
	name string
	w    io.Writer

	// Circular buffer for recent lines
	mu     sync.Mutex
	buffer []string
	start  int
	count  int
	shown  bool
}

// NewTransient creates a transient sink that echoes to w after Show.
// capacity <= 0 selects DefaultTransientCapacity.
func NewTransient(name string, w io.Writer, capacity int) *Transient {
	if capacity <= 0 {
		capacity = DefaultTransientCapacity
	}
	if w == nil {
		w = io.Discard
	}
	return &Transient{
		name:   name,
		w:      w,
		buffer: make([]string, capacity),
	}
}

// Name implements Sink.
func (t *Transient) Name() string {
	return t.name
}

// Append implements Sink.
func (t *Transient) Append(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.push(line)
}

// AppendBlock implements Sink.
func (t *Transient) AppendBlock(lines []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, l := range lines {
		t.push(l)
	}
}

// push stores a line and echoes it. Caller holds mu.
func (t *Transient) push(line string) {
	idx := (t.start + t.count) % len(t.buffer)
	t.buffer[idx] = line
	if t.count < len(t.buffer) {
		t.count++
	} else {
		t.start = (t.start + 1) % len(t.buffer)
	}
	if t.shown {
		fmt.Fprintln(t.w, line)
	}
}

// Clear implements Sink.
func (t *Transient) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.buffer {
		t.buffer[i] = ""
	}
	t.start = 0
	t.count = 0
}

// Show implements Sink. Lines retained before the first Show are written out
// so nothing appended while hidden is lost from view.
func (t *Transient) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.shown {
		return
	}
	t.shown = true
	for _, l := range t.linesLocked() {
		fmt.Fprintln(t.w, l)
	}
}

// Lines returns the retained lines, oldest first.
func (t *Transient) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.linesLocked()
}

func (t *Transient) linesLocked() []string {
	lines := make([]string, 0, t.count)
	for i := 0; i < t.count; i++ {
		lines = append(lines, t.buffer[(t.start+i)%len(t.buffer)])
	}
	return lines
}

// Len returns the number of retained lines.
func (t *Transient) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

var _ Sink = (*Transient)(nil)
