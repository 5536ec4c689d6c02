package sink

import (
	"bufio"
	"io"
	"sync"
)

// Document is a sink that keeps every line until Clear. It is handed to a
// Displayer when the run ends.
type Document struct {
	name string

	mu    sync.Mutex
	lines []string
	bytes int64
	shown bool
}

// NewDocument creates an empty document identified by name.
func NewDocument(name string) *Document {
	return &Document{name: name}
}

// Name implements Sink.
func (d *Document) Name() string {
	return d.name
}

// Append implements Sink.
func (d *Document) Append(line string) {
	d.mu.Lock()
	d.lines = append(d.lines, line)
	d.bytes += int64(len(line)) + 1
	d.mu.Unlock()
}

// AppendBlock implements Sink.
func (d *Document) AppendBlock(lines []string) {
	d.mu.Lock()
	d.lines = append(d.lines, lines...)
	for _, l := range lines {
		d.bytes += int64(len(l)) + 1
	}
	d.mu.Unlock()
}

// Clear implements Sink.
func (d *Document) Clear() {
	d.mu.Lock()
	d.lines = nil
	d.bytes = 0
	d.mu.Unlock()
}

// Show implements Sink. A document becomes visible through a Displayer at
// the end of the run; Show only records that it was requested.
func (d *Document) Show() {
	d.mu.Lock()
	d.shown = true
	d.mu.Unlock()
}

// Shown reports whether Show has been called.
func (d *Document) Shown() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown
}

// Len returns the number of retained lines.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lines)
}

// Bytes returns the size of the document as written by WriteTo.
func (d *Document) Bytes() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bytes
}

// Lines returns a copy of the retained lines.
func (d *Document) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// WriteTo streams every line, newline terminated, to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bw := bufio.NewWriterSize(w, 64*1024)
	var n int64
	for _, l := range d.lines {
		m, err := bw.WriteString(l)
		n += int64(m)
		if err != nil {
			return n, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return n, err
		}
		n++
	}
	return n, bw.Flush()
}

var (
	_ Sink        = (*Document)(nil)
	_ io.WriterTo = (*Document)(nil)
)
