package parser

import (
	"strconv"
	"strings"
	"sync"
)

// IterationMarker precedes the iteration number in randomtest output.
const IterationMarker = "*****Iteration "

// IterationCallback is called with every iteration number found in the output.
type IterationCallback func(count uint64)

// IterationParser scans stdout lines for the randomtest iteration marker.
//
// It implements the LineParser interface. Thread-safe.
type IterationParser struct {
	callback IterationCallback

	mu             sync.Mutex
	last           uint64
	seen           bool
	linesProcessed int64
	markersFound   int64
}

// NewIterationParser creates a parser that reports iteration numbers to cb.
// Pass nil for cb if you only want Last() and Stats().
func NewIterationParser(cb IterationCallback) *IterationParser {
	return &IterationParser{callback: cb}
}

// ParseLine implements the LineParser interface.
func (p *IterationParser) ParseLine(line string) {
	n, ok := ParseIteration(line)

	p.mu.Lock()
	p.linesProcessed++
	if ok {
		p.markersFound++
		p.last = n
		p.seen = true
	}
	p.mu.Unlock()

	if ok && p.callback != nil {
		p.callback(n)
	}
}

// Last returns the most recent iteration number and whether one was seen.
func (p *IterationParser) Last() (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.seen
}

// Stats returns parser statistics.
func (p *IterationParser) Stats() (linesProcessed, markersFound int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.linesProcessed, p.markersFound
}

// ParseIteration finds "*****Iteration <digits> " in line and returns the
// digits as an integer. The digit run must be terminated by a space.
//
// Examples:
//   - "*****Iteration 42 of 100" -> 42, true
//   - "*****Iteration 7 "        -> 7, true
//   - "*****Iteration 7"         -> 0, false
//   - "Iteration 7 "             -> 0, false
func ParseIteration(line string) (uint64, bool) {
	rest := line
	for {
		idx := strings.Index(rest, IterationMarker)
		if idx < 0 {
			return 0, false
		}
		rest = rest[idx+len(IterationMarker):]

		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end > 0 && end < len(rest) && rest[end] == ' ' {
			if n, err := strconv.ParseUint(rest[:end], 10, 64); err == nil {
				return n, true
			}
		}
	}
}
