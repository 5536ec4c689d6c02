package parser

import (
	"sync"
	"testing"
)

func TestParseIteration(t *testing.T) {
	tests := []struct {
		input  string
		want   uint64
		wantOK bool
	}{
		{"*****Iteration 42 of 100", 42, true},
		{"*****Iteration 7 ", 7, true},
		{"*****Iteration 0 of 10", 0, true},
		{"prefix *****Iteration 13 of 20", 13, true},
		{"*****Iteration 7", 0, false},
		{"*****Iteration  7 ", 0, false},
		{"*****Iteration x7 ", 0, false},
		{"****Iteration 7 ", 0, false},
		{"Iteration 7 ", 0, false},
		{"", 0, false},
		{"*****Iteration 99999999999999999999999 ", 0, false},
		{"*****Iteration abc *****Iteration 5 of 9", 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseIteration(tt.input)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseIteration(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIterationParser_Callback(t *testing.T) {
	var mu sync.Mutex
	var got []uint64

	p := NewIterationParser(func(n uint64) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	})

	for _, line := range []string{
		"starting randomtest",
		"*****Iteration 1 of 3",
		"some scene text",
		"*****Iteration 2 of 3",
		"*****Iteration 3 ",
		"done",
	} {
		p.ParseLine(line)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []uint64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %d callbacks, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("callback[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	last, ok := p.Last()
	if !ok || last != 3 {
		t.Errorf("Last() = %d, %v, want 3, true", last, ok)
	}

	lines, markers := p.Stats()
	if lines != 6 {
		t.Errorf("linesProcessed = %d, want 6", lines)
	}
	if markers != 3 {
		t.Errorf("markersFound = %d, want 3", markers)
	}
}

func TestIterationParser_NoCallback(t *testing.T) {
	// Should not panic with nil callback
	p := NewIterationParser(nil)
	p.ParseLine("*****Iteration 9 of 10")

	if last, ok := p.Last(); !ok || last != 9 {
		t.Errorf("Last() = %d, %v, want 9, true", last, ok)
	}
}

func TestIterationParser_NoMarker(t *testing.T) {
	called := false
	p := NewIterationParser(func(uint64) { called = true })
	p.ParseLine("nothing to see here")

	if called {
		t.Error("callback fired for a line without a marker")
	}
	if _, ok := p.Last(); ok {
		t.Error("Last() reported a value without any marker")
	}
}
