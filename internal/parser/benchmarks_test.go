package parser

import (
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

// benchCountingParser is a simple parser that counts lines (for benchmarks only).
type benchCountingParser struct {
	count *int64
}

func (p *benchCountingParser) ParseLine(line string) {
	atomic.AddInt64(p.count, 1)
}

// randomtestChunk builds a chunk shaped like randomtest output: an
// iteration marker followed by a few lines of playthrough text.
func randomtestChunk(iterations int) string {
	var b strings.Builder
	for i := 1; i <= iterations; i++ {
		b.WriteString(IterationMarker)
		b.WriteString(strconv.Itoa(i))
		b.WriteString("\n")
		b.WriteString("startup 12: You wake up in a cold room.\n")
		b.WriteString("\x1b[32m#Open the door\x1b[0m\n")
		b.WriteString("chapter1 40: The hallway stretches on.\n")
	}
	return b.String()
}

// =============================================================================
// Chunk Handling Benchmarks
// =============================================================================

// BenchmarkNormalizeAndSplit measures the per-chunk work done on stdout.
func BenchmarkNormalizeAndSplit(b *testing.B) {
	chunk := randomtestChunk(50)
	b.SetBytes(int64(len(chunk)))
	b.ReportAllocs()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		norm := NormalizeChunk(chunk)
		_ = SplitLines(norm)
		_ = LastLine(norm)
	}
}

// BenchmarkChunkReader measures reading a large stdout stream.
func BenchmarkChunkReader(b *testing.B) {
	data := randomtestChunk(1000)
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var n int64
		r := NewChunkReader(strings.NewReader(data), func(chunk string) {
			n += int64(len(chunk))
		})
		r.Run()
		if n != int64(len(data)) {
			b.Fatalf("read %d bytes, want %d", n, len(data))
		}
	}
}

// =============================================================================
// Parser Benchmarks
// =============================================================================

// BenchmarkIterationParser_MixedInput benchmarks marker scanning over
// mixed randomtest output.
func BenchmarkIterationParser_MixedInput(b *testing.B) {
	lines := SplitLines(NormalizeChunk(randomtestChunk(25)))
	var count int64
	parsers := []LineParser{
		NewIterationParser(nil),
		&benchCountingParser{count: &count},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, line := range lines {
			line = StripANSI(line)
			for _, p := range parsers {
				p.ParseLine(line)
			}
		}
	}
}

// BenchmarkParseErrorLine measures error location extraction.
func BenchmarkParseErrorLine(b *testing.B) {
	inputs := []string{
		"startup line 42: Non-existent variable 'strength'",
		"RANDOMTEST FAILED",
		"chapter_two line 7: increasing indent not allowed",
	}
	b.ReportAllocs()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ParseErrorLine(inputs[i%len(inputs)])
	}
}

// =============================================================================
// Memory Allocation Benchmarks
// =============================================================================

// BenchmarkIterationParser_Allocs measures memory allocations per line.
func BenchmarkIterationParser_Allocs(b *testing.B) {
	p := NewIterationParser(func(uint64) {})
	line := IterationMarker + "12345"
	b.ReportAllocs()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ParseLine(line)
	}
}
