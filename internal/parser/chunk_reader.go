package parser

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// DefaultChunkSize is the read buffer size. Chunk boundaries are whatever the
// pipe delivers up to this size; they are not aligned to lines.
const DefaultChunkSize = 4096

// ChunkHandler receives raw output chunks in the order they were read.
type ChunkHandler func(chunk string)

// ChunkReader reads a child process pipe and forwards each read as one
// chunk.
//
// Unlike a line scanner it never holds back a partial line, so output shows
// up in the sink as soon as the child writes it.
type ChunkReader struct {
	reader  io.Reader
	handler ChunkHandler
	size    int
	closed  atomic.Bool

	// Stats (atomic for thread-safety)
	bytesRead  atomic.Int64
	chunksRead atomic.Int64

	mu  sync.Mutex
	err error
}

// NewChunkReader creates a reader that hands chunks to h.
func NewChunkReader(r io.Reader, h ChunkHandler) *ChunkReader {
	return &ChunkReader{
		reader:  r,
		handler: h,
		size:    DefaultChunkSize,
	}
}

// Run reads until EOF or a read error. MUST run in a dedicated goroutine.
// A read on a closed pipe is treated as EOF.
func (c *ChunkReader) Run() {
	buf := make([]byte, c.size)
	for {
		n, err := c.reader.Read(buf)
		if n > 0 {
			c.bytesRead.Add(int64(n))
			c.chunksRead.Add(1)
			c.handler(string(buf[:n]))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
			}
			c.closed.Store(true)
			return
		}
	}
}

// Err returns the read error that ended Run, or nil on EOF.
func (c *ChunkReader) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Stats returns (bytesRead, chunksRead, healthy).
// healthy = false if Run stopped on a read error other than EOF.
func (c *ChunkReader) Stats() (bytesRead int64, chunksRead int64, healthy bool) {
	return c.bytesRead.Load(),
		c.chunksRead.Load(),
		c.Err() == nil
}

// Done reports whether Run has returned.
func (c *ChunkReader) Done() bool {
	return c.closed.Load()
}
