// internal/state/logbuffer.go
package state

import "sync"

// DefaultLogCapacity bounds the in-memory log view.
const DefaultLogCapacity = 1000

// LogBuffer is a bounded FIFO of raw log lines. The tailer is its only
// writer; handlers read it concurrently.
type LogBuffer struct {
	mu    sync.RWMutex
	lines []string
	cap   int
	total uint64
}

func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogBuffer{cap: capacity}
}

// Append adds one line, evicting the oldest when the buffer is full.
func (b *LogBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total++
	b.lines = append(b.lines, line)
	if len(b.lines) > b.cap {
		trimmed := make([]string, b.cap)
		copy(trimmed, b.lines[len(b.lines)-b.cap:])
		b.lines = trimmed
	}
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *LogBuffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Total reports lines ever observed, including evicted ones.
func (b *LogBuffer) Total() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}
