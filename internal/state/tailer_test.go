// internal/state/tailer_test.go
package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"nagrelay/internal/metrics"
)

func newTestTailer(t *testing.T) (*Tailer, *LogBuffer, *os.File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nagios.log")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { f.Close() })

	buf := NewLogBuffer(10)
	tailer := NewTailer(path, 10*time.Millisecond, buf, metrics.NewCollector())
	return tailer, buf, f, path
}

func appendTo(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
}

func TestTailer_DeliversCompleteLinesInOrder(t *testing.T) {
	tailer, buf, f, path := newTestTailer(t)

	appendTo(t, path, "first\nsecond\n")
	tailer.drain(f)

	lines := buf.Lines()
	if len(lines) != 2 || lines[0] != "first" || lines[1] != "second" {
		t.Fatalf("Lines = %v, want [first second]", lines)
	}
}

func TestTailer_HoldsBackPartialLine(t *testing.T) {
	tailer, buf, f, path := newTestTailer(t)

	// The writer has not finished the second line yet.
	appendTo(t, path, "done\npart")
	tailer.drain(f)

	lines := buf.Lines()
	if len(lines) != 1 || lines[0] != "done" {
		t.Fatalf("Lines = %v, want only [done]", lines)
	}

	// Once the terminator lands, the whole line arrives intact, never the
	// fragment.
	appendTo(t, path, "ial line\n")
	tailer.drain(f)

	lines = buf.Lines()
	if len(lines) != 2 || lines[1] != "partial line" {
		t.Fatalf("Lines = %v, want [done, partial line]", lines)
	}
}

func TestTailer_RepeatedDrainDoesNotRedeliver(t *testing.T) {
	tailer, buf, f, path := newTestTailer(t)

	appendTo(t, path, "only\n")
	tailer.drain(f)
	tailer.drain(f)
	tailer.drain(f)

	if got := buf.Len(); got != 1 {
		t.Fatalf("Len = %d after repeated drains, want 1", got)
	}
	if buf.Total() != 1 {
		t.Fatalf("Total = %d, want 1", buf.Total())
	}
}

func TestTailer_StripsCarriageReturn(t *testing.T) {
	tailer, buf, f, path := newTestTailer(t)

	appendTo(t, path, "windows line\r\n")
	tailer.drain(f)

	lines := buf.Lines()
	if len(lines) != 1 || lines[0] != "windows line" {
		t.Fatalf("Lines = %v, want [windows line]", lines)
	}
}
