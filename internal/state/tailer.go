// internal/state/tailer.go
package state

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"nagrelay/internal/metrics"
)

// Tailer incrementally reads the engine's append-only log file into a
// LogBuffer. Only lines that end in a newline are delivered: a trailing
// fragment the engine has not finished writing stays in the file until its
// terminator arrives, so the buffer never holds a half-written line.
type Tailer struct {
	path     string
	interval time.Duration
	buf      *LogBuffer
	metrics  *metrics.Collector
	onLine   func(string)

	offset int64
}

func NewTailer(path string, interval time.Duration, buf *LogBuffer, collector *metrics.Collector) *Tailer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Tailer{
		path:     path,
		interval: interval,
		buf:      buf,
		metrics:  collector,
	}
}

// OnLine registers a callback invoked for each delivered line. Must be
// called before Run.
func (t *Tailer) OnLine(fn func(string)) {
	t.onLine = fn
}

// Run tails the log file until the context is cancelled.
func (t *Tailer) Run(ctx context.Context) {
	f, err := os.Open(t.path)
	if err != nil {
		logrus.WithError(err).WithField("log_file", t.path).Error("Cannot open log file, tailing disabled")
		return
	}
	defer f.Close()

	logrus.WithFields(logrus.Fields{
		"log_file": t.path,
		"interval": t.interval,
	}).Info("Starting log tailer")

	t.drain(f)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Log tailer stopped")
			return
		case <-ticker.C:
			// TODO: reopen on rename rotation; only in-place truncation is
			// detected today.
			if info, err := f.Stat(); err == nil && info.Size() < t.offset {
				logrus.WithField("log_file", t.path).Info("Log file truncated, restarting from offset 0")
				t.offset = 0
			}
			t.drain(f)
		}
	}
}

// drain reads complete lines from the recorded offset until none are left.
// A read without a trailing terminator does not advance the offset, so the
// same bytes are re-read once the writer finishes the line.
func (t *Tailer) drain(f *os.File) {
	for {
		if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
			logrus.WithError(err).Error("Log file seek failed")
			return
		}

		line, err := bufio.NewReader(f).ReadString('\n')
		if err != nil || !strings.HasSuffix(line, "\n") {
			return
		}

		t.offset += int64(len(line))
		trimmed := strings.TrimRight(line, "\r\n")
		t.buf.Append(trimmed)
		t.metrics.RecordLogLine(t.buf.Len())
		if t.onLine != nil {
			t.onLine(trimmed)
		}
	}
}
