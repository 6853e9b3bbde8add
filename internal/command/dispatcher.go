// internal/command/dispatcher.go
package command

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"nagrelay/internal/metrics"
)

var (
	// ErrDisabled is returned when no command file was configured or the
	// configured file was missing at startup.
	ErrDisabled = errors.New("command dispatch is disabled")

	// ErrTooFewArgs is returned when a caller supplies less than a command
	// name and one parameter.
	ErrTooFewArgs = errors.New("a command needs a name and at least one argument")
)

// Dispatcher serializes writes to the engine's external command file. Each
// command is one line, `[<unix-ts>] field;field;...`, written open-to-close
// under a single mutex so concurrent submissions can never interleave
// bytes. Delivery is fire-and-forget; the engine consumes the file on its
// own cadence.
type Dispatcher struct {
	mu      sync.Mutex
	path    string
	enabled bool
	now     func() time.Time
	metrics *metrics.Collector
}

func NewDispatcher(path string, collector *metrics.Collector) *Dispatcher {
	d := &Dispatcher{
		path:    path,
		now:     time.Now,
		metrics: collector,
	}
	if path == "" {
		logrus.Info("No command file configured, command dispatch disabled")
		return d
	}
	if _, err := os.Stat(path); err != nil {
		logrus.WithError(err).WithField("command_file", path).Warn("Command file not accessible, command dispatch disabled")
		return d
	}
	d.enabled = true
	logrus.WithField("command_file", path).Info("Command dispatch enabled")
	return d
}

// Enabled reports whether commands can be dispatched at all.
func (d *Dispatcher) Enabled() bool {
	return d.enabled
}

// Submit renders the arguments as one command line and appends it to the
// command file. No write is attempted when dispatch is disabled or fewer
// than two arguments are given.
func (d *Dispatcher) Submit(args ...string) error {
	if !d.enabled {
		return ErrDisabled
	}
	if len(args) < 2 {
		return ErrTooFewArgs
	}

	line := fmt.Sprintf("[%d] %s\n", d.now().Unix(), strings.Join(args, ";"))

	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := os.OpenFile(d.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		d.metrics.RecordCommand(false)
		return fmt.Errorf("open command file: %w", err)
	}

	_, werr := f.WriteString(line)
	cerr := f.Close()
	if werr != nil {
		d.metrics.RecordCommand(false)
		return fmt.Errorf("write command: %w", werr)
	}
	if cerr != nil {
		d.metrics.RecordCommand(false)
		return fmt.Errorf("close command file: %w", cerr)
	}

	d.metrics.RecordCommand(true)
	logrus.WithField("command", args[0]).Debug("Dispatched command")
	return nil
}
