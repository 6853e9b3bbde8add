// internal/state/provider.go
package state

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"nagrelay/internal/metrics"
)

// ParseFunc reads the engine's status file and builds a snapshot from it.
// The status file grammar lives entirely behind this boundary.
type ParseFunc func(path string) (*Snapshot, error)

// Provider polls the status file and publishes a new immutable snapshot
// whenever the file's modification time changes. Publication is an atomic
// pointer swap; concurrent readers either see the old snapshot or the new
// one, never a mix.
type Provider struct {
	path      string
	interval  time.Duration
	parse     ParseFunc
	metrics   *metrics.Collector
	onPublish func(*Snapshot)

	current atomic.Pointer[Snapshot]
	lastMod time.Time
	gen     uint64
}

func NewProvider(path string, interval time.Duration, parse ParseFunc, collector *metrics.Collector) *Provider {
	if interval <= 0 {
		interval = time.Second
	}
	return &Provider{
		path:     path,
		interval: interval,
		parse:    parse,
		metrics:  collector,
	}
}

// OnPublish registers a callback invoked after each successful publication.
// Must be called before Run.
func (p *Provider) OnPublish(fn func(*Snapshot)) {
	p.onPublish = fn
}

// Current returns the latest published snapshot, or nil before the first
// successful parse.
func (p *Provider) Current() *Snapshot {
	return p.current.Load()
}

// Run polls until the context is cancelled. Parse failures keep the
// previously published snapshot in place and are retried on the next tick.
func (p *Provider) Run(ctx context.Context) {
	logrus.WithFields(logrus.Fields{
		"status_file": p.path,
		"interval":    p.interval,
	}).Info("Starting snapshot provider")

	if err := p.Reload(); err != nil {
		logrus.WithError(err).Error("Initial status file load failed")
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Snapshot provider stopped")
			return
		case <-ticker.C:
			if err := p.Reload(); err != nil {
				logrus.WithError(err).Error("Status file reload failed")
			}
		}
	}
}

// Reload re-parses the status file if its modification time moved since the
// last successful parse. lastMod only advances on success, so a failed
// parse is re-attempted every interval until the file parses again.
func (p *Provider) Reload() error {
	info, err := os.Stat(p.path)
	if err != nil {
		p.metrics.RecordParseFailure()
		return err
	}
	if !info.ModTime().After(p.lastMod) {
		return nil
	}

	start := time.Now()
	snap, err := p.parse(p.path)
	if err != nil {
		p.metrics.RecordParseFailure()
		return err
	}

	p.gen++
	snap.Generation = p.gen
	p.lastMod = info.ModTime()
	p.current.Store(snap)

	services := 0
	for _, h := range snap.Hosts {
		services += len(h.Services)
	}
	p.metrics.RecordSnapshot(snap.Generation, len(snap.Hosts), services, time.Since(start))

	logrus.WithFields(logrus.Fields{
		"generation": snap.Generation,
		"hosts":      len(snap.Hosts),
		"services":   services,
		"downtimes":  len(snap.Downtimes),
	}).Debug("Published snapshot")

	if p.onPublish != nil {
		p.onPublish(snap)
	}
	return nil
}
