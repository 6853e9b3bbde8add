// internal/state/model.go
package state

import (
	"fmt"
	"sort"
	"time"
)

// TargetKind distinguishes host-level from service-level operations.
type TargetKind int

const (
	TargetHost TargetKind = iota
	TargetService
)

// Host is one monitored host as last reported by the engine. Attrs holds
// only scalar string attributes; anything else the engine tracks stays
// behind the parsing boundary and is never exposed through the API.
type Host struct {
	Name      string              `json:"name"`
	Attrs     map[string]string   `json:"attrs"`
	Services  map[string]*Service `json:"services"`
	Downtimes []int               `json:"downtimes"`
}

type Service struct {
	Host      string            `json:"host"`
	Name      string            `json:"name"`
	Attrs     map[string]string `json:"attrs"`
	Downtimes []int             `json:"downtimes"`
}

// Downtime is a scheduled alert-suppression window. Service is empty for
// host-level downtimes.
type Downtime struct {
	ID      int       `json:"id"`
	Host    string    `json:"host"`
	Service string    `json:"service"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

func (d *Downtime) Kind() TargetKind {
	if d.Service != "" {
		return TargetService
	}
	return TargetHost
}

// Snapshot is an immutable point-in-time view of the engine's state. A
// published snapshot is never mutated; reloads build and publish a fresh
// one, so readers holding an old reference keep a consistent view.
type Snapshot struct {
	Generation uint64
	Created    time.Time
	Hosts      map[string]*Host
	Downtimes  map[int]*Downtime
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Created:   time.Now(),
		Hosts:     make(map[string]*Host),
		Downtimes: make(map[int]*Downtime),
	}
}

// Target is the resolved subject of a control command: exactly one of a
// host or a service, tagged by Kind.
type Target struct {
	Kind    TargetKind
	Host    *Host
	Service *Service
}

// Resolve looks up a host and, when service is non-empty, one of its
// services. It is the single lookup path every mutating handler goes
// through.
func (s *Snapshot) Resolve(host, service string) (*Target, error) {
	h, ok := s.Hosts[host]
	if !ok {
		return nil, fmt.Errorf("unknown host %q", host)
	}
	if service == "" {
		return &Target{Kind: TargetHost, Host: h}, nil
	}
	svc, ok := h.Services[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q on host %q", service, host)
	}
	return &Target{Kind: TargetService, Host: h, Service: svc}, nil
}

// TargetDowntimes collects the downtimes attached to a target. For a host
// target with servicesToo set, the host's own downtimes plus those of all
// its services are returned, ordered by id.
func (s *Snapshot) TargetDowntimes(t *Target, servicesToo bool) []*Downtime {
	var ids []int
	switch t.Kind {
	case TargetService:
		ids = append(ids, t.Service.Downtimes...)
	case TargetHost:
		ids = append(ids, t.Host.Downtimes...)
		if servicesToo {
			for _, svc := range t.Host.Services {
				ids = append(ids, svc.Downtimes...)
			}
		}
	}

	sort.Ints(ids)
	downtimes := make([]*Downtime, 0, len(ids))
	for _, id := range ids {
		if d, ok := s.Downtimes[id]; ok {
			downtimes = append(downtimes, d)
		}
	}
	return downtimes
}

// ServiceNames returns the host's service names in sorted order.
func (h *Host) ServiceNames() []string {
	names := make([]string, 0, len(h.Services))
	for name := range h.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
