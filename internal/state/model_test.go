// internal/state/model_test.go
package state

import "testing"

func buildSnapshot() *Snapshot {
	snap := NewSnapshot()

	host := &Host{
		Name:      "web1",
		Attrs:     map[string]string{},
		Services:  map[string]*Service{},
		Downtimes: []int{5},
	}
	host.Services["http"] = &Service{Host: "web1", Name: "http", Attrs: map[string]string{}, Downtimes: []int{2}}
	host.Services["ssh"] = &Service{Host: "web1", Name: "ssh", Attrs: map[string]string{}, Downtimes: []int{8}}
	snap.Hosts["web1"] = host

	snap.Downtimes[2] = &Downtime{ID: 2, Host: "web1", Service: "http"}
	snap.Downtimes[5] = &Downtime{ID: 5, Host: "web1"}
	snap.Downtimes[8] = &Downtime{ID: 8, Host: "web1", Service: "ssh"}
	return snap
}

func TestResolve(t *testing.T) {
	snap := buildSnapshot()

	target, err := snap.Resolve("web1", "")
	if err != nil {
		t.Fatalf("Resolve host: %v", err)
	}
	if target.Kind != TargetHost || target.Host.Name != "web1" {
		t.Errorf("target = %+v, want host web1", target)
	}

	target, err = snap.Resolve("web1", "http")
	if err != nil {
		t.Fatalf("Resolve service: %v", err)
	}
	if target.Kind != TargetService || target.Service.Name != "http" {
		t.Errorf("target = %+v, want service http", target)
	}

	if _, err := snap.Resolve("ghost", ""); err == nil {
		t.Error("Resolve should fail for an unknown host")
	}
	if _, err := snap.Resolve("web1", "ftp"); err == nil {
		t.Error("Resolve should fail for an unknown service")
	}
}

func TestTargetDowntimes(t *testing.T) {
	snap := buildSnapshot()

	hostTarget, _ := snap.Resolve("web1", "")
	svcTarget, _ := snap.Resolve("web1", "http")

	own := snap.TargetDowntimes(hostTarget, false)
	if len(own) != 1 || own[0].ID != 5 {
		t.Errorf("host downtimes = %v, want [5]", ids(own))
	}

	all := snap.TargetDowntimes(hostTarget, true)
	if len(all) != 3 || all[0].ID != 2 || all[1].ID != 5 || all[2].ID != 8 {
		t.Errorf("host+services downtimes = %v, want [2 5 8]", ids(all))
	}

	svc := snap.TargetDowntimes(svcTarget, true)
	if len(svc) != 1 || svc[0].ID != 2 {
		t.Errorf("service downtimes = %v, want [2]", ids(svc))
	}
}

func TestDowntimeKind(t *testing.T) {
	if (&Downtime{Host: "h"}).Kind() != TargetHost {
		t.Error("downtime without service should be host-level")
	}
	if (&Downtime{Host: "h", Service: "s"}).Kind() != TargetService {
		t.Error("downtime with service should be service-level")
	}
}

func ids(downtimes []*Downtime) []int {
	out := make([]int, len(downtimes))
	for i, d := range downtimes {
		out[i] = d.ID
	}
	return out
}
