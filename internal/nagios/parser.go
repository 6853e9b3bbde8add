// internal/nagios/parser.go
package nagios

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"nagrelay/internal/state"
)

// ParseStatusFile reads a Nagios-style status file into a snapshot. The
// file is a sequence of blocks:
//
//	hoststatus {
//	    host_name=web1
//	    current_state=0
//	    ...
//	}
//
// All attribute values are kept as strings. Block types other than host
// status, service status and downtimes are skipped.
func ParseStatusFile(path string) (*state.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open status file: %w", err)
	}
	defer f.Close()

	snap, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse status file %s: %w", path, err)
	}
	return snap, nil
}

// Parse consumes status file content from r and builds a snapshot.
func Parse(r io.Reader) (*state.Snapshot, error) {
	snap := state.NewSnapshot()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		blockType string
		attrs     map[string]string
		lineNo    int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if blockType == "" {
			if !strings.HasSuffix(line, "{") {
				return nil, fmt.Errorf("line %d: expected block header, got %q", lineNo, line)
			}
			blockType = strings.TrimSpace(strings.TrimSuffix(line, "{"))
			attrs = make(map[string]string)
			continue
		}

		if line == "}" {
			if err := applyBlock(snap, blockType, attrs); err != nil {
				return nil, fmt.Errorf("line %d: %s block: %w", lineNo, blockType, err)
			}
			blockType = ""
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: malformed attribute %q", lineNo, line)
		}
		attrs[strings.TrimSpace(key)] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if blockType != "" {
		return nil, fmt.Errorf("unterminated %s block", blockType)
	}
	return snap, nil
}

func applyBlock(snap *state.Snapshot, blockType string, attrs map[string]string) error {
	switch blockType {
	case "hoststatus":
		name := attrs["host_name"]
		if name == "" {
			return fmt.Errorf("missing host_name")
		}
		host := ensureHost(snap, name)
		host.Attrs = attrs

	case "servicestatus":
		hostName := attrs["host_name"]
		svcName := attrs["service_description"]
		if hostName == "" || svcName == "" {
			return fmt.Errorf("missing host_name or service_description")
		}
		host := ensureHost(snap, hostName)
		host.Services[svcName] = &state.Service{
			Host:  hostName,
			Name:  svcName,
			Attrs: attrs,
		}

	case "hostdowntime", "servicedowntime":
		dt, err := parseDowntime(blockType, attrs)
		if err != nil {
			return err
		}
		snap.Downtimes[dt.ID] = dt
		attachDowntime(snap, dt)
	}
	return nil
}

func parseDowntime(blockType string, attrs map[string]string) (*state.Downtime, error) {
	id, err := strconv.Atoi(attrs["downtime_id"])
	if err != nil {
		return nil, fmt.Errorf("bad downtime_id %q", attrs["downtime_id"])
	}
	startTS, err := strconv.ParseInt(attrs["start_time"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad start_time %q", attrs["start_time"])
	}
	endTS, err := strconv.ParseInt(attrs["end_time"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad end_time %q", attrs["end_time"])
	}

	dt := &state.Downtime{
		ID:    id,
		Host:  attrs["host_name"],
		Start: time.Unix(startTS, 0),
		End:   time.Unix(endTS, 0),
	}
	if dt.Host == "" {
		return nil, fmt.Errorf("missing host_name")
	}
	if blockType == "servicedowntime" {
		dt.Service = attrs["service_description"]
		if dt.Service == "" {
			return nil, fmt.Errorf("missing service_description")
		}
	}
	return dt, nil
}

// attachDowntime records the back-reference on the downtime's host or
// service. The engine can report downtimes for objects missing from the
// status blocks; those stay reachable by id only.
func attachDowntime(snap *state.Snapshot, dt *state.Downtime) {
	host, ok := snap.Hosts[dt.Host]
	if !ok {
		return
	}
	if dt.Service == "" {
		host.Downtimes = append(host.Downtimes, dt.ID)
		return
	}
	if svc, ok := host.Services[dt.Service]; ok {
		svc.Downtimes = append(svc.Downtimes, dt.ID)
	}
}

func ensureHost(snap *state.Snapshot, name string) *state.Host {
	host, ok := snap.Hosts[name]
	if !ok {
		host = &state.Host{
			Name:     name,
			Attrs:    map[string]string{},
			Services: make(map[string]*state.Service),
		}
		snap.Hosts[name] = host
	}
	return host
}
