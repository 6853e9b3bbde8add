// internal/nagios/parser_test.go
package nagios

import (
	"strings"
	"testing"
	"time"
)

const sampleStatus = `
# Nagios status file

info {
	created=1700000000
	version=4.4.6
	}

hoststatus {
	host_name=web1
	current_state=0
	plugin_output=PING OK
	last_check=1700000000
	}

hoststatus {
	host_name=db1
	current_state=2
	plugin_output=CRITICAL - host unreachable
	}

servicestatus {
	host_name=web1
	service_description=http
	current_state=0
	plugin_output=HTTP OK
	}

servicestatus {
	host_name=web1
	service_description=ssh
	current_state=1
	}

hostdowntime {
	downtime_id=7
	host_name=db1
	start_time=1700000100
	end_time=1700003700
	}

servicedowntime {
	downtime_id=9
	host_name=web1
	service_description=http
	start_time=1700000200
	end_time=1700000800
	}
`

func TestParse_Sample(t *testing.T) {
	snap, err := Parse(strings.NewReader(sampleStatus))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(snap.Hosts) != 2 {
		t.Fatalf("hosts = %d, want 2", len(snap.Hosts))
	}

	web1 := snap.Hosts["web1"]
	if web1 == nil {
		t.Fatal("missing host web1")
	}
	if web1.Attrs["plugin_output"] != "PING OK" {
		t.Errorf("web1 plugin_output = %q", web1.Attrs["plugin_output"])
	}
	if len(web1.Services) != 2 {
		t.Fatalf("web1 services = %d, want 2", len(web1.Services))
	}
	if web1.Services["http"].Attrs["current_state"] != "0" {
		t.Errorf("http current_state = %q", web1.Services["http"].Attrs["current_state"])
	}

	if len(snap.Downtimes) != 2 {
		t.Fatalf("downtimes = %d, want 2", len(snap.Downtimes))
	}

	dt := snap.Downtimes[7]
	if dt == nil || dt.Host != "db1" || dt.Service != "" {
		t.Fatalf("downtime 7 = %+v, want host-level on db1", dt)
	}
	if !dt.Start.Equal(time.Unix(1700000100, 0)) {
		t.Errorf("downtime 7 start = %v", dt.Start)
	}
	if got := snap.Hosts["db1"].Downtimes; len(got) != 1 || got[0] != 7 {
		t.Errorf("db1 downtime refs = %v, want [7]", got)
	}

	svcDT := snap.Downtimes[9]
	if svcDT == nil || svcDT.Service != "http" {
		t.Fatalf("downtime 9 = %+v, want service-level on web1/http", svcDT)
	}
	if got := web1.Services["http"].Downtimes; len(got) != 1 || got[0] != 9 {
		t.Errorf("http downtime refs = %v, want [9]", got)
	}
}

func TestParse_ValueMayContainEquals(t *testing.T) {
	input := "hoststatus {\nhost_name=web1\nplugin_output=load=1.5, ok\n}\n"
	snap, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := snap.Hosts["web1"].Attrs["plugin_output"]; got != "load=1.5, ok" {
		t.Errorf("plugin_output = %q", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated block", "hoststatus {\nhost_name=web1\n"},
		{"stray line outside block", "host_name=web1\n"},
		{"malformed attribute", "hoststatus {\nno equals sign here\n}\n"},
		{"missing host_name", "hoststatus {\ncurrent_state=0\n}\n"},
		{"bad downtime id", "hostdowntime {\ndowntime_id=abc\nhost_name=h\nstart_time=1\nend_time=2\n}\n"},
		{"bad start_time", "hostdowntime {\ndowntime_id=1\nhost_name=h\nstart_time=soon\nend_time=2\n}\n"},
		{"service downtime without service", "servicedowntime {\ndowntime_id=1\nhost_name=h\nstart_time=1\nend_time=2\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Errorf("Parse accepted %q, want error", tt.input)
			}
		})
	}
}

func TestParse_SkipsUnknownBlocks(t *testing.T) {
	input := "programstatus {\nnagios_pid=42\n}\nhoststatus {\nhost_name=web1\n}\n"
	snap, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(snap.Hosts) != 1 {
		t.Errorf("hosts = %d, want 1", len(snap.Hosts))
	}
}
