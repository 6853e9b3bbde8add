// internal/web/handlers.go
package web

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"nagrelay/internal/state"
)

const (
	minDowntimeSeconds = 60
	maxDowntimeSeconds = 604800

	defaultAuthor  = "nagrelay"
	defaultComment = "Scheduled via nagrelay"
)

// GET /state - full snapshot: every host with its string attributes and
// nested services.
func (s *Server) getState(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	hosts := make(map[string]interface{}, len(snap.Hosts))
	for name, host := range snap.Hosts {
		entry := make(map[string]interface{}, len(host.Attrs)+2)
		for k, v := range host.Attrs {
			entry[k] = v
		}

		services := make(map[string]map[string]string, len(host.Services))
		for svcName, svc := range host.Services {
			services[svcName] = svc.Attrs
		}
		entry["services"] = services
		entry["downtimes"] = host.Downtimes
		hosts[name] = entry
	}

	s.respond(c, hosts)
}

// GET /objects - host to service-name topology, no attribute values.
func (s *Server) getObjects(c *gin.Context) {
	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	topology := make(map[string][]string, len(snap.Hosts))
	for name, host := range snap.Hosts {
		topology[name] = host.ServiceNames()
	}

	s.respond(c, topology)
}

// GET /host/<name>
func (s *Server) getHost(c *gin.Context) {
	name := c.Param("id")
	if name == "" {
		s.fail(c, "host name required")
		return
	}

	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	host, ok := snap.Hosts[name]
	if !ok {
		s.fail(c, fmt.Sprintf("unknown host %q", name))
		return
	}

	entry := make(map[string]interface{}, len(host.Attrs)+1)
	for k, v := range host.Attrs {
		entry[k] = v
	}
	entry["services"] = host.ServiceNames()

	s.respond(c, entry)
}

// GET /service/<host>
func (s *Server) getServices(c *gin.Context) {
	name := c.Param("id")
	if name == "" {
		s.fail(c, "host name required")
		return
	}

	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	host, ok := snap.Hosts[name]
	if !ok {
		s.fail(c, fmt.Sprintf("unknown host %q", name))
		return
	}
	if len(host.Services) == 0 {
		s.fail(c, fmt.Sprintf("host %q has no services", name))
		return
	}

	services := make(map[string]map[string]string, len(host.Services))
	for svcName, svc := range host.Services {
		services[svcName] = svc.Attrs
	}

	s.respond(c, services)
}

// GET /log - buffered log lines, oldest first.
func (s *Server) getLog(c *gin.Context) {
	if s.logs == nil {
		s.fail(c, "log tailing is not enabled")
		return
	}
	s.respond(c, s.logs.Lines())
}

// POST /schedule_downtime
func (s *Server) scheduleDowntime(c *gin.Context) {
	payload, ok := s.body(c)
	if !ok {
		return
	}
	if !s.commands.Enabled() {
		s.fail(c, "command dispatch is disabled")
		return
	}

	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	hostName, _ := stringField(payload, "host")
	if hostName == "" {
		s.fail(c, "host is required")
		return
	}
	serviceName, _ := stringField(payload, "service")

	target, err := snap.Resolve(hostName, serviceName)
	if err != nil {
		s.fail(c, err.Error())
		return
	}

	duration, _ := intField(payload, "duration")
	if duration < minDowntimeSeconds || duration > maxDowntimeSeconds {
		s.fail(c, fmt.Sprintf("duration must be between %d and %d seconds, got %d",
			minDowntimeSeconds, maxDowntimeSeconds, duration))
		return
	}

	author, ok := stringField(payload, "author")
	if !ok || author == "" {
		author = defaultAuthor
	}
	comment, ok := stringField(payload, "comment")
	if !ok || comment == "" {
		comment = defaultComment
	}

	start := time.Now()
	end := start.Add(time.Duration(duration) * time.Second)
	startArg := strconv.FormatInt(start.Unix(), 10)
	endArg := strconv.FormatInt(end.Unix(), 10)
	durationArg := strconv.Itoa(duration)

	if target.Kind == state.TargetService {
		err = s.commands.Submit("SCHEDULE_SVC_DOWNTIME", hostName, serviceName,
			startArg, endArg, "1", "0", durationArg, author, comment)
	} else {
		err = s.commands.Submit("SCHEDULE_HOST_DOWNTIME", hostName,
			startArg, endArg, "1", "0", durationArg, author, comment)
		if err == nil && boolField(payload, "services_too") {
			err = s.commands.Submit("SCHEDULE_HOST_SVC_DOWNTIME", hostName,
				startArg, endArg, "1", "0", durationArg, author, comment)
		}
	}
	if err != nil {
		logrus.WithError(err).WithField("host", hostName).Error("Failed to schedule downtime")
		s.fail(c, "could not schedule downtime: "+err.Error())
		return
	}

	s.respond(c, "scheduled")
}

// POST /cancel_downtime[/<id>]
func (s *Server) cancelDowntime(c *gin.Context) {
	payload, ok := s.body(c)
	if !ok {
		return
	}
	if !s.commands.Enabled() {
		s.fail(c, "command dispatch is disabled")
		return
	}

	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	var downtimes []*state.Downtime
	if idArg := c.Param("id"); idArg != "" {
		id, err := strconv.Atoi(idArg)
		if err != nil {
			s.fail(c, fmt.Sprintf("invalid downtime id %q", idArg))
			return
		}
		dt, ok := snap.Downtimes[id]
		if !ok {
			s.fail(c, fmt.Sprintf("unknown downtime id %d", id))
			return
		}
		downtimes = []*state.Downtime{dt}
	} else {
		hostName, _ := stringField(payload, "host")
		if hostName == "" {
			s.fail(c, "host is required")
			return
		}
		serviceName, _ := stringField(payload, "service")

		target, err := snap.Resolve(hostName, serviceName)
		if err != nil {
			s.fail(c, err.Error())
			return
		}
		downtimes = snap.TargetDowntimes(target, boolField(payload, "services_too"))
	}

	if len(downtimes) == 0 {
		s.respond(c, "none found")
		return
	}

	failed := 0
	for _, dt := range downtimes {
		cmd := "DEL_HOST_DOWNTIME"
		if dt.Kind() == state.TargetService {
			cmd = "DEL_SVC_DOWNTIME"
		}
		if err := s.commands.Submit(cmd, strconv.Itoa(dt.ID)); err != nil {
			logrus.WithError(err).WithField("downtime_id", dt.ID).Error("Failed to cancel downtime")
			failed++
		}
	}
	if failed > 0 {
		s.fail(c, fmt.Sprintf("failed to cancel %d of %d downtimes", failed, len(downtimes)))
		return
	}

	s.respond(c, "cancelled")
}

// POST /submit_result - passive check result passthrough. The status code
// only has to parse as an integer; its meaning is the caller's business.
func (s *Server) submitResult(c *gin.Context) {
	payload, ok := s.body(c)
	if !ok {
		return
	}
	if !s.commands.Enabled() {
		s.fail(c, "command dispatch is disabled")
		return
	}

	snap := s.snapshot(c)
	if snap == nil {
		return
	}

	hostName, _ := stringField(payload, "host")
	if hostName == "" {
		s.fail(c, "host is required")
		return
	}
	serviceName, _ := stringField(payload, "service")

	target, err := snap.Resolve(hostName, serviceName)
	if err != nil {
		s.fail(c, err.Error())
		return
	}

	status, ok := intField(payload, "status")
	if !ok {
		s.fail(c, "status must be an integer")
		return
	}
	output, ok := stringField(payload, "output")
	if !ok || output == "" {
		s.fail(c, "output is required")
		return
	}

	statusArg := strconv.Itoa(status)
	if target.Kind == state.TargetService {
		err = s.commands.Submit("PROCESS_SERVICE_CHECK_RESULT", hostName, serviceName, statusArg, output)
	} else {
		err = s.commands.Submit("PROCESS_HOST_CHECK_RESULT", hostName, statusArg, output)
	}
	if err != nil {
		logrus.WithError(err).WithField("host", hostName).Error("Failed to submit check result")
		s.fail(c, "could not submit result: "+err.Error())
		return
	}

	s.respond(c, "submitted")
}

// snapshot fetches the current snapshot or answers with a failure envelope
// when nothing has been published yet.
func (s *Server) snapshot(c *gin.Context) *state.Snapshot {
	snap := s.provider.Current()
	if snap == nil {
		s.fail(c, "monitoring state not loaded yet")
	}
	return snap
}

// body decodes a POST body into a JSON object. An empty body is treated as
// an empty object; anything that is valid JSON but not an object (a list,
// a scalar) is rejected before handler logic runs.
func (s *Server) body(c *gin.Context) (map[string]interface{}, bool) {
	payload := map[string]interface{}{}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return payload, true
	}
	if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
		s.fail(c, "request body must be a JSON object")
		return nil, false
	}
	return payload, true
}

func stringField(payload map[string]interface{}, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// intField accepts JSON numbers and numeric strings.
func intField(payload map[string]interface{}, key string) (int, bool) {
	switch v := payload[key].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func boolField(payload map[string]interface{}, key string) bool {
	v, ok := payload[key].(bool)
	return ok && v
}
