package extcmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oceanplexian/livestatusd/internal/downtime"
	"github.com/oceanplexian/livestatusd/internal/objects"
	"github.com/oceanplexian/livestatusd/internal/triggers"
)

type handler struct {
	args int
	kind triggers.Kind
	fn   func(d *Dispatcher, args []string) error
}

var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		"PROCESS_HOST_CHECK_RESULT":    {3, triggers.Check, processHostCheckResult},
		"PROCESS_SERVICE_CHECK_RESULT": {4, triggers.Check, processServiceCheckResult},

		"ACKNOWLEDGE_HOST_PROBLEM":    {6, triggers.Comment, acknowledgeHostProblem},
		"ACKNOWLEDGE_SVC_PROBLEM":     {7, triggers.Comment, acknowledgeSvcProblem},
		"REMOVE_HOST_ACKNOWLEDGEMENT": {1, triggers.Comment, removeHostAcknowledgement},
		"REMOVE_SVC_ACKNOWLEDGEMENT":  {2, triggers.Comment, removeSvcAcknowledgement},

		"ADD_HOST_COMMENT":      {4, triggers.Comment, addHostComment},
		"ADD_SVC_COMMENT":       {5, triggers.Comment, addSvcComment},
		"DEL_HOST_COMMENT":      {1, triggers.Comment, delComment},
		"DEL_SVC_COMMENT":       {1, triggers.Comment, delComment},
		"DEL_ALL_HOST_COMMENTS": {1, triggers.Comment, delAllHostComments},
		"DEL_ALL_SVC_COMMENTS":  {2, triggers.Comment, delAllSvcComments},

		"SCHEDULE_HOST_DOWNTIME":    {8, triggers.Downtime, scheduleHostDowntime},
		"SCHEDULE_SVC_DOWNTIME":     {9, triggers.Downtime, scheduleSvcDowntime},
		"DEL_HOST_DOWNTIME":         {1, triggers.Downtime, delDowntime},
		"DEL_SVC_DOWNTIME":          {1, triggers.Downtime, delDowntime},
		"DEL_DOWNTIME_BY_HOST_NAME": {1, triggers.Downtime, delDowntimeByHostName},

		"ENABLE_HOST_CHECK":            {1, triggers.State, hostFlag(setActiveChecks, true)},
		"DISABLE_HOST_CHECK":           {1, triggers.State, hostFlag(setActiveChecks, false)},
		"ENABLE_SVC_CHECK":             {2, triggers.State, svcFlag(setActiveChecks, true)},
		"DISABLE_SVC_CHECK":            {2, triggers.State, svcFlag(setActiveChecks, false)},
		"ENABLE_PASSIVE_HOST_CHECKS":   {1, triggers.State, hostFlag(setPassiveChecks, true)},
		"DISABLE_PASSIVE_HOST_CHECKS":  {1, triggers.State, hostFlag(setPassiveChecks, false)},
		"ENABLE_PASSIVE_SVC_CHECKS":    {2, triggers.State, svcFlag(setPassiveChecks, true)},
		"DISABLE_PASSIVE_SVC_CHECKS":   {2, triggers.State, svcFlag(setPassiveChecks, false)},
		"ENABLE_HOST_NOTIFICATIONS":    {1, triggers.State, hostFlag(setNotifications, true)},
		"DISABLE_HOST_NOTIFICATIONS":   {1, triggers.State, hostFlag(setNotifications, false)},
		"ENABLE_SVC_NOTIFICATIONS":     {2, triggers.State, svcFlag(setNotifications, true)},
		"DISABLE_SVC_NOTIFICATIONS":    {2, triggers.State, svcFlag(setNotifications, false)},
		"ENABLE_HOST_EVENT_HANDLER":    {1, triggers.State, hostFlag(setEventHandler, true)},
		"DISABLE_HOST_EVENT_HANDLER":   {1, triggers.State, hostFlag(setEventHandler, false)},
		"ENABLE_SVC_EVENT_HANDLER":     {2, triggers.State, svcFlag(setEventHandler, true)},
		"DISABLE_SVC_EVENT_HANDLER":    {2, triggers.State, svcFlag(setEventHandler, false)},
		"ENABLE_HOST_FLAP_DETECTION":   {1, triggers.State, hostFlag(setFlapDetection, true)},
		"DISABLE_HOST_FLAP_DETECTION":  {1, triggers.State, hostFlag(setFlapDetection, false)},
		"ENABLE_SVC_FLAP_DETECTION":    {2, triggers.State, svcFlag(setFlapDetection, true)},
		"DISABLE_SVC_FLAP_DETECTION":   {2, triggers.State, svcFlag(setFlapDetection, false)},
		"CHANGE_CUSTOM_HOST_VAR":       {3, triggers.State, changeCustomHostVar},
		"CHANGE_CUSTOM_SVC_VAR":        {4, triggers.State, changeCustomSvcVar},
		"SET_HOST_NOTIFICATION_NUMBER": {2, triggers.State, setHostNotificationNumber},
		"SET_SVC_NOTIFICATION_NUMBER":  {3, triggers.State, setSvcNotificationNumber},

		"ENABLE_NOTIFICATIONS":                {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.EnableNotifications }, true)},
		"DISABLE_NOTIFICATIONS":               {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.EnableNotifications }, false)},
		"START_EXECUTING_SVC_CHECKS":          {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.ExecuteServiceChecks }, true)},
		"STOP_EXECUTING_SVC_CHECKS":           {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.ExecuteServiceChecks }, false)},
		"START_EXECUTING_HOST_CHECKS":         {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.ExecuteHostChecks }, true)},
		"STOP_EXECUTING_HOST_CHECKS":          {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.ExecuteHostChecks }, false)},
		"START_ACCEPTING_PASSIVE_SVC_CHECKS":  {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.AcceptPassiveServiceChecks }, true)},
		"STOP_ACCEPTING_PASSIVE_SVC_CHECKS":   {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.AcceptPassiveServiceChecks }, false)},
		"START_ACCEPTING_PASSIVE_HOST_CHECKS": {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.AcceptPassiveHostChecks }, true)},
		"STOP_ACCEPTING_PASSIVE_HOST_CHECKS":  {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.AcceptPassiveHostChecks }, false)},
		"ENABLE_EVENT_HANDLERS":               {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.EnableEventHandlers }, true)},
		"DISABLE_EVENT_HANDLERS":              {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.EnableEventHandlers }, false)},
		"ENABLE_FLAP_DETECTION":               {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.EnableFlapDetection }, true)},
		"DISABLE_FLAP_DETECTION":              {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.EnableFlapDetection }, false)},
		"ENABLE_PERFORMANCE_DATA":             {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.ProcessPerformanceData }, true)},
		"DISABLE_PERFORMANCE_DATA":            {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.ProcessPerformanceData }, false)},
		"ENABLE_SERVICE_FRESHNESS_CHECKS":     {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.CheckServiceFreshness }, true)},
		"DISABLE_SERVICE_FRESHNESS_CHECKS":    {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.CheckServiceFreshness }, false)},
		"ENABLE_HOST_FRESHNESS_CHECKS":        {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.CheckHostFreshness }, true)},
		"DISABLE_HOST_FRESHNESS_CHECKS":       {0, triggers.Program, global(func(g *objects.GlobalState) *bool { return &g.CheckHostFreshness }, false)},
	}
}

func (d *Dispatcher) host(name string) (*objects.Host, error) {
	h := d.provider.Store.GetHost(name)
	if h == nil {
		return nil, fmt.Errorf("unknown host '%s'", name)
	}
	return h, nil
}

func (d *Dispatcher) service(hostName, desc string) (*objects.Service, error) {
	s := d.provider.Store.GetService(hostName, desc)
	if s == nil {
		return nil, fmt.Errorf("unknown service '%s;%s'", hostName, desc)
	}
	return s, nil
}

func parseBool(s string) bool {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n != 0
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid number '%s'", s)
	}
	return n, nil
}

func parseUnix(s string) (time.Time, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp '%s'", s)
	}
	return time.Unix(n, 0), nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id '%s'", s)
	}
	return id, nil
}

// checkResult holds the state fields a passive result touches on a host or
// service.
type checkResult struct {
	state, lastState, lastHardState, stateType, attempt *int
	checked, acked                                      *bool
	output, longOutput, perfData                        *string
	lastCheck, lastStateChange, lastHardStateChange     *time.Time
	checkType, ackType                                  *int
	maxAttempts                                         int
}

// splitPluginOutput splits "short|perf\nlong|perf" plugin output.
func splitPluginOutput(raw string) (output, long, perf string) {
	raw = strings.ReplaceAll(raw, `\n`, "\n")
	first, rest, _ := strings.Cut(raw, "\n")
	output, perf, _ = strings.Cut(first, "|")
	if rest != "" {
		var morePerf string
		long, morePerf, _ = strings.Cut(rest, "|")
		if morePerf != "" {
			perf = strings.TrimSpace(perf + " " + morePerf)
		}
	}
	return strings.TrimSpace(output), long, strings.TrimSpace(perf)
}

// apply records a passive result and reports whether the state changed.
func (r checkResult) apply(state int, raw string, now time.Time) bool {
	old := *r.state
	maxAttempts := max(r.maxAttempts, 1)

	*r.output, *r.longOutput, *r.perfData = splitPluginOutput(raw)
	*r.lastCheck = now
	*r.checked = true
	*r.checkType = objects.CheckTypePassive
	*r.lastState = old
	if state != old {
		*r.lastStateChange = now
	}

	switch {
	case state == 0, old == 0:
		*r.attempt = 1
	case *r.attempt < maxAttempts:
		*r.attempt++
	}
	*r.stateType = objects.StateTypeHard
	if state != 0 && *r.attempt < maxAttempts {
		*r.stateType = objects.StateTypeSoft
	}
	*r.state = state
	if *r.stateType == objects.StateTypeHard && *r.lastHardState != state {
		*r.lastHardState = state
		*r.lastHardStateChange = now
	}

	// A normal acknowledgement ends with any state change, a sticky one
	// only with recovery.
	if state == 0 || (*r.ackType == objects.AckNormal && state != old) {
		*r.acked = false
		*r.ackType = objects.AckNone
	}
	return state != old
}

func processHostCheckResult(d *Dispatcher, args []string) error {
	h, err := d.host(args[0])
	if err != nil {
		return err
	}
	state, err := parseInt(args[1])
	if err != nil {
		return err
	}
	if state < objects.HostUp || state > objects.HostUnreachable {
		return fmt.Errorf("invalid host state %d", state)
	}
	changed := checkResult{
		state: &h.CurrentState, lastState: &h.LastState, lastHardState: &h.LastHardState,
		stateType: &h.StateType, attempt: &h.CurrentAttempt, checked: &h.HasBeenChecked,
		acked: &h.ProblemAcknowledged, output: &h.PluginOutput, longOutput: &h.LongPluginOutput,
		perfData: &h.PerfData, lastCheck: &h.LastCheck, lastStateChange: &h.LastStateChange,
		lastHardStateChange: &h.LastHardStateChange, checkType: &h.CheckType, ackType: &h.AckType,
		maxAttempts: h.MaxCheckAttempts,
	}.apply(state, args[2], d.now())
	if changed {
		d.history(d.provider.History.HostAlert(h))
		d.logger.Info("host alert",
			zap.String("host", h.Name),
			zap.String("state", objects.HostStateName(state)),
			zap.String("state_type", objects.StateTypeName(h.StateType)),
			zap.Int("attempt", h.CurrentAttempt),
			zap.String("output", h.PluginOutput))
	}
	if !h.ProblemAcknowledged {
		d.provider.Comments.DeleteHostAckComments(h.Name)
	}
	return nil
}

func processServiceCheckResult(d *Dispatcher, args []string) error {
	s, err := d.service(args[0], args[1])
	if err != nil {
		return err
	}
	state, err := parseInt(args[2])
	if err != nil {
		return err
	}
	if state < objects.ServiceOK || state > objects.ServiceUnknown {
		return fmt.Errorf("invalid service state %d", state)
	}
	changed := checkResult{
		state: &s.CurrentState, lastState: &s.LastState, lastHardState: &s.LastHardState,
		stateType: &s.StateType, attempt: &s.CurrentAttempt, checked: &s.HasBeenChecked,
		acked: &s.ProblemAcknowledged, output: &s.PluginOutput, longOutput: &s.LongPluginOutput,
		perfData: &s.PerfData, lastCheck: &s.LastCheck, lastStateChange: &s.LastStateChange,
		lastHardStateChange: &s.LastHardStateChange, checkType: &s.CheckType, ackType: &s.AckType,
		maxAttempts: s.MaxCheckAttempts,
	}.apply(state, args[3], d.now())
	if changed {
		d.history(d.provider.History.ServiceAlert(s))
		d.logger.Info("service alert",
			zap.String("host", s.Host.Name),
			zap.String("service", s.Description),
			zap.String("state", objects.ServiceStateName(state)),
			zap.String("state_type", objects.StateTypeName(s.StateType)),
			zap.Int("attempt", s.CurrentAttempt),
			zap.String("output", s.PluginOutput))
	}
	if !s.ProblemAcknowledged {
		d.provider.Comments.DeleteServiceAckComments(s.Host.Name, s.Description)
	}
	return nil
}

func ackType(sticky string) int {
	if n, _ := strconv.Atoi(strings.TrimSpace(sticky)); n == 2 {
		return objects.AckSticky
	}
	return objects.AckNormal
}

// host;sticky;notify;persistent;author;comment
func acknowledgeHostProblem(d *Dispatcher, args []string) error {
	h, err := d.host(args[0])
	if err != nil {
		return err
	}
	if h.CurrentState == objects.HostUp {
		return fmt.Errorf("host '%s' has no problem to acknowledge", h.Name)
	}
	h.ProblemAcknowledged = true
	h.AckType = ackType(args[1])
	d.provider.Comments.Add(&downtime.Comment{
		CommentType: objects.HostCommentType,
		EntryType:   objects.AcknowledgementCommentEntry,
		HostName:    h.Name,
		Persistent:  parseBool(args[3]),
		Source:      1,
		Author:      args[4],
		Data:        args[5],
	})
	return nil
}

// host;svc;sticky;notify;persistent;author;comment
func acknowledgeSvcProblem(d *Dispatcher, args []string) error {
	s, err := d.service(args[0], args[1])
	if err != nil {
		return err
	}
	if s.CurrentState == objects.ServiceOK {
		return fmt.Errorf("service '%s;%s' has no problem to acknowledge", args[0], args[1])
	}
	s.ProblemAcknowledged = true
	s.AckType = ackType(args[2])
	d.provider.Comments.Add(&downtime.Comment{
		CommentType:        objects.ServiceCommentType,
		EntryType:          objects.AcknowledgementCommentEntry,
		HostName:           s.Host.Name,
		ServiceDescription: s.Description,
		Persistent:         parseBool(args[4]),
		Source:             1,
		Author:             args[5],
		Data:               args[6],
	})
	return nil
}

func removeHostAcknowledgement(d *Dispatcher, args []string) error {
	h, err := d.host(args[0])
	if err != nil {
		return err
	}
	h.ProblemAcknowledged = false
	h.AckType = objects.AckNone
	d.provider.Comments.DeleteHostAckComments(h.Name)
	return nil
}

func removeSvcAcknowledgement(d *Dispatcher, args []string) error {
	s, err := d.service(args[0], args[1])
	if err != nil {
		return err
	}
	s.ProblemAcknowledged = false
	s.AckType = objects.AckNone
	d.provider.Comments.DeleteServiceAckComments(s.Host.Name, s.Description)
	return nil
}

// host;persistent;author;comment
func addHostComment(d *Dispatcher, args []string) error {
	h, err := d.host(args[0])
	if err != nil {
		return err
	}
	d.provider.Comments.Add(&downtime.Comment{
		CommentType: objects.HostCommentType,
		EntryType:   objects.UserCommentEntry,
		HostName:    h.Name,
		Persistent:  parseBool(args[1]),
		Source:      1,
		Author:      args[2],
		Data:        args[3],
	})
	return nil
}

// host;svc;persistent;author;comment
func addSvcComment(d *Dispatcher, args []string) error {
	s, err := d.service(args[0], args[1])
	if err != nil {
		return err
	}
	d.provider.Comments.Add(&downtime.Comment{
		CommentType:        objects.ServiceCommentType,
		EntryType:          objects.UserCommentEntry,
		HostName:           s.Host.Name,
		ServiceDescription: s.Description,
		Persistent:         parseBool(args[2]),
		Source:             1,
		Author:             args[3],
		Data:               args[4],
	})
	return nil
}

func delComment(d *Dispatcher, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !d.provider.Comments.Delete(id) {
		return fmt.Errorf("no comment with id %d", id)
	}
	return nil
}

func delAllHostComments(d *Dispatcher, args []string) error {
	h, err := d.host(args[0])
	if err != nil {
		return err
	}
	d.provider.Comments.DeleteAllForHost(h.Name)
	return nil
}

func delAllSvcComments(d *Dispatcher, args []string) error {
	s, err := d.service(args[0], args[1])
	if err != nil {
		return err
	}
	d.provider.Comments.DeleteAllForService(s.Host.Name, s.Description)
	return nil
}

// parseDowntime reads start;end;fixed;trigger_id;duration;author;comment.
func parseDowntime(args []string) (*downtime.Downtime, error) {
	start, err := parseUnix(args[0])
	if err != nil {
		return nil, err
	}
	end, err := parseUnix(args[1])
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, fmt.Errorf("downtime ends before it starts")
	}
	var triggeredBy uint64
	if strings.TrimSpace(args[3]) != "" {
		if triggeredBy, err = parseID(args[3]); err != nil {
			return nil, err
		}
	}
	duration, err := parseInt(args[4])
	if err != nil {
		return nil, err
	}
	return &downtime.Downtime{
		StartTime:   start,
		EndTime:     end,
		Fixed:       parseBool(args[2]),
		TriggeredBy: triggeredBy,
		Duration:    time.Duration(duration) * time.Second,
		Author:      args[5],
		Comment:     args[6],
	}, nil
}

func scheduleHostDowntime(d *Dispatcher, args []string) error {
	h, err := d.host(args[0])
	if err != nil {
		return err
	}
	dt, err := parseDowntime(args[1:])
	if err != nil {
		return err
	}
	dt.Type = objects.HostDowntimeType
	dt.HostName = h.Name
	d.provider.Downtimes.Schedule(dt)
	if dt.IsInEffect {
		d.history(d.provider.History.HostDowntime(h.Name, "STARTED", "Host has entered a period of scheduled downtime"))
	}
	return nil
}

func scheduleSvcDowntime(d *Dispatcher, args []string) error {
	s, err := d.service(args[0], args[1])
	if err != nil {
		return err
	}
	dt, err := parseDowntime(args[2:])
	if err != nil {
		return err
	}
	dt.Type = objects.ServiceDowntimeType
	dt.HostName = s.Host.Name
	dt.ServiceDescription = s.Description
	d.provider.Downtimes.Schedule(dt)
	if dt.IsInEffect {
		d.history(d.provider.History.ServiceDowntime(s.Host.Name, s.Description, "STARTED",
			"Service has entered a period of scheduled downtime"))
	}
	return nil
}

func delDowntime(d *Dispatcher, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	dt := d.provider.Downtimes.Get(id)
	if dt == nil || !d.provider.Downtimes.Unschedule(id) {
		return fmt.Errorf("no downtime with id %d", id)
	}
	if dt.IsService() {
		d.history(d.provider.History.ServiceDowntime(dt.HostName, dt.ServiceDescription, "CANCELLED",
			"Scheduled downtime for service has been cancelled."))
	} else {
		d.history(d.provider.History.HostDowntime(dt.HostName, "CANCELLED", "Scheduled downtime for host has been cancelled."))
	}
	return nil
}

func delDowntimeByHostName(d *Dispatcher, args []string) error {
	h, err := d.host(args[0])
	if err != nil {
		return err
	}
	d.provider.Downtimes.DeleteByHost(h.Name)
	return nil
}

// flagSetter flips one per-object flag and its modified attribute bit.
type flagSetter struct {
	bit  uint64
	host func(*objects.Host) *bool
	svc  func(*objects.Service) *bool
}

var (
	setActiveChecks = flagSetter{objects.ModattrActiveChecksEnabled,
		func(h *objects.Host) *bool { return &h.ActiveChecksEnabled },
		func(s *objects.Service) *bool { return &s.ActiveChecksEnabled }}
	setPassiveChecks = flagSetter{objects.ModattrPassiveChecksEnabled,
		func(h *objects.Host) *bool { return &h.PassiveChecksEnabled },
		func(s *objects.Service) *bool { return &s.PassiveChecksEnabled }}
	setNotifications = flagSetter{objects.ModattrNotificationsEnabled,
		func(h *objects.Host) *bool { return &h.NotificationsEnabled },
		func(s *objects.Service) *bool { return &s.NotificationsEnabled }}
	setEventHandler = flagSetter{objects.ModattrEventHandlerEnabled,
		func(h *objects.Host) *bool { return &h.EventHandlerEnabled },
		func(s *objects.Service) *bool { return &s.EventHandlerEnabled }}
	setFlapDetection = flagSetter{objects.ModattrFlapDetectionEnabled,
		func(h *objects.Host) *bool { return &h.FlapDetectionEnabled },
		func(s *objects.Service) *bool { return &s.FlapDetectionEnabled }}
)

func hostFlag(f flagSetter, value bool) func(*Dispatcher, []string) error {
	return func(d *Dispatcher, args []string) error {
		h, err := d.host(args[0])
		if err != nil {
			return err
		}
		if p := f.host(h); *p != value {
			*p = value
			h.ModifiedAttributes |= f.bit
		}
		return nil
	}
}

func svcFlag(f flagSetter, value bool) func(*Dispatcher, []string) error {
	return func(d *Dispatcher, args []string) error {
		s, err := d.service(args[0], args[1])
		if err != nil {
			return err
		}
		if p := f.svc(s); *p != value {
			*p = value
			s.ModifiedAttributes |= f.bit
		}
		return nil
	}
}

func global(field func(*objects.GlobalState) *bool, value bool) func(*Dispatcher, []string) error {
	return func(d *Dispatcher, _ []string) error {
		*field(d.provider.Global) = value
		return nil
	}
}

func setCustomVar(vars *map[string]string, name, value string) {
	if *vars == nil {
		*vars = make(map[string]string)
	}
	(*vars)[strings.ToUpper(name)] = value
}

// host;varname;value
func changeCustomHostVar(d *Dispatcher, args []string) error {
	h, err := d.host(args[0])
	if err != nil {
		return err
	}
	setCustomVar(&h.CustomVars, args[1], args[2])
	h.ModifiedAttributes |= objects.ModattrCustomVariable
	return nil
}

// host;svc;varname;value
func changeCustomSvcVar(d *Dispatcher, args []string) error {
	s, err := d.service(args[0], args[1])
	if err != nil {
		return err
	}
	setCustomVar(&s.CustomVars, args[2], args[3])
	s.ModifiedAttributes |= objects.ModattrCustomVariable
	return nil
}

func setHostNotificationNumber(d *Dispatcher, args []string) error {
	h, err := d.host(args[0])
	if err != nil {
		return err
	}
	n, err := parseInt(args[1])
	if err != nil {
		return err
	}
	h.CurrentNotificationNumber = n
	return nil
}

func setSvcNotificationNumber(d *Dispatcher, args []string) error {
	s, err := d.service(args[0], args[1])
	if err != nil {
		return err
	}
	n, err := parseInt(args[2])
	if err != nil {
		return err
	}
	s.CurrentNotificationNumber = n
	return nil
}
