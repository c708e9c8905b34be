// Package objects holds the monitoring core's live object graph: hosts,
// services, groups, contacts, commands and timeperiods. The query engine
// only reads these records; the core mutates them under ObjectStore.Mu.
package objects

import (
	"strconv"
	"strings"
	"time"
)

// State constants
const (
	HostUp          = 0
	HostDown        = 1
	HostUnreachable = 2

	ServiceOK       = 0
	ServiceWarning  = 1
	ServiceCritical = 2
	ServiceUnknown  = 3

	StateTypeSoft = 0
	StateTypeHard = 1

	AckNone   = 0
	AckNormal = 1
	AckSticky = 2

	CheckTypeActive  = 0
	CheckTypePassive = 1
)

// Comment entry types
const (
	UserCommentEntry            = 1
	DowntimeCommentEntry        = 2
	FlappingCommentEntry        = 3
	AcknowledgementCommentEntry = 4
)

// Comment types
const (
	HostCommentType    = 1
	ServiceCommentType = 2
)

// Downtime types
const (
	HostDowntimeType    = 1
	ServiceDowntimeType = 2
)

// Modified attribute bits, as reported by modified_attributes.
const (
	ModattrNone                  uint64 = 0
	ModattrNotificationsEnabled  uint64 = 1 << 0
	ModattrActiveChecksEnabled   uint64 = 1 << 1
	ModattrPassiveChecksEnabled  uint64 = 1 << 2
	ModattrEventHandlerEnabled   uint64 = 1 << 3
	ModattrFlapDetectionEnabled  uint64 = 1 << 4
	ModattrPerformanceDataEnable uint64 = 1 << 6
	ModattrCustomVariable        uint64 = 1 << 15
)

// ModifiedAttributeNames lists the names of the modified attribute bits in
// bit order, for modified_attributes_list columns.
var ModifiedAttributeNames = []struct {
	Bit  uint64
	Name string
}{
	{ModattrNotificationsEnabled, "notifications_enabled"},
	{ModattrActiveChecksEnabled, "active_checks_enabled"},
	{ModattrPassiveChecksEnabled, "passive_checks_enabled"},
	{ModattrEventHandlerEnabled, "event_handler_enabled"},
	{ModattrFlapDetectionEnabled, "flap_detection_enabled"},
	{ModattrPerformanceDataEnable, "performance_data_enabled"},
	{ModattrCustomVariable, "custom_variable"},
}

type Command struct {
	Name        string
	CommandLine string
}

// Timeperiod keeps one comma-separated list of "HH:MM-HH:MM" ranges per
// weekday, sunday=0 through saturday=6.
type Timeperiod struct {
	Name   string
	Alias  string
	Ranges [7]string
}

type Contact struct {
	Name                        string
	Alias                       string
	Email                       string
	Pager                       string
	HostNotificationPeriod      *Timeperiod
	ServiceNotificationPeriod   *Timeperiod
	HostNotificationsEnabled    bool
	ServiceNotificationsEnabled bool
	CanSubmitCommands           bool
	ContactGroups               []*ContactGroup
	CustomVars                  map[string]string
	ModifiedAttributes          uint64
}

type ContactGroup struct {
	Name    string
	Alias   string
	Members []*Contact
}

type Host struct {
	// Config
	Name                 string
	DisplayName          string
	Alias                string
	Address              string
	Parents              []*Host
	Children             []*Host
	HostGroups           []*HostGroup
	Services             []*Service
	CheckCommand         *Command
	CheckCommandArgs     string
	CheckPeriod          *Timeperiod
	NotificationPeriod   *Timeperiod
	CheckInterval        float64
	RetryInterval        float64
	MaxCheckAttempts     int
	ActiveChecksEnabled  bool
	PassiveChecksEnabled bool
	EventHandlerEnabled  bool
	FlapDetectionEnabled bool
	NotificationsEnabled bool
	ContactGroups        []*ContactGroup
	Contacts             []*Contact
	Notes                string
	NotesURL             string
	ActionURL            string
	IconImage            string
	CustomVars           map[string]string

	// Runtime state
	CurrentState              int
	LastState                 int
	LastHardState             int
	StateType                 int
	CurrentAttempt            int
	HasBeenChecked            bool
	IsFlapping                bool
	PluginOutput              string
	LongPluginOutput          string
	PerfData                  string
	LastCheck                 time.Time
	NextCheck                 time.Time
	LastStateChange           time.Time
	LastHardStateChange       time.Time
	Latency                   float64
	ExecutionTime             float64
	PercentStateChange        float64
	CurrentNotificationNumber int
	LastNotification          time.Time
	ProblemAcknowledged       bool
	AckType                   int
	ScheduledDowntimeDepth    int
	ModifiedAttributes        uint64
	CheckType                 int
}

type HostGroup struct {
	Name      string
	Alias     string
	Members   []*Host
	Notes     string
	NotesURL  string
	ActionURL string
}

type Service struct {
	// Config
	Host                 *Host
	Description          string
	DisplayName          string
	ServiceGroups        []*ServiceGroup
	CheckCommand         *Command
	CheckCommandArgs     string
	CheckPeriod          *Timeperiod
	NotificationPeriod   *Timeperiod
	CheckInterval        float64
	RetryInterval        float64
	MaxCheckAttempts     int
	ActiveChecksEnabled  bool
	PassiveChecksEnabled bool
	EventHandlerEnabled  bool
	FlapDetectionEnabled bool
	NotificationsEnabled bool
	ContactGroups        []*ContactGroup
	Contacts             []*Contact
	Notes                string
	NotesURL             string
	ActionURL            string
	IconImage            string
	CustomVars           map[string]string

	// Runtime state
	CurrentState              int
	LastState                 int
	LastHardState             int
	StateType                 int
	CurrentAttempt            int
	HasBeenChecked            bool
	IsFlapping                bool
	PluginOutput              string
	LongPluginOutput          string
	PerfData                  string
	LastCheck                 time.Time
	NextCheck                 time.Time
	LastStateChange           time.Time
	LastHardStateChange       time.Time
	Latency                   float64
	ExecutionTime             float64
	PercentStateChange        float64
	CurrentNotificationNumber int
	LastNotification          time.Time
	ProblemAcknowledged       bool
	AckType                   int
	ScheduledDowntimeDepth    int
	ModifiedAttributes        uint64
	CheckType                 int
}

type ServiceGroup struct {
	Name      string
	Alias     string
	Members   []*Service
	Notes     string
	NotesURL  string
	ActionURL string
}

// GlobalState holds process-wide runtime flags of the core.
type GlobalState struct {
	EnableNotifications        bool
	ExecuteServiceChecks       bool
	ExecuteHostChecks          bool
	AcceptPassiveServiceChecks bool
	AcceptPassiveHostChecks    bool
	EnableEventHandlers        bool
	EnableFlapDetection        bool
	ProcessPerformanceData     bool
	CheckServiceFreshness      bool
	CheckHostFreshness         bool
	ProgramStart               time.Time
	LastCommandCheck           time.Time
	PID                        int
	IntervalLength             int
	ProgramVersion             string
}

// HostStateName returns the display name for a host state.
func HostStateName(state int) string {
	switch state {
	case HostUp:
		return "UP"
	case HostDown:
		return "DOWN"
	case HostUnreachable:
		return "UNREACHABLE"
	default:
		return "UNKNOWN"
	}
}

// ServiceStateName returns the display name for a service state.
func ServiceStateName(state int) string {
	switch state {
	case ServiceOK:
		return "OK"
	case ServiceWarning:
		return "WARNING"
	case ServiceCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// StateTypeName returns "HARD" or "SOFT".
func StateTypeName(st int) string {
	if st == StateTypeHard {
		return "HARD"
	}
	return "SOFT"
}

// InTimeperiod reports whether t falls into one of tp's ranges for t's
// weekday. A nil timeperiod means 24x7.
func InTimeperiod(tp *Timeperiod, t time.Time) bool {
	if tp == nil {
		return true
	}
	minute := t.Hour()*60 + t.Minute()
	for _, r := range strings.Split(tp.Ranges[int(t.Weekday())], ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		from, to, ok := strings.Cut(r, "-")
		if !ok {
			continue
		}
		start, err1 := parseClock(from)
		end, err2 := parseClock(to)
		if err1 != nil || err2 != nil {
			continue
		}
		if minute >= start && minute < end {
			return true
		}
	}
	return false
}

func parseClock(s string) (int, error) {
	hh, mm, _ := strings.Cut(strings.TrimSpace(s), ":")
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, err
	}
	m := 0
	if mm != "" {
		if m, err = strconv.Atoi(mm); err != nil {
			return 0, err
		}
	}
	return h*60 + m, nil
}
