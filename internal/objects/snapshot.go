package objects

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot is the YAML document the daemon boots its object graph from.
// Object references are by name and are resolved by Build.
type Snapshot struct {
	Commands      []SnapshotCommand      `yaml:"commands"`
	Timeperiods   []SnapshotTimeperiod   `yaml:"timeperiods"`
	Contacts      []SnapshotContact      `yaml:"contacts"`
	ContactGroups []SnapshotContactGroup `yaml:"contactgroups"`
	Hosts         []SnapshotHost         `yaml:"hosts"`
	HostGroups    []SnapshotGroup        `yaml:"hostgroups"`
	Services      []SnapshotService      `yaml:"services"`
	ServiceGroups []SnapshotGroup        `yaml:"servicegroups"`
	Comments      []SnapshotComment      `yaml:"comments"`
	Downtimes     []SnapshotDowntime     `yaml:"downtimes"`
}

type SnapshotCommand struct {
	Name string `yaml:"name"`
	Line string `yaml:"line"`
}

type SnapshotTimeperiod struct {
	Name   string            `yaml:"name"`
	Alias  string            `yaml:"alias"`
	Ranges map[string]string `yaml:"ranges"` // weekday name -> "HH:MM-HH:MM,..."
}

type SnapshotContact struct {
	Name                        string            `yaml:"name"`
	Alias                       string            `yaml:"alias"`
	Email                       string            `yaml:"email"`
	Pager                       string            `yaml:"pager"`
	HostNotificationPeriod      string            `yaml:"host_notification_period"`
	ServiceNotificationPeriod   string            `yaml:"service_notification_period"`
	HostNotificationsEnabled    bool              `yaml:"host_notifications_enabled"`
	ServiceNotificationsEnabled bool              `yaml:"service_notifications_enabled"`
	CanSubmitCommands           bool              `yaml:"can_submit_commands"`
	CustomVariables             map[string]string `yaml:"custom_variables"`
}

type SnapshotContactGroup struct {
	Name    string   `yaml:"name"`
	Alias   string   `yaml:"alias"`
	Members []string `yaml:"members"`
}

// SnapshotStatus is the runtime state shared by hosts and services.
type SnapshotStatus struct {
	State            int     `yaml:"state"`
	StateType        int     `yaml:"state_type"`
	HasBeenChecked   bool    `yaml:"has_been_checked"`
	PluginOutput     string  `yaml:"plugin_output"`
	LongPluginOutput string  `yaml:"long_plugin_output"`
	PerfData         string  `yaml:"perf_data"`
	LastCheck        int64   `yaml:"last_check"`
	NextCheck        int64   `yaml:"next_check"`
	LastStateChange  int64   `yaml:"last_state_change"`
	Latency          float64 `yaml:"latency"`
	ExecutionTime    float64 `yaml:"execution_time"`
	Acknowledged     bool    `yaml:"acknowledged"`
	IsFlapping       bool    `yaml:"is_flapping"`
}

type SnapshotHost struct {
	Name               string            `yaml:"name"`
	DisplayName        string            `yaml:"display_name"`
	Alias              string            `yaml:"alias"`
	Address            string            `yaml:"address"`
	Parents            []string          `yaml:"parents"`
	CheckCommand       string            `yaml:"check_command"`
	CheckPeriod        string            `yaml:"check_period"`
	NotificationPeriod string            `yaml:"notification_period"`
	CheckInterval      float64           `yaml:"check_interval"`
	RetryInterval      float64           `yaml:"retry_interval"`
	MaxCheckAttempts   int               `yaml:"max_check_attempts"`
	Contacts           []string          `yaml:"contacts"`
	ContactGroups      []string          `yaml:"contact_groups"`
	Notes              string            `yaml:"notes"`
	NotesURL           string            `yaml:"notes_url"`
	ActionURL          string            `yaml:"action_url"`
	IconImage          string            `yaml:"icon_image"`
	CustomVariables    map[string]string `yaml:"custom_variables"`
	Status             SnapshotStatus    `yaml:"status"`
}

type SnapshotService struct {
	HostName           string            `yaml:"host_name"`
	Description        string            `yaml:"description"`
	DisplayName        string            `yaml:"display_name"`
	CheckCommand       string            `yaml:"check_command"`
	CheckPeriod        string            `yaml:"check_period"`
	NotificationPeriod string            `yaml:"notification_period"`
	CheckInterval      float64           `yaml:"check_interval"`
	RetryInterval      float64           `yaml:"retry_interval"`
	MaxCheckAttempts   int               `yaml:"max_check_attempts"`
	Contacts           []string          `yaml:"contacts"`
	ContactGroups      []string          `yaml:"contact_groups"`
	Notes              string            `yaml:"notes"`
	NotesURL           string            `yaml:"notes_url"`
	ActionURL          string            `yaml:"action_url"`
	IconImage          string            `yaml:"icon_image"`
	CustomVariables    map[string]string `yaml:"custom_variables"`
	Status             SnapshotStatus    `yaml:"status"`
}

// SnapshotGroup is used for host and service groups. Service group members
// are written as "host;description".
type SnapshotGroup struct {
	Name      string   `yaml:"name"`
	Alias     string   `yaml:"alias"`
	Members   []string `yaml:"members"`
	Notes     string   `yaml:"notes"`
	NotesURL  string   `yaml:"notes_url"`
	ActionURL string   `yaml:"action_url"`
}

type SnapshotComment struct {
	HostName           string `yaml:"host_name"`
	ServiceDescription string `yaml:"service_description"`
	Author             string `yaml:"author"`
	Comment            string `yaml:"comment"`
	EntryType          int    `yaml:"entry_type"`
	Persistent         bool   `yaml:"persistent"`
	EntryTime          int64  `yaml:"entry_time"`
}

type SnapshotDowntime struct {
	HostName           string `yaml:"host_name"`
	ServiceDescription string `yaml:"service_description"`
	Author             string `yaml:"author"`
	Comment            string `yaml:"comment"`
	StartTime          int64  `yaml:"start_time"`
	EndTime            int64  `yaml:"end_time"`
	Fixed              bool   `yaml:"fixed"`
	Duration           int64  `yaml:"duration"`
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// LoadSnapshot reads and parses a snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return ParseSnapshot(data)
}

// ParseSnapshot parses a YAML snapshot document.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}

// Build resolves all references and returns a populated store. Objects are
// registered in document order, which is the order livestatus iterates.
func (snap *Snapshot) Build() (*ObjectStore, error) {
	s := NewObjectStore()

	for _, c := range snap.Commands {
		if err := s.AddCommand(&Command{Name: c.Name, CommandLine: c.Line}); err != nil {
			return nil, err
		}
	}
	for _, tp := range snap.Timeperiods {
		period := &Timeperiod{Name: tp.Name, Alias: tp.Alias}
		for day, r := range tp.Ranges {
			wd, ok := weekdays[strings.ToLower(day)]
			if !ok {
				return nil, fmt.Errorf("timeperiod %s: unknown weekday %q", tp.Name, day)
			}
			period.Ranges[wd] = r
		}
		if err := s.AddTimeperiod(period); err != nil {
			return nil, err
		}
	}
	for _, c := range snap.Contacts {
		contact := &Contact{
			Name:                        c.Name,
			Alias:                       c.Alias,
			Email:                       c.Email,
			Pager:                       c.Pager,
			HostNotificationPeriod:      s.GetTimeperiod(c.HostNotificationPeriod),
			ServiceNotificationPeriod:   s.GetTimeperiod(c.ServiceNotificationPeriod),
			HostNotificationsEnabled:    c.HostNotificationsEnabled,
			ServiceNotificationsEnabled: c.ServiceNotificationsEnabled,
			CanSubmitCommands:           c.CanSubmitCommands,
			CustomVars:                  c.CustomVariables,
		}
		if err := s.AddContact(contact); err != nil {
			return nil, err
		}
	}
	for _, cg := range snap.ContactGroups {
		group := &ContactGroup{Name: cg.Name, Alias: cg.Alias}
		for _, m := range cg.Members {
			c := s.GetContact(m)
			if c == nil {
				return nil, fmt.Errorf("contactgroup %s: unknown contact %q", cg.Name, m)
			}
			group.Members = append(group.Members, c)
		}
		if err := s.AddContactGroup(group); err != nil {
			return nil, err
		}
	}

	for _, sh := range snap.Hosts {
		h := &Host{
			Name:                 sh.Name,
			DisplayName:          sh.DisplayName,
			Alias:                sh.Alias,
			Address:              sh.Address,
			CheckPeriod:          s.GetTimeperiod(sh.CheckPeriod),
			NotificationPeriod:   s.GetTimeperiod(sh.NotificationPeriod),
			CheckInterval:        sh.CheckInterval,
			RetryInterval:        sh.RetryInterval,
			MaxCheckAttempts:     sh.MaxCheckAttempts,
			ActiveChecksEnabled:  true,
			PassiveChecksEnabled: true,
			NotificationsEnabled: true,
			Notes:                sh.Notes,
			NotesURL:             sh.NotesURL,
			ActionURL:            sh.ActionURL,
			IconImage:            sh.IconImage,
			CustomVars:           sh.CustomVariables,
		}
		if h.DisplayName == "" {
			h.DisplayName = h.Name
		}
		h.CheckCommand, h.CheckCommandArgs = s.resolveCommand(sh.CheckCommand)
		var err error
		if h.Contacts, h.ContactGroups, err = s.resolveContacts(sh.Contacts, sh.ContactGroups); err != nil {
			return nil, fmt.Errorf("host %s: %w", sh.Name, err)
		}
		applyHostStatus(h, sh.Status)
		if err := s.AddHost(h); err != nil {
			return nil, err
		}
	}
	for _, sh := range snap.Hosts {
		child := s.GetHost(sh.Name)
		for _, p := range sh.Parents {
			parent := s.GetHost(p)
			if parent == nil {
				return nil, fmt.Errorf("host %s: unknown parent %q", sh.Name, p)
			}
			s.LinkParent(child, parent)
		}
	}
	for _, g := range snap.HostGroups {
		hg := &HostGroup{Name: g.Name, Alias: g.Alias, Notes: g.Notes, NotesURL: g.NotesURL, ActionURL: g.ActionURL}
		for _, m := range g.Members {
			h := s.GetHost(m)
			if h == nil {
				return nil, fmt.Errorf("hostgroup %s: unknown host %q", g.Name, m)
			}
			hg.Members = append(hg.Members, h)
		}
		if err := s.AddHostGroup(hg); err != nil {
			return nil, err
		}
	}

	for _, ss := range snap.Services {
		h := s.GetHost(ss.HostName)
		if h == nil {
			return nil, fmt.Errorf("service %s: unknown host %q", ss.Description, ss.HostName)
		}
		svc := &Service{
			Host:                 h,
			Description:          ss.Description,
			DisplayName:          ss.DisplayName,
			CheckPeriod:          s.GetTimeperiod(ss.CheckPeriod),
			NotificationPeriod:   s.GetTimeperiod(ss.NotificationPeriod),
			CheckInterval:        ss.CheckInterval,
			RetryInterval:        ss.RetryInterval,
			MaxCheckAttempts:     ss.MaxCheckAttempts,
			ActiveChecksEnabled:  true,
			PassiveChecksEnabled: true,
			NotificationsEnabled: true,
			Notes:                ss.Notes,
			NotesURL:             ss.NotesURL,
			ActionURL:            ss.ActionURL,
			IconImage:            ss.IconImage,
			CustomVars:           ss.CustomVariables,
		}
		if svc.DisplayName == "" {
			svc.DisplayName = svc.Description
		}
		svc.CheckCommand, svc.CheckCommandArgs = s.resolveCommand(ss.CheckCommand)
		var err error
		if svc.Contacts, svc.ContactGroups, err = s.resolveContacts(ss.Contacts, ss.ContactGroups); err != nil {
			return nil, fmt.Errorf("service %s/%s: %w", ss.HostName, ss.Description, err)
		}
		applyServiceStatus(svc, ss.Status)
		if err := s.AddService(svc); err != nil {
			return nil, err
		}
	}
	for _, g := range snap.ServiceGroups {
		sg := &ServiceGroup{Name: g.Name, Alias: g.Alias, Notes: g.Notes, NotesURL: g.NotesURL, ActionURL: g.ActionURL}
		for _, m := range g.Members {
			hostName, desc, ok := strings.Cut(m, ";")
			svc := s.GetService(hostName, desc)
			if !ok || svc == nil {
				return nil, fmt.Errorf("servicegroup %s: unknown service %q", g.Name, m)
			}
			sg.Members = append(sg.Members, svc)
		}
		if err := s.AddServiceGroup(sg); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ObjectStore) resolveCommand(def string) (*Command, string) {
	if def == "" {
		return nil, ""
	}
	name, args, _ := strings.Cut(def, "!")
	cmd := s.GetCommand(name)
	if cmd == nil {
		cmd = &Command{Name: name}
	}
	return cmd, args
}

func (s *ObjectStore) resolveContacts(names, groups []string) ([]*Contact, []*ContactGroup, error) {
	var contacts []*Contact
	for _, n := range names {
		c := s.GetContact(n)
		if c == nil {
			return nil, nil, fmt.Errorf("unknown contact %q", n)
		}
		contacts = append(contacts, c)
	}
	var cgs []*ContactGroup
	for _, n := range groups {
		cg := s.GetContactGroup(n)
		if cg == nil {
			return nil, nil, fmt.Errorf("unknown contactgroup %q", n)
		}
		cgs = append(cgs, cg)
	}
	return contacts, cgs, nil
}

func unixOrZero(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

func applyHostStatus(h *Host, st SnapshotStatus) {
	h.CurrentState = st.State
	h.LastState = st.State
	h.LastHardState = st.State
	h.StateType = st.StateType
	h.HasBeenChecked = st.HasBeenChecked
	h.PluginOutput = st.PluginOutput
	h.LongPluginOutput = st.LongPluginOutput
	h.PerfData = st.PerfData
	h.LastCheck = unixOrZero(st.LastCheck)
	h.NextCheck = unixOrZero(st.NextCheck)
	h.LastStateChange = unixOrZero(st.LastStateChange)
	h.Latency = st.Latency
	h.ExecutionTime = st.ExecutionTime
	h.ProblemAcknowledged = st.Acknowledged
	h.IsFlapping = st.IsFlapping
}

func applyServiceStatus(svc *Service, st SnapshotStatus) {
	svc.CurrentState = st.State
	svc.LastState = st.State
	svc.LastHardState = st.State
	svc.StateType = st.StateType
	svc.HasBeenChecked = st.HasBeenChecked
	svc.PluginOutput = st.PluginOutput
	svc.LongPluginOutput = st.LongPluginOutput
	svc.PerfData = st.PerfData
	svc.LastCheck = unixOrZero(st.LastCheck)
	svc.NextCheck = unixOrZero(st.NextCheck)
	svc.LastStateChange = unixOrZero(st.LastStateChange)
	svc.Latency = st.Latency
	svc.ExecutionTime = st.ExecutionTime
	svc.ProblemAcknowledged = st.Acknowledged
	svc.IsFlapping = st.IsFlapping
}
