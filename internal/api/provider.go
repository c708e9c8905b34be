// Package api connects the query engine to the monitoring core's state.
package api

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oceanplexian/livestatusd/internal/corelog"
	"github.com/oceanplexian/livestatusd/internal/downtime"
	"github.com/oceanplexian/livestatusd/internal/logging"
	"github.com/oceanplexian/livestatusd/internal/metrics"
	"github.com/oceanplexian/livestatusd/internal/objects"
	"github.com/oceanplexian/livestatusd/internal/triggers"
)

// AuthorizationKind selects how contact membership grants visibility.
type AuthorizationKind int

const (
	// AuthLoose: a host contact sees all of the host's services, and a
	// group is visible if any member is.
	AuthLoose AuthorizationKind = iota
	// AuthStrict: only direct service contacts see a service, and a group
	// is visible only if all members are.
	AuthStrict
)

// ParseAuthorization maps "loose" and "strict" to their kinds.
func ParseAuthorization(s string) (AuthorizationKind, error) {
	switch s {
	case "loose":
		return AuthLoose, nil
	case "strict":
		return AuthStrict, nil
	}
	return AuthLoose, fmt.Errorf("invalid authorization mode %q", s)
}

// Core is everything the livestatus engine reads from the monitoring core.
// List accessors return snapshots taken under the store's read lock; the
// objects themselves stay shared and may change while a query runs.
type Core interface {
	Hosts() []*objects.Host
	Services() []*objects.Service
	HostGroups() []*objects.HostGroup
	ServiceGroups() []*objects.ServiceGroup
	Contacts() []*objects.Contact
	ContactGroups() []*objects.ContactGroup
	Commands() []*objects.Command
	Timeperiods() []*objects.Timeperiod

	FindHost(name string) *objects.Host
	FindService(hostName, desc string) *objects.Service
	FindHostGroup(name string) *objects.HostGroup
	FindServiceGroup(name string) *objects.ServiceGroup
	FindContact(name string) *objects.Contact
	FindContactGroup(name string) *objects.ContactGroup

	AllComments() []*downtime.Comment
	AllDowntimes() []*downtime.Downtime
	FindComment(id uint64) *downtime.Comment
	FindDowntime(id uint64) *downtime.Downtime
	HostComments(h *objects.Host) []*downtime.Comment
	ServiceComments(s *objects.Service) []*downtime.Comment
	HostDowntimes(h *objects.Host) []*downtime.Downtime
	ServiceDowntimes(s *objects.Service) []*downtime.Downtime

	GlobalState() *objects.GlobalState
	Triggers() *triggers.Triggers
	Counters() metrics.Snapshot
	// ReadLocker returns the store's read lock. Holders must not call the
	// other accessors, which take it themselves.
	ReadLocker() sync.Locker

	MkLogwatchPath() string
	LogFile() string
	ServiceAuthorization() AuthorizationKind
	GroupAuthorization() AuthorizationKind
	MaxResponseSize() int64
	ShouldTerminate() bool
}

// Options are the core-side settings the engine consults per query.
type Options struct {
	MaxResponseSize      int64
	ServiceAuthorization AuthorizationKind
	GroupAuthorization   AuthorizationKind
	MkLogwatchPath       string
	LogFile              string
}

// StateProvider gives the livestatus API access to all runtime state.
type StateProvider struct {
	Store     *objects.ObjectStore
	Global    *objects.GlobalState
	Comments  *downtime.CommentManager
	Downtimes *downtime.DowntimeManager
	Logger    *logging.Logger
	Metrics   *metrics.Collector
	Options   Options
	// History receives alerts and commands; nil when no log file is set.
	History   *corelog.Writer

	events      *triggers.Triggers
	terminating atomic.Bool
}

// NewStateProvider wires a provider around store with empty comment and
// downtime managers.
func NewStateProvider(store *objects.ObjectStore, opts Options) *StateProvider {
	comments := downtime.NewCommentManager(1)
	return &StateProvider{
		Store:     store,
		Global:    DefaultGlobalState(),
		Comments:  comments,
		Downtimes: downtime.NewDowntimeManager(1, comments, store),
		Logger:    logging.Nop(),
		Metrics:   metrics.NewCollector(),
		Options:   opts,
		events:    triggers.New(),
	}
}

// DefaultGlobalState returns the process flags of a freshly started core.
func DefaultGlobalState() *objects.GlobalState {
	return &objects.GlobalState{
		EnableNotifications:        true,
		ExecuteServiceChecks:       true,
		ExecuteHostChecks:          true,
		AcceptPassiveServiceChecks: true,
		AcceptPassiveHostChecks:    true,
		EnableEventHandlers:        true,
		EnableFlapDetection:        true,
		ProcessPerformanceData:     true,
		ProgramStart:               time.Now(),
		IntervalLength:             60,
		ProgramVersion:             "livestatusd",
	}
}

// FromSnapshot builds the object graph of snap and seeds comments and
// downtimes from it.
func FromSnapshot(snap *objects.Snapshot, opts Options) (*StateProvider, error) {
	store, err := snap.Build()
	if err != nil {
		return nil, err
	}
	p := NewStateProvider(store, opts)
	for _, c := range snap.Comments {
		comment := &downtime.Comment{
			CommentType:        objects.HostCommentType,
			EntryType:          c.EntryType,
			HostName:           c.HostName,
			ServiceDescription: c.ServiceDescription,
			Author:             c.Author,
			Data:               c.Comment,
			Persistent:         c.Persistent,
			Source:             1,
		}
		if comment.EntryType == 0 {
			comment.EntryType = objects.UserCommentEntry
		}
		if c.EntryTime != 0 {
			comment.EntryTime = time.Unix(c.EntryTime, 0)
		}
		if c.ServiceDescription != "" {
			comment.CommentType = objects.ServiceCommentType
		}
		if err := p.checkTarget(c.HostName, c.ServiceDescription); err != nil {
			return nil, fmt.Errorf("comment: %w", err)
		}
		p.Comments.Add(comment)
	}
	for _, d := range snap.Downtimes {
		dt := &downtime.Downtime{
			Type:               objects.HostDowntimeType,
			HostName:           d.HostName,
			ServiceDescription: d.ServiceDescription,
			StartTime:          time.Unix(d.StartTime, 0),
			EndTime:            time.Unix(d.EndTime, 0),
			Fixed:              d.Fixed,
			Duration:           time.Duration(d.Duration) * time.Second,
			Author:             d.Author,
			Comment:            d.Comment,
		}
		if d.ServiceDescription != "" {
			dt.Type = objects.ServiceDowntimeType
		}
		if err := p.checkTarget(d.HostName, d.ServiceDescription); err != nil {
			return nil, fmt.Errorf("downtime: %w", err)
		}
		p.Downtimes.Schedule(dt)
	}
	return p, nil
}

func (p *StateProvider) checkTarget(hostName, svcDesc string) error {
	if svcDesc != "" {
		if p.Store.GetService(hostName, svcDesc) == nil {
			return fmt.Errorf("unknown service %s;%s", hostName, svcDesc)
		}
		return nil
	}
	if p.Store.GetHost(hostName) == nil {
		return fmt.Errorf("unknown host %s", hostName)
	}
	return nil
}

func (p *StateProvider) Hosts() []*objects.Host {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return append([]*objects.Host(nil), p.Store.Hosts...)
}

func (p *StateProvider) Services() []*objects.Service {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return append([]*objects.Service(nil), p.Store.Services...)
}

func (p *StateProvider) HostGroups() []*objects.HostGroup {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return append([]*objects.HostGroup(nil), p.Store.HostGroups...)
}

func (p *StateProvider) ServiceGroups() []*objects.ServiceGroup {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return append([]*objects.ServiceGroup(nil), p.Store.ServiceGroups...)
}

func (p *StateProvider) Contacts() []*objects.Contact {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return append([]*objects.Contact(nil), p.Store.Contacts...)
}

func (p *StateProvider) ContactGroups() []*objects.ContactGroup {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return append([]*objects.ContactGroup(nil), p.Store.ContactGroups...)
}

func (p *StateProvider) Commands() []*objects.Command {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return append([]*objects.Command(nil), p.Store.Commands...)
}

func (p *StateProvider) Timeperiods() []*objects.Timeperiod {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return append([]*objects.Timeperiod(nil), p.Store.Timeperiods...)
}

func (p *StateProvider) FindHost(name string) *objects.Host {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return p.Store.GetHost(name)
}

func (p *StateProvider) FindService(hostName, desc string) *objects.Service {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return p.Store.GetService(hostName, desc)
}

func (p *StateProvider) FindHostGroup(name string) *objects.HostGroup {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return p.Store.GetHostGroup(name)
}

func (p *StateProvider) FindServiceGroup(name string) *objects.ServiceGroup {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return p.Store.GetServiceGroup(name)
}

func (p *StateProvider) FindContact(name string) *objects.Contact {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return p.Store.GetContact(name)
}

func (p *StateProvider) FindContactGroup(name string) *objects.ContactGroup {
	p.Store.Mu.RLock()
	defer p.Store.Mu.RUnlock()
	return p.Store.GetContactGroup(name)
}

func (p *StateProvider) AllComments() []*downtime.Comment   { return p.Comments.All() }
func (p *StateProvider) AllDowntimes() []*downtime.Downtime { return p.Downtimes.All() }

func (p *StateProvider) FindComment(id uint64) *downtime.Comment   { return p.Comments.Get(id) }
func (p *StateProvider) FindDowntime(id uint64) *downtime.Downtime { return p.Downtimes.Get(id) }

func (p *StateProvider) HostComments(h *objects.Host) []*downtime.Comment {
	return p.Comments.ForHost(h.Name)
}

func (p *StateProvider) ServiceComments(s *objects.Service) []*downtime.Comment {
	return p.Comments.ForService(s.Host.Name, s.Description)
}

func (p *StateProvider) HostDowntimes(h *objects.Host) []*downtime.Downtime {
	return p.Downtimes.ForHost(h.Name)
}

func (p *StateProvider) ServiceDowntimes(s *objects.Service) []*downtime.Downtime {
	return p.Downtimes.ForService(s.Host.Name, s.Description)
}

func (p *StateProvider) GlobalState() *objects.GlobalState { return p.Global }
func (p *StateProvider) Triggers() *triggers.Triggers      { return p.events }
func (p *StateProvider) ReadLocker() sync.Locker           { return p.Store.Mu.RLocker() }

func (p *StateProvider) Counters() metrics.Snapshot {
	if p.Metrics == nil {
		return metrics.Snapshot{}
	}
	return p.Metrics.Snapshot()
}

func (p *StateProvider) MkLogwatchPath() string                  { return p.Options.MkLogwatchPath }
func (p *StateProvider) LogFile() string                         { return p.Options.LogFile }
func (p *StateProvider) ServiceAuthorization() AuthorizationKind { return p.Options.ServiceAuthorization }
func (p *StateProvider) GroupAuthorization() AuthorizationKind   { return p.Options.GroupAuthorization }

func (p *StateProvider) MaxResponseSize() int64 {
	if p.Options.MaxResponseSize <= 0 {
		return 100 * 1024 * 1024
	}
	return p.Options.MaxResponseSize
}

// OpenHistory opens the configured log file for appending. Every line
// written wakes the queries waiting on the log trigger. Without a log file
// it does nothing.
func (p *StateProvider) OpenHistory() error {
	if p.Options.LogFile == "" {
		return nil
	}
	w, err := corelog.Open(p.Options.LogFile, func() { p.events.NotifyAll(triggers.Log) })
	if err != nil {
		return err
	}
	p.History = w
	return nil
}

// Terminate marks the core as shutting down; running queries stop early.
func (p *StateProvider) Terminate() {
	p.terminating.Store(true)
	for k := triggers.All; k <= triggers.Program; k++ {
		p.events.NotifyAll(k)
	}
}

func (p *StateProvider) ShouldTerminate() bool { return p.terminating.Load() }

// CommandSink is a callback for executing external commands from the API.
type CommandSink func(name string, args []string)

// CommandEntry is one external command received over livestatus.
type CommandEntry struct {
	Name string
	Args []string
}

// BatchCommandSink executes several commands under one acquisition of the
// store's write lock.
type BatchCommandSink func(cmds []CommandEntry)
