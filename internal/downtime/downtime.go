package downtime

import (
	"fmt"
	"time"

	"github.com/oceanplexian/livestatusd/internal/objects"
)

// Downtime is a scheduled downtime of a host or service.
type Downtime struct {
	Type               int // objects.HostDowntimeType or objects.ServiceDowntimeType
	HostName           string
	ServiceDescription string
	EntryTime          time.Time
	StartTime          time.Time
	EndTime            time.Time
	Fixed              bool
	TriggeredBy        uint64 // 0 if not triggered
	Duration           time.Duration
	DowntimeID         uint64
	IsInEffect         bool
	Author             string
	Comment            string
	CommentID          uint64
}

func (d *Downtime) IsService() bool {
	return d.Type == objects.ServiceDowntimeType
}

func (d *Downtime) on(hostName, svcDesc string) bool {
	return attached(d.IsService(), d.HostName, d.ServiceDescription, hostName, svcDesc)
}

func (d *Downtime) kind() string {
	if d.IsService() {
		return "service"
	}
	return "host"
}

// companionText is the comment the core attaches while a downtime exists.
func (d *Downtime) companionText() string {
	start, end := d.StartTime.Format(time.RFC3339), d.EndTime.Format(time.RFC3339)
	if d.Fixed {
		return fmt.Sprintf("This %s has been scheduled for fixed downtime from %s to %s.", d.kind(), start, end)
	}
	return fmt.Sprintf("This %s has been scheduled for flexible downtime starting between %s and %s and lasting for %s.",
		d.kind(), start, end, d.Duration)
}

// DowntimeManager holds all downtimes. Schedule and Unschedule change
// ScheduledDowntimeDepth on store objects, so callers hold the store's
// write lock around them.
type DowntimeManager struct {
	book     *book[*Downtime]
	comments *CommentManager
	store    *objects.ObjectStore
	now      func() time.Time
}

// NewDowntimeManager returns a manager whose first downtime gets startID.
// Companion comments go to comments.
func NewDowntimeManager(startID uint64, comments *CommentManager, store *objects.ObjectStore) *DowntimeManager {
	return &DowntimeManager{
		book:     newBook(startID, func(d *Downtime) uint64 { return d.DowntimeID }),
		comments: comments,
		store:    store,
		now:      time.Now,
	}
}

// Schedule stores d with a companion comment and returns its ID. A fixed
// downtime whose window covers now takes effect immediately.
func (dm *DowntimeManager) Schedule(d *Downtime) uint64 {
	now := dm.now()
	if d.EntryTime.IsZero() {
		d.EntryTime = now
	}
	commentType := objects.HostCommentType
	if d.IsService() {
		commentType = objects.ServiceCommentType
	}
	d.CommentID = dm.comments.Add(&Comment{
		CommentType:        commentType,
		EntryType:          objects.DowntimeCommentEntry,
		HostName:           d.HostName,
		ServiceDescription: d.ServiceDescription,
		Author:             d.Author,
		Data:               d.companionText(),
	})
	id := dm.book.add(d, func(id uint64) { d.DowntimeID = id })

	if d.Fixed && !now.Before(d.StartTime) && now.Before(d.EndTime) {
		d.IsInEffect = true
		dm.adjustDepth(d, 1)
	}
	return id
}

// Unschedule cancels a downtime and, recursively, the downtimes it
// triggered. It reports whether id was known.
func (dm *DowntimeManager) Unschedule(id uint64) bool {
	d, ok := dm.book.remove(id)
	if !ok {
		return false
	}
	if d.IsInEffect {
		d.IsInEffect = false
		dm.adjustDepth(d, -1)
	}
	if d.CommentID > 0 {
		dm.comments.Delete(d.CommentID)
	}
	for _, td := range dm.book.filter(func(td *Downtime) bool { return td.TriggeredBy == id }) {
		dm.Unschedule(td.DowntimeID)
	}
	return true
}

func (dm *DowntimeManager) adjustDepth(d *Downtime, delta int) {
	if d.IsService() {
		if svc := dm.store.GetService(d.HostName, d.ServiceDescription); svc != nil {
			svc.ScheduledDowntimeDepth = max(0, svc.ScheduledDowntimeDepth+delta)
		}
		return
	}
	if h := dm.store.GetHost(d.HostName); h != nil {
		h.ScheduledDowntimeDepth = max(0, h.ScheduledDowntimeDepth+delta)
	}
}

func (dm *DowntimeManager) Get(id uint64) *Downtime {
	d, _ := dm.book.get(id)
	return d
}

// All returns every downtime in ID order.
func (dm *DowntimeManager) All() []*Downtime {
	return dm.book.filter(func(*Downtime) bool { return true })
}

// ForHost returns the downtimes of the host itself, not of its services.
func (dm *DowntimeManager) ForHost(hostName string) []*Downtime {
	return dm.book.filter(func(d *Downtime) bool { return d.on(hostName, "") })
}

func (dm *DowntimeManager) ForService(hostName, svcDesc string) []*Downtime {
	return dm.book.filter(func(d *Downtime) bool { return d.on(hostName, svcDesc) })
}

// DeleteByHost unschedules every downtime of a host and its services.
func (dm *DowntimeManager) DeleteByHost(hostName string) {
	for _, d := range dm.book.filter(func(d *Downtime) bool { return d.HostName == hostName }) {
		dm.Unschedule(d.DowntimeID)
	}
}
