// Package downtime keeps the core's comments and scheduled downtimes. The
// livestatus comments and downtimes tables read from these managers; the
// external command processor writes to them.
package downtime

import (
	"time"

	"github.com/oceanplexian/livestatusd/internal/objects"
)

// Comment is a host or service comment.
type Comment struct {
	CommentType        int // objects.HostCommentType or objects.ServiceCommentType
	EntryType          int // objects.UserCommentEntry, objects.DowntimeCommentEntry, ...
	CommentID          uint64
	Source             int // 0 internal, 1 external
	Persistent         bool
	EntryTime          time.Time
	Expires            bool
	ExpireTime         time.Time
	HostName           string
	ServiceDescription string
	Author             string
	Data               string
}

func (c *Comment) IsService() bool {
	return c.CommentType == objects.ServiceCommentType
}

func (c *Comment) on(hostName, svcDesc string) bool {
	return attached(c.IsService(), c.HostName, c.ServiceDescription, hostName, svcDesc)
}

// volatileAck matches acknowledgement comments that go away with the
// acknowledgement.
func (c *Comment) volatileAck() bool {
	return c.EntryType == objects.AcknowledgementCommentEntry && !c.Persistent
}

// CommentManager holds all comments. It is safe for concurrent use.
type CommentManager struct {
	book *book[*Comment]
}

// NewCommentManager returns a manager whose first comment gets startID.
func NewCommentManager(startID uint64) *CommentManager {
	return &CommentManager{book: newBook(startID, func(c *Comment) uint64 { return c.CommentID })}
}

// Add stores c, stamping its ID and, if unset, its entry time.
func (cm *CommentManager) Add(c *Comment) uint64 {
	if c.EntryTime.IsZero() {
		c.EntryTime = time.Now()
	}
	return cm.book.add(c, func(id uint64) { c.CommentID = id })
}

// Delete removes a comment and reports whether it existed.
func (cm *CommentManager) Delete(id uint64) bool {
	_, ok := cm.book.remove(id)
	return ok
}

func (cm *CommentManager) Get(id uint64) *Comment {
	c, _ := cm.book.get(id)
	return c
}

func (cm *CommentManager) DeleteAllForHost(hostName string) {
	cm.book.removeWhere(func(c *Comment) bool { return c.on(hostName, "") })
}

func (cm *CommentManager) DeleteAllForService(hostName, svcDesc string) {
	cm.book.removeWhere(func(c *Comment) bool { return c.on(hostName, svcDesc) })
}

// DeleteHostAckComments drops the non-persistent acknowledgement comments
// of a host.
func (cm *CommentManager) DeleteHostAckComments(hostName string) {
	cm.book.removeWhere(func(c *Comment) bool { return c.on(hostName, "") && c.volatileAck() })
}

// DeleteServiceAckComments is DeleteHostAckComments for a service.
func (cm *CommentManager) DeleteServiceAckComments(hostName, svcDesc string) {
	cm.book.removeWhere(func(c *Comment) bool { return c.on(hostName, svcDesc) && c.volatileAck() })
}

// All returns every comment in ID order.
func (cm *CommentManager) All() []*Comment {
	return cm.book.filter(func(*Comment) bool { return true })
}

func (cm *CommentManager) ForHost(hostName string) []*Comment {
	return cm.book.filter(func(c *Comment) bool { return c.on(hostName, "") })
}

func (cm *CommentManager) ForService(hostName, svcDesc string) []*Comment {
	return cm.book.filter(func(c *Comment) bool { return c.on(hostName, svcDesc) })
}
