package livestatus

import (
	"iter"
	"strconv"
	"time"

	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/downtime"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

func newCommentsTable(core api.Core) *Table {
	t := newTable(core, "comments", "comment_")
	t.lookupsLock = true
	o := Offsets{}
	t.AddColumn(NewIntColumn("id", "The id of the comment", o, func(c *downtime.Comment) int64 { return int64(c.CommentID) }))
	t.AddColumn(NewStringColumn("author", "The contact that entered the comment", o, func(c *downtime.Comment) string { return c.Author }))
	t.AddColumn(NewStringColumn("comment", "A comment text", o, func(c *downtime.Comment) string { return c.Data }))
	t.AddColumn(NewIntColumn("type", "The type of the comment: 1 is host, 2 is service", o, func(c *downtime.Comment) int64 { return int64(c.CommentType) }))
	t.AddColumn(NewIntColumn("entry_type", "The type of the comment: 1 is user, 2 is downtime, 3 is flapping and 4 is acknowledgement", o,
		func(c *downtime.Comment) int64 { return int64(c.EntryType) }))
	t.AddColumn(NewIntColumn("source", "The source of the comment (0 is internal and 1 is external)", o, func(c *downtime.Comment) int64 { return int64(c.Source) }))
	t.AddColumn(NewBoolColumn("persistent", "Whether this comment is persistent (0/1)", o, func(c *downtime.Comment) bool { return c.Persistent }))
	t.AddColumn(NewBoolColumn("expires", "Whether this comment expires", o, func(c *downtime.Comment) bool { return c.Expires }))
	t.AddColumn(NewBoolColumn("is_service", "0, if this entry is for a host, 1 if it is for a service", o, (*downtime.Comment).IsService))
	t.AddColumn(NewTimeColumn("entry_time", "The time the entry was made as UNIX timestamp", o, func(c *downtime.Comment) time.Time { return c.EntryTime }))
	t.AddColumn(NewTimeColumn("expire_time", "The time of expiry of this comment as a UNIX timestamp", o, func(c *downtime.Comment) time.Time { return c.ExpireTime }))

	commentHost := func(c *downtime.Comment) *objects.Host { return core.FindHost(c.HostName) }
	commentService := func(c *downtime.Comment) *objects.Service {
		if !c.IsService() {
			return nil
		}
		return core.FindService(c.HostName, c.ServiceDescription)
	}
	addHostColumns(t, core, "host_", o.Add(Shift(commentHost)))
	addServiceColumns(t, core, "service_", o.Add(Shift(commentService)), false)

	t.rows = func(q *Query) iter.Seq[Row] {
		if id, ok := exactID(q.Filter(), q.TimezoneOffset()); ok {
			return sliceRows(single(core.FindComment(id)))
		}
		return sliceRows(core.AllComments())
	}
	t.isAuthorized = func(row Row, user User) bool {
		c := rowData[downtime.Comment](row)
		return c != nil && isAuthorizedForObject(user, commentHost(c), commentService(c))
	}
	t.findObject = func(key string) (Row, bool) {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return Row{}, false
		}
		c := core.FindComment(id)
		return NewRow(c), c != nil
	}
	return t
}

func newDowntimesTable(core api.Core) *Table {
	t := newTable(core, "downtimes", "downtime_")
	t.lookupsLock = true
	o := Offsets{}
	t.AddColumn(NewIntColumn("id", "The id of the downtime", o, func(d *downtime.Downtime) int64 { return int64(d.DowntimeID) }))
	t.AddColumn(NewStringColumn("author", "The contact that scheduled the downtime", o, func(d *downtime.Downtime) string { return d.Author }))
	t.AddColumn(NewStringColumn("comment", "A comment text", o, func(d *downtime.Downtime) string { return d.Comment }))
	t.AddColumn(NewIntColumn("type", "The type of the downtime: 1 is host, 2 is service", o, func(d *downtime.Downtime) int64 { return int64(d.Type) }))
	t.AddColumn(NewBoolColumn("fixed", "A 1 if the downtime is fixed, a 0 if it is flexible", o, func(d *downtime.Downtime) bool { return d.Fixed }))
	t.AddColumn(NewBoolColumn("is_service", "0, if this entry is for a host, 1 if it is for a service", o, (*downtime.Downtime).IsService))
	t.AddColumn(NewBoolColumn("is_pending", "1 if the downtime is currently pending (not active), 0 if it is active", o, func(d *downtime.Downtime) bool {
		return !d.IsInEffect
	}))
	t.AddColumn(NewIntColumn("duration", "The duration of the downtime in seconds", o, func(d *downtime.Downtime) int64 {
		return int64(d.Duration / time.Second)
	}))
	t.AddColumn(NewIntColumn("triggered_by", "The id of the downtime this downtime was triggered by or 0 if it was not triggered by another downtime", o,
		func(d *downtime.Downtime) int64 { return int64(d.TriggeredBy) }))
	t.AddColumn(NewTimeColumn("entry_time", "The time the entry was made as UNIX timestamp", o, func(d *downtime.Downtime) time.Time { return d.EntryTime }))
	t.AddColumn(NewTimeColumn("start_time", "The start time of the downtime as UNIX timestamp", o, func(d *downtime.Downtime) time.Time { return d.StartTime }))
	t.AddColumn(NewTimeColumn("end_time", "The end time of the downtime as UNIX timestamp", o, func(d *downtime.Downtime) time.Time { return d.EndTime }))

	downtimeHost := func(d *downtime.Downtime) *objects.Host { return core.FindHost(d.HostName) }
	downtimeService := func(d *downtime.Downtime) *objects.Service {
		if !d.IsService() {
			return nil
		}
		return core.FindService(d.HostName, d.ServiceDescription)
	}
	addHostColumns(t, core, "host_", o.Add(Shift(downtimeHost)))
	addServiceColumns(t, core, "service_", o.Add(Shift(downtimeService)), false)

	t.rows = func(q *Query) iter.Seq[Row] {
		if id, ok := exactID(q.Filter(), q.TimezoneOffset()); ok {
			return sliceRows(single(core.FindDowntime(id)))
		}
		return sliceRows(core.AllDowntimes())
	}
	t.isAuthorized = func(row Row, user User) bool {
		d := rowData[downtime.Downtime](row)
		return d != nil && isAuthorizedForObject(user, downtimeHost(d), downtimeService(d))
	}
	t.findObject = func(key string) (Row, bool) {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return Row{}, false
		}
		d := core.FindDowntime(id)
		return NewRow(d), d != nil
	}
	return t
}

// exactID reports whether the filter pins the "id" column to one value.
func exactID(f Filter, tz time.Duration) (uint64, bool) {
	lower, ok1 := f.GreatestLowerBoundFor("id", tz)
	upper, ok2 := f.LeastUpperBoundFor("id", tz)
	if !ok1 || !ok2 || lower != upper || lower < 0 {
		return 0, false
	}
	return uint64(lower), true
}
