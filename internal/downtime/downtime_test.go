package downtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanplexian/livestatusd/internal/objects"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSetup(t *testing.T) (*DowntimeManager, *CommentManager, *objects.ObjectStore) {
	t.Helper()
	store := objects.NewObjectStore()
	h := &objects.Host{Name: "host1"}
	require.NoError(t, store.AddHost(h))
	require.NoError(t, store.AddService(&objects.Service{Host: h, Description: "HTTP"}))
	cm := NewCommentManager(1)
	dm := NewDowntimeManager(1, cm, store)
	dm.now = func() time.Time { return testNow }
	return dm, cm, store
}

func hostDowntime(start, end time.Duration, fixed bool) *Downtime {
	return &Downtime{
		Type:      objects.HostDowntimeType,
		HostName:  "host1",
		StartTime: testNow.Add(start),
		EndTime:   testNow.Add(end),
		Fixed:     fixed,
		Duration:  end - start,
		Author:    "admin",
	}
}

func TestScheduleFixedHostDowntime(t *testing.T) {
	dm, cm, store := newTestSetup(t)
	d := hostDowntime(-time.Minute, time.Hour, true)
	id := dm.Schedule(d)

	assert.Equal(t, uint64(1), id)
	assert.Equal(t, testNow, d.EntryTime)
	assert.True(t, d.IsInEffect)
	assert.Equal(t, 1, store.GetHost("host1").ScheduledDowntimeDepth)

	comment := cm.Get(d.CommentID)
	require.NotNil(t, comment)
	assert.Equal(t, objects.DowntimeCommentEntry, comment.EntryType)
	assert.Equal(t, "admin", comment.Author)
	assert.Equal(t, "This host has been scheduled for fixed downtime from 2024-03-01T11:59:00Z to 2024-03-01T13:00:00Z.", comment.Data)

	require.True(t, dm.Unschedule(id))
	assert.Equal(t, 0, store.GetHost("host1").ScheduledDowntimeDepth)
	assert.Empty(t, cm.All(), "companion comment removed")
	assert.False(t, dm.Unschedule(id))
}

func TestScheduleInEffect(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Duration
		fixed      bool
		want       bool
	}{
		{"covers now", -time.Minute, time.Hour, true, true},
		{"starts now", 0, time.Hour, true, true},
		{"future", time.Hour, 2 * time.Hour, true, false},
		{"past", -2 * time.Hour, -time.Hour, true, false},
		{"flexible", -time.Minute, time.Hour, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dm, _, store := newTestSetup(t)
			d := hostDowntime(tt.start, tt.end, tt.fixed)
			dm.Schedule(d)
			assert.Equal(t, tt.want, d.IsInEffect)
			wantDepth := 0
			if tt.want {
				wantDepth = 1
			}
			assert.Equal(t, wantDepth, store.GetHost("host1").ScheduledDowntimeDepth)
		})
	}
}

func TestScheduleServiceDowntime(t *testing.T) {
	dm, cm, store := newTestSetup(t)
	d := hostDowntime(-time.Minute, time.Hour, false)
	d.Type = objects.ServiceDowntimeType
	d.ServiceDescription = "HTTP"
	dm.Schedule(d)

	assert.Equal(t, 0, store.GetService("host1", "HTTP").ScheduledDowntimeDepth, "flexible downtime waits for a problem")
	assert.Len(t, dm.ForService("host1", "HTTP"), 1)
	assert.Empty(t, dm.ForHost("host1"))
	comments := cm.ForService("host1", "HTTP")
	require.Len(t, comments, 1)
	assert.Contains(t, comments[0].Data, "This service has been scheduled for flexible downtime")
	assert.Contains(t, comments[0].Data, "lasting for 1h1m0s")
}

func TestUnscheduleCascadesToTriggered(t *testing.T) {
	dm, _, _ := newTestSetup(t)
	parent := dm.Schedule(hostDowntime(time.Hour, 2*time.Hour, true))
	child := hostDowntime(time.Hour, 2*time.Hour, false)
	child.TriggeredBy = parent
	childID := dm.Schedule(child)
	grandchild := hostDowntime(time.Hour, 2*time.Hour, false)
	grandchild.TriggeredBy = childID
	dm.Schedule(grandchild)
	other := dm.Schedule(hostDowntime(time.Hour, 2*time.Hour, true))

	require.True(t, dm.Unschedule(parent))
	all := dm.All()
	require.Len(t, all, 1)
	assert.Equal(t, other, all[0].DowntimeID)
}

func TestDeleteByHost(t *testing.T) {
	dm, cm, store := newTestSetup(t)
	dm.Schedule(hostDowntime(-time.Minute, time.Hour, true))
	svc := hostDowntime(-time.Minute, time.Hour, true)
	svc.Type = objects.ServiceDowntimeType
	svc.ServiceDescription = "HTTP"
	dm.Schedule(svc)
	assert.Equal(t, 1, store.GetService("host1", "HTTP").ScheduledDowntimeDepth)

	dm.DeleteByHost("host1")
	assert.Empty(t, dm.All())
	assert.Empty(t, cm.All())
	assert.Equal(t, 0, store.GetService("host1", "HTTP").ScheduledDowntimeDepth)
}
