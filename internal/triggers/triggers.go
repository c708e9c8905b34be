// Package triggers lets blocked livestatus queries sleep until the core
// reports an event of a given kind.
package triggers

import (
	"fmt"
	"sync"
	"time"
)

// Kind is a class of core event.
type Kind int

const (
	All Kind = iota
	Check
	State
	Log
	Downtime
	Comment
	Command
	Program
)

var kindNames = [...]string{"all", "check", "state", "log", "downtime", "comment", "command", "program"}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Parse maps a WaitTrigger name to its Kind.
func Parse(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return All, fmt.Errorf("invalid trigger '%s', allowed: all, check, state, log, downtime, comment, command, program", name)
}

// Triggers is a broadcaster keyed by Kind. Each kind owns a channel that is
// closed and replaced on notification, waking every waiter at once.
type Triggers struct {
	mu    sync.Mutex
	chans [len(kindNames)]chan struct{}
}

// New returns a ready Triggers.
func New() *Triggers {
	t := &Triggers{}
	for i := range t.chans {
		t.chans[i] = make(chan struct{})
	}
	return t
}

func (t *Triggers) wait(kind Kind) <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chans[kind]
}

// NotifyAll wakes the waiters on kind and on All.
func (t *Triggers) NotifyAll(kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.broadcast(kind)
	if kind != All {
		t.broadcast(All)
	}
}

func (t *Triggers) broadcast(kind Kind) {
	close(t.chans[kind])
	t.chans[kind] = make(chan struct{})
}

// WaitFor blocks until pred holds or timeout elapses, re-checking pred after
// every notification of kind. A zero timeout waits without limit. It reports
// whether pred was satisfied.
func (t *Triggers) WaitFor(kind Kind, timeout time.Duration, pred func() bool) bool {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		// Grab the channel before evaluating pred so a notification between
		// the check and the select is not lost.
		ch := t.wait(kind)
		if pred() {
			return true
		}
		select {
		case <-ch:
		case <-deadline:
			return pred()
		}
	}
}
