package services

import (
	"sync"

	"group-chat/domain/chat"
)

// groupLocks is a keyed mutex: one append path per group, entries are
// released once nobody holds or waits for them.
type groupLocks struct {
	mu    sync.Mutex
	locks map[chat.GroupID]*groupLock
}

type groupLock struct {
	mu   sync.Mutex
	refs int
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[chat.GroupID]*groupLock)}
}

// Lock blocks until the group is free and returns the matching unlock.
func (g *groupLocks) Lock(group chat.GroupID) func() {
	g.mu.Lock()
	l, ok := g.locks[group]
	if !ok {
		l = &groupLock{}
		g.locks[group] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, group)
		}
		g.mu.Unlock()
	}
}

func (g *groupLocks) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
