// internal/app/locks.go
package app

import "sync"

// ruleLocks serializes work on a single rule id. Entries are dropped when the
// last holder releases them.
type ruleLocks struct {
	mu    sync.Mutex
	locks map[int64]*ruleLock
}

type ruleLock struct {
	mu   sync.Mutex
	refs int
}

func newRuleLocks() *ruleLocks {
	return &ruleLocks{locks: make(map[int64]*ruleLock)}
}

// lock blocks until id is free and returns the matching unlock func.
func (l *ruleLocks) lock(id int64) func() {
	l.mu.Lock()
	rl, ok := l.locks[id]
	if !ok {
		rl = &ruleLock{}
		l.locks[id] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
