package booking

import "sync"

// tokenLocks serializes state transitions per draft token. Entries are
// reference counted so the map shrinks back as tokens drain; unrelated
// tokens never contend.
type tokenLocks struct {
	mu    sync.Mutex
	locks map[string]*tokenLock
}

type tokenLock struct {
	mu   sync.Mutex
	refs int
}

func newTokenLocks() *tokenLocks {
	return &tokenLocks{locks: make(map[string]*tokenLock)}
}

// lock acquires the exclusive lock for token and returns its release func.
// The release func must run on every exit path of a transition.
func (l *tokenLocks) lock(token string) func() {
	l.mu.Lock()
	entry, ok := l.locks[token]
	if !ok {
		entry = &tokenLock{}
		l.locks[token] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, token)
		}
		l.mu.Unlock()
	}
}
