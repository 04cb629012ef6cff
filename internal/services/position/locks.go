package position

import "sync"

// instrumentLocks hands out one mutex per instrument so that at most one
// writer touches an instrument at a time. Entries are dropped once no
// goroutine holds or waits on them.
type instrumentLocks struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newInstrumentLocks() *instrumentLocks {
	return &instrumentLocks{locks: make(map[string]*refMutex)}
}

// lock blocks until the instrument is free and returns its unlock func.
func (l *instrumentLocks) lock(instrument string) func() {
	l.mu.Lock()
	m, ok := l.locks[instrument]
	if !ok {
		m = &refMutex{}
		l.locks[instrument] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()

		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, instrument)
		}
		l.mu.Unlock()
	}
}

// size reports how many instruments currently have a lock entry.
func (l *instrumentLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
