package checkout

import "sync"

// CartLocks serializes mutations per cart id across every orchestrator in the process.
type CartLocks struct {
	mu    sync.Mutex
	locks map[int64]*cartLock
}

type cartLock struct {
	mu   sync.Mutex
	refs int
}

func NewCartLocks() *CartLocks {
	return &CartLocks{locks: make(map[int64]*cartLock)}
}

// Lock blocks until the cart is free and returns the matching unlock.
func (l *CartLocks) Lock(cartID int64) func() {
	l.mu.Lock()
	cl, ok := l.locks[cartID]
	if !ok {
		cl = &cartLock{}
		l.locks[cartID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()

		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, cartID)
		}
		l.mu.Unlock()
	}
}

func (l *CartLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
