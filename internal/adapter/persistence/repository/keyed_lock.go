package repository

import "sync"

// keyedLocker hands out one RWMutex per estimate id so writers of the same
// estimate are serialized while unrelated ids proceed in parallel.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[int64]*refLock
}

type refLock struct {
	sync.RWMutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[int64]*refLock)}
}

func (k *keyedLocker) Lock(id int64) func() {
	l := k.acquire(id)
	l.Lock()
	return func() {
		l.Unlock()
		k.release(id)
	}
}

func (k *keyedLocker) RLock(id int64) func() {
	l := k.acquire(id)
	l.RLock()
	return func() {
		l.RUnlock()
		k.release(id)
	}
}

func (k *keyedLocker) acquire(id int64) *refLock {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[id]
	if !ok {
		l = &refLock{}
		k.locks[id] = l
	}
	l.refs++
	return l
}

func (k *keyedLocker) release(id int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l := k.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, id)
	}
}
