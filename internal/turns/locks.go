package turns

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// caseLocks serializes work per case. Entries are reference counted and
// removed once no caller holds or waits on them.
type caseLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*caseLock
}

type caseLock struct {
	ch   chan struct{}
	refs int
}

func newCaseLocks() *caseLocks {
	return &caseLocks{locks: make(map[uuid.UUID]*caseLock)}
}

// acquire blocks until the case is free or ctx is done. The returned
// function releases the case.
func (c *caseLocks) acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &caseLock{ch: make(chan struct{}, 1)}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			c.release(id, l)
		}, nil
	case <-ctx.Done():
		c.release(id, l)
		return nil, ctx.Err()
	}
}

func (c *caseLocks) release(id uuid.UUID, l *caseLock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(c.locks, id)
	}
}

func (c *caseLocks) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
