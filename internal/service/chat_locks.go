package service

import "sync"

// chatLocks serializa pipelines por chat: a lo sumo uno en vuelo por chat id.
// Los locks se liberan del mapa cuando nadie los espera.
type chatLocks struct {
	mu    sync.Mutex
	locks map[string]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[string]*chatLock)}
}

func (c *chatLocks) lock(chatID string) {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if !ok {
		l = &chatLock{}
		c.locks[chatID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
}

func (c *chatLocks) unlock(chatID string) {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if ok {
		l.refs--
		if l.refs == 0 {
			delete(c.locks, chatID)
		}
	}
	c.mu.Unlock()

	if ok {
		l.mu.Unlock()
	}
}
