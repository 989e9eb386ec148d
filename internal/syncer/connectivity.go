package syncer

import "sync"

// Connectivity is a plain observable for the host environment's
// online/offline signal. It defaults to online so the first sync attempt
// is not blocked behind connectivity detection; the host feeds the live
// value in through Set once observation begins.
type Connectivity struct {
	mu          sync.RWMutex
	online      bool
	subscribers map[int64]func(bool)
	nextID      int64
}

// NewConnectivity constructs the observable in the online state.
func NewConnectivity() *Connectivity {
	return &Connectivity{
		online:      true,
		subscribers: make(map[int64]func(bool)),
	}
}

// Online reads the current connectivity value.
func (c *Connectivity) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// Set records a new connectivity value and notifies subscribers on
// transitions. Setting the current value again is a no-op.
func (c *Connectivity) Set(online bool) {
	c.mu.Lock()
	if c.online == online {
		c.mu.Unlock()
		return
	}
	c.online = online
	callbacks := make([]func(bool), 0, len(c.subscribers))
	for _, callback := range c.subscribers {
		callbacks = append(callbacks, callback)
	}
	c.mu.Unlock()

	for _, callback := range callbacks {
		callback(online)
	}
}

// Subscribe registers a transition callback and returns its unsubscribe
// function. Unsubscribing twice is safe.
func (c *Connectivity) Subscribe(callback func(bool)) func() {
	if callback == nil {
		return func() {}
	}

	c.mu.Lock()
	c.nextID++
	subscriberID := c.nextID
	c.subscribers[subscriberID] = callback
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, subscriberID)
		c.mu.Unlock()
	}
}
