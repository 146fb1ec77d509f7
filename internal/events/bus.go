// Package events carries named, payload-free signals from the host
// environment to the dashboard.
package events

import "sync"

// LogCall asks the listener to log one call.
const LogCall = "log-call"

type Handler func()

// Bus is a synchronous publish/subscribe channel keyed by event name.
// Handlers run on the publisher's goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: map[string]map[int]Handler{}}
}

// Subscribe registers h for name and returns a func that removes it.
func (b *Bus) Subscribe(name string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	if b.subs[name] == nil {
		b.subs[name] = map[int]Handler{}
	}
	b.subs[name][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[name], id)
		})
	}
}

// Publish calls every handler subscribed to name and reports how many ran.
func (b *Bus) Publish(name string) int {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[name]))
	for _, h := range b.subs[name] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h()
	}
	return len(handlers)
}
