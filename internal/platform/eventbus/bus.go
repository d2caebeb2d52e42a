package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

type Event struct {
	Name    string
	Key     string
	Payload any
}

type Handler func(context.Context, Event) error

// Bus delivers events to named handlers synchronously and to keyed watchers
// through buffered channels. A slow watcher loses events instead of blocking
// the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	watchers map[string]map[*Subscription]struct{}
	dropped  atomic.Uint64
}

type Subscription struct {
	bus    *Bus
	key    string
	ch     chan Event
	closed sync.Once
}

func NewBus() *Bus {
	return &Bus{
		handlers: map[string][]Handler{},
		watchers: map[string]map[*Subscription]struct{}{},
	}
}

func (b *Bus) Subscribe(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// Watch registers a channel receiving every event published with the given key.
func (b *Bus) Watch(key string, buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	sub := &Subscription{bus: b, key: key, ch: make(chan Event, buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.watchers[key]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.watchers[key] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.Name]...)
	for sub := range b.watchers[e.Key] {
		select {
		case sub.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Dropped counts events discarded because a watcher buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

func (s *Subscription) C() <-chan Event {
	return s.ch
}

func (s *Subscription) Close() {
	s.closed.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		if set, ok := s.bus.watchers[s.key]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.bus.watchers, s.key)
			}
		}
		close(s.ch)
	})
}
