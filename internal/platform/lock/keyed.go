package lock

import (
	"context"
	"sync"
)

// Keyed hands out one mutual-exclusion slot per key. Acquisition honours
// context cancellation so callers waiting behind a slow holder can time out.
type Keyed struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch      chan struct{}
	waiters int
}

func NewKeyed() *Keyed {
	return &Keyed{slots: make(map[string]*slot)}
}

// Acquire blocks until key is free or ctx is done. The returned release func
// must be called exactly once.
func (k *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.waiters++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		k.forget(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.forget(key, s)
		})
	}, nil
}

func (k *Keyed) forget(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.waiters--
	if s.waiters == 0 {
		delete(k.slots, key)
	}
}

// Held returns the number of keys with an owner or waiter.
func (k *Keyed) Held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
