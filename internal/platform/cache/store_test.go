package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_DeduplicatesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute, 0)
	var calls atomic.Int32

	loader := func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "player-attrs", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "t1:p1", loader)
			if err != nil {
				errCh <- err
				return
			}
			if v != "player-attrs" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute, 0)
	var calls atomic.Int32
	loader := func(context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("provider down")
		}
		return 7, nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err == nil {
		t.Fatalf("expected first load to fail")
	}
	got, err := store.GetOrLoad(context.Background(), "k", loader)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if got != 7 {
		t.Fatalf("unexpected value: %d", got)
	}
}

func TestStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	store := NewStore[string](time.Second, 0)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "k", "v")
	if _, ok := store.Get(context.Background(), "k"); !ok {
		t.Fatalf("expected hit before expiry")
	}

	now = now.Add(2 * time.Second)
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("expected miss after expiry")
	}
}

func TestStore_MaxEntriesAndDeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore[int](0, 2)
	ctx := context.Background()
	store.Set(ctx, "t1:a", 1)
	store.Set(ctx, "t1:b", 2)
	store.Set(ctx, "t2:c", 3)
	if store.Len() != 2 {
		t.Fatalf("expected eviction to cap entries at 2, got %d", store.Len())
	}

	store.DeletePrefix(ctx, "t1:")
	if _, ok := store.Get(ctx, "t2:c"); !ok {
		t.Fatalf("expected t2 entry to survive prefix delete")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one entry after prefix delete, got %d", store.Len())
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
