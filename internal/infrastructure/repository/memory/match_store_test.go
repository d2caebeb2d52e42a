package memory

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/match"
)

func seedFixture(t *testing.T, store *MatchStore) match.Fixture {
	t.Helper()

	f := match.Fixture{
		ID:          "fx-1",
		TenantID:    "t1",
		ScheduledAt: time.Date(2026, 10, 24, 19, 0, 0, 0, time.UTC),
		TeamSize:    2,
		TeamALabel:  "Bibs",
		TeamBLabel:  "Skins",
		State:       match.StatePoolLocked,
		Version:     1,
	}
	if err := store.CreateFixture(context.Background(), f); err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	return f
}

func TestMatchStore_SwapThenStaleVersionConflicts(t *testing.T) {
	t.Parallel()

	store := NewMatchStore(time.Second)
	f := seedFixture(t, store)
	ctx := context.Background()

	err := store.WithinFixtureLock(ctx, "t1", f.ID, func(ctx context.Context, tx match.Tx) error {
		return tx.ReplaceSlots(ctx, match.BuildAssignments(f.ID, []string{"p1"}, []string{"p2"}))
	})
	if err != nil {
		t.Fatalf("replace slots: %v", err)
	}

	swap := func() error {
		return store.WithinFixtureLock(ctx, "t1", f.ID, func(ctx context.Context, tx match.Tx) error {
			if err := tx.SwapSlots(ctx, "p1", "p2"); err != nil {
				return err
			}
			next := tx.Fixture()
			next.Version = 2
			return tx.UpdateFixture(ctx, next, 1)
		})
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = swap()
		}()
	}
	wg.Wait()

	conflicts := 0
	for _, err := range results {
		switch {
		case err == nil:
		case errors.Is(err, match.ErrVersionConflict):
			conflicts++
		default:
			t.Fatalf("unexpected swap error: %v", err)
		}
	}
	if conflicts != 1 {
		t.Fatalf("expected exactly one conflict, got %d", conflicts)
	}

	slots, _ := store.ListSlots(ctx, "t1", f.ID)
	if got := match.TeamPlayers(slots, match.TeamA); !reflect.DeepEqual(got, []string{"p2"}) {
		t.Fatalf("expected p2 on team A after one swap, got %v", got)
	}
	stored, _, _ := store.GetFixture(ctx, "t1", f.ID)
	if stored.Version != 2 {
		t.Fatalf("expected version 2, got %d", stored.Version)
	}
}

func TestMatchStore_ReplaceSlotsIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMatchStore(time.Second)
	f := seedFixture(t, store)
	ctx := context.Background()
	split := match.BuildAssignments(f.ID, []string{"p1", "p3"}, []string{"p2", "p4"})

	for range 2 {
		err := store.WithinFixtureLock(ctx, "t1", f.ID, func(ctx context.Context, tx match.Tx) error {
			return tx.ReplaceSlots(ctx, split)
		})
		if err != nil {
			t.Fatalf("replace slots: %v", err)
		}
	}

	slots, _ := store.ListSlots(ctx, "t1", f.ID)
	if !reflect.DeepEqual(slots, split) {
		t.Fatalf("expected identical slot set, got %+v", slots)
	}
}

func TestMatchStore_RollbackOnError(t *testing.T) {
	t.Parallel()

	store := NewMatchStore(time.Second)
	f := seedFixture(t, store)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinFixtureLock(ctx, "t1", f.ID, func(ctx context.Context, tx match.Tx) error {
		if err := tx.InsertPoolEntry(ctx, match.PoolEntry{FixtureID: f.ID, PlayerID: "p1", Status: match.ResponseConfirmed}); err != nil {
			return err
		}
		if err := tx.InsertPoolEntry(ctx, match.PoolEntry{FixtureID: f.ID, PlayerID: "p1"}); !errors.Is(err, match.ErrDuplicateEntry) {
			t.Fatalf("expected ErrDuplicateEntry, got %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	entries, _ := store.ListPoolEntries(ctx, "t1", f.ID)
	if len(entries) != 0 {
		t.Fatalf("rolled back insert is visible: %+v", entries)
	}
}

func TestMatchStore_LockTimeout(t *testing.T) {
	t.Parallel()

	store := NewMatchStore(30 * time.Millisecond)
	f := seedFixture(t, store)
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = store.WithinFixtureLock(ctx, "t1", f.ID, func(context.Context, match.Tx) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := store.WithinFixtureLock(ctx, "t1", f.ID, func(context.Context, match.Tx) error { return nil })
	close(done)
	if !errors.Is(err, match.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}

func TestMatchStore_TenantScoping(t *testing.T) {
	t.Parallel()

	store := NewMatchStore(time.Second)
	f := seedFixture(t, store)
	ctx := context.Background()

	if _, ok, _ := store.GetFixture(ctx, "t2", f.ID); ok {
		t.Fatalf("fixture leaked across tenants")
	}
	err := store.WithinFixtureLock(ctx, "t2", f.ID, func(context.Context, match.Tx) error { return nil })
	if !errors.Is(err, match.ErrFixtureNotFound) {
		t.Fatalf("expected ErrFixtureNotFound, got %v", err)
	}
}

func TestMatchStore_BalanceRunsNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewMatchStore(time.Second)
	f := seedFixture(t, store)
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3"} {
		if err := store.RecordBalanceRun(ctx, match.BalanceRun{ID: id, TenantID: "t1", FixtureID: f.ID}); err != nil {
			t.Fatalf("record run: %v", err)
		}
	}

	runs, err := store.ListBalanceRuns(ctx, "t1", f.ID, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r3" || runs[1].ID != "r2" {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestMatchStore_ListFixturesFilters(t *testing.T) {
	t.Parallel()

	store := NewMatchStore(time.Second)
	ctx := context.Background()
	base := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	for i, state := range []match.State{match.StateDraft, match.StatePoolLocked, match.StateDraft} {
		f := match.Fixture{ID: string(rune('a' + i)), TenantID: "t1", ScheduledAt: base.AddDate(0, 0, 7*i), State: state}
		if err := store.CreateFixture(ctx, f); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	drafts, _ := store.ListFixtures(ctx, "t1", match.FixtureFilter{State: match.StateDraft})
	if len(drafts) != 2 || drafts[0].ID != "a" || drafts[1].ID != "c" {
		t.Fatalf("unexpected drafts %+v", drafts)
	}

	from := base.AddDate(0, 0, 1)
	later, _ := store.ListFixtures(ctx, "t1", match.FixtureFilter{From: &from, Limit: 1})
	if len(later) != 1 || later[0].ID != "b" {
		t.Fatalf("unexpected filtered fixtures %+v", later)
	}
}
