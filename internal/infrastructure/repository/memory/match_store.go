package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/platform/lock"
)

// MatchStore is a single-instance match.Store. Fixture locks are in-process
// and every locked section works on copies that are committed only when the
// callback succeeds.
type MatchStore struct {
	mu          sync.RWMutex
	locks       *lock.Keyed
	lockTimeout time.Duration
	fixtures    map[string]match.Fixture
	pools       map[string][]match.PoolEntry
	slots       map[string][]match.SlotAssignment
	runs        map[string][]match.BalanceRun
}

func NewMatchStore(lockTimeout time.Duration) *MatchStore {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &MatchStore{
		locks:       lock.NewKeyed(),
		lockTimeout: lockTimeout,
		fixtures:    make(map[string]match.Fixture),
		pools:       make(map[string][]match.PoolEntry),
		slots:       make(map[string][]match.SlotAssignment),
		runs:        make(map[string][]match.BalanceRun),
	}
}

func fixtureKey(tenantID, fixtureID string) string {
	return tenantID + ":" + fixtureID
}

func (s *MatchStore) CreateFixture(_ context.Context, f match.Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fixtureKey(f.TenantID, f.ID)
	if _, exists := s.fixtures[key]; exists {
		return fmt.Errorf("fixture %s already exists", f.ID)
	}
	s.fixtures[key] = f
	return nil
}

func (s *MatchStore) GetFixture(_ context.Context, tenantID, fixtureID string) (match.Fixture, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fixtures[fixtureKey(tenantID, fixtureID)]
	return f, ok, nil
}

func (s *MatchStore) ListFixtures(_ context.Context, tenantID string, filter match.FixtureFilter) ([]match.Fixture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]match.Fixture, 0)
	for _, f := range s.fixtures {
		if f.TenantID != tenantID {
			continue
		}
		if filter.State != "" && f.State != filter.State {
			continue
		}
		if filter.From != nil && f.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && f.ScheduledAt.After(*filter.To) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MatchStore) ListPoolEntries(_ context.Context, tenantID, fixtureID string) ([]match.PoolEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]match.PoolEntry(nil), s.pools[fixtureKey(tenantID, fixtureID)]...), nil
}

func (s *MatchStore) ListSlots(_ context.Context, tenantID, fixtureID string) ([]match.SlotAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]match.SlotAssignment(nil), s.slots[fixtureKey(tenantID, fixtureID)]...), nil
}

func (s *MatchStore) ListBalanceRuns(_ context.Context, tenantID, fixtureID string, limit int) ([]match.BalanceRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := s.runs[fixtureKey(tenantID, fixtureID)]
	out := make([]match.BalanceRun, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		out = append(out, runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MatchStore) RecordBalanceRun(_ context.Context, run match.BalanceRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fixtureKey(run.TenantID, run.FixtureID)
	s.runs[key] = append(s.runs[key], run)
	return nil
}

func (s *MatchStore) WithinFixtureLock(ctx context.Context, tenantID, fixtureID string, fn func(ctx context.Context, tx match.Tx) error) error {
	key := fixtureKey(tenantID, fixtureID)

	acquireCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	release, err := s.locks.Acquire(acquireCtx, key)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", match.ErrLockTimeout, fixtureID)
		}
		return err
	}
	defer release()

	s.mu.RLock()
	f, ok := s.fixtures[key]
	tx := &memoryTx{
		fixture: f,
		pool:    append([]match.PoolEntry(nil), s.pools[key]...),
		slots:   append([]match.SlotAssignment(nil), s.slots[key]...),
	}
	s.mu.RUnlock()
	if !ok {
		return match.ErrFixtureNotFound
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", match.ErrLockTimeout, fixtureID)
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures[key] = tx.fixture
	s.pools[key] = tx.pool
	s.slots[key] = tx.slots
	s.runs[key] = append(s.runs[key], tx.runs...)
	return nil
}

type memoryTx struct {
	fixture match.Fixture
	pool    []match.PoolEntry
	slots   []match.SlotAssignment
	runs    []match.BalanceRun
}

func (t *memoryTx) Fixture() match.Fixture {
	return t.fixture
}

func (t *memoryTx) UpdateFixture(_ context.Context, f match.Fixture, expectedVersion int64) error {
	if t.fixture.Version != expectedVersion {
		return fmt.Errorf("%w: stored %d, expected %d", match.ErrVersionConflict, t.fixture.Version, expectedVersion)
	}
	f.ID, f.TenantID = t.fixture.ID, t.fixture.TenantID
	t.fixture = f
	return nil
}

func (t *memoryTx) ListPoolEntries(context.Context) ([]match.PoolEntry, error) {
	return append([]match.PoolEntry(nil), t.pool...), nil
}

func (t *memoryTx) InsertPoolEntry(_ context.Context, e match.PoolEntry) error {
	for _, existing := range t.pool {
		if existing.PlayerID == e.PlayerID {
			return fmt.Errorf("%w: %s", match.ErrDuplicateEntry, e.PlayerID)
		}
	}
	t.pool = append(t.pool, e)
	return nil
}

func (t *memoryTx) UpdatePoolEntry(_ context.Context, e match.PoolEntry) error {
	for i, existing := range t.pool {
		if existing.PlayerID == e.PlayerID {
			t.pool[i] = e
			return nil
		}
	}
	return fmt.Errorf("%w: %s", match.ErrPoolEntryNotFound, e.PlayerID)
}

func (t *memoryTx) DeletePoolEntry(_ context.Context, playerID string) error {
	for i, existing := range t.pool {
		if existing.PlayerID == playerID {
			t.pool = append(t.pool[:i:i], t.pool[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", match.ErrPoolEntryNotFound, playerID)
}

func (t *memoryTx) ListSlots(context.Context) ([]match.SlotAssignment, error) {
	return append([]match.SlotAssignment(nil), t.slots...), nil
}

func (t *memoryTx) ReplaceSlots(_ context.Context, slots []match.SlotAssignment) error {
	seen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		if slot.PlayerID == "" {
			continue
		}
		if _, dup := seen[slot.PlayerID]; dup {
			return fmt.Errorf("player %s assigned twice", slot.PlayerID)
		}
		seen[slot.PlayerID] = struct{}{}
	}

	t.slots = append([]match.SlotAssignment(nil), slots...)
	match.SortSlots(t.slots)
	return nil
}

func (t *memoryTx) ClearSlots(context.Context) error {
	t.slots = nil
	return nil
}

func (t *memoryTx) SwapSlots(_ context.Context, playerA, playerB string) error {
	swapped, err := match.SwapPlayers(t.slots, playerA, playerB)
	if err != nil {
		return err
	}
	t.slots = swapped
	return nil
}

func (t *memoryTx) AssignSlot(_ context.Context, playerID string, team match.Team, slot int) error {
	t.slots = match.PlaceInSlot(t.slots, t.fixture.ID, playerID, team, slot)
	return nil
}

func (t *memoryTx) RecordBalanceRun(_ context.Context, run match.BalanceRun) error {
	t.runs = append(t.runs, run)
	return nil
}
