package match

import "context"

// Store persists fixtures and their pools, slots and balance runs. Every call
// is scoped by tenant.
type Store interface {
	CreateFixture(ctx context.Context, f Fixture) error
	GetFixture(ctx context.Context, tenantID, fixtureID string) (Fixture, bool, error)
	ListFixtures(ctx context.Context, tenantID string, filter FixtureFilter) ([]Fixture, error)
	ListPoolEntries(ctx context.Context, tenantID, fixtureID string) ([]PoolEntry, error)
	ListSlots(ctx context.Context, tenantID, fixtureID string) ([]SlotAssignment, error)
	ListBalanceRuns(ctx context.Context, tenantID, fixtureID string, limit int) ([]BalanceRun, error)
	// RecordBalanceRun stores a run outside any fixture lock, used for failed attempts.
	RecordBalanceRun(ctx context.Context, run BalanceRun) error
	// WithinFixtureLock runs fn in one transaction holding the fixture's
	// exclusive lock. Returning an error from fn rolls everything back.
	// Returns ErrFixtureNotFound when the fixture does not exist for the
	// tenant and ErrLockTimeout when the lock or transaction times out.
	WithinFixtureLock(ctx context.Context, tenantID, fixtureID string, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of writes permitted while a fixture lock is held.
type Tx interface {
	// Fixture is the row as read under the lock.
	Fixture() Fixture
	// UpdateFixture writes f only if the stored version still equals
	// expectedVersion, otherwise ErrVersionConflict.
	UpdateFixture(ctx context.Context, f Fixture, expectedVersion int64) error
	ListPoolEntries(ctx context.Context) ([]PoolEntry, error)
	InsertPoolEntry(ctx context.Context, e PoolEntry) error
	UpdatePoolEntry(ctx context.Context, e PoolEntry) error
	DeletePoolEntry(ctx context.Context, playerID string) error
	ListSlots(ctx context.Context) ([]SlotAssignment, error)
	// ReplaceSlots deletes every slot of the fixture then inserts slots.
	ReplaceSlots(ctx context.Context, slots []SlotAssignment) error
	ClearSlots(ctx context.Context) error
	SwapSlots(ctx context.Context, playerA, playerB string) error
	AssignSlot(ctx context.Context, playerID string, team Team, slot int) error
	RecordBalanceRun(ctx context.Context, run BalanceRun) error
}
