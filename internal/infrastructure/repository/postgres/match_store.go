package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/domain/match"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

// MatchStore implements match.Store. Fixture writes are serialized with a
// transaction-scoped advisory lock plus a row lock on the fixture.
type MatchStore struct {
	db          *sqlx.DB
	txTimeout   time.Duration
	lockTimeout time.Duration
	now         func() time.Time
}

func NewMatchStore(db *sqlx.DB, txTimeout, lockTimeout time.Duration) *MatchStore {
	if txTimeout <= 0 {
		txTimeout = 20 * time.Second
	}
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &MatchStore{db: db, txTimeout: txTimeout, lockTimeout: lockTimeout, now: time.Now}
}

func (s *MatchStore) CreateFixture(ctx context.Context, f match.Fixture) error {
	query, args, err := qb.InsertInto("fixtures").
		Columns(
			"public_id", "tenant_id", "scheduled_at", "team_size", "team_a_label", "team_b_label",
			"state", "version", "created_by", "created_at", "updated_at",
		).
		Values(
			f.ID, f.TenantID, f.ScheduledAt, f.TeamSize, f.TeamALabel, f.TeamBLabel,
			string(f.State), f.Version, f.CreatedBy, f.CreatedAt, f.UpdatedAt,
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert fixture query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert fixture: %w", err)
	}
	return nil
}

func fixtureSelectQuery(tenantID, fixtureID string, forUpdate bool) (string, []any, error) {
	b := qb.Select(fixtureSelectColumns...).From("fixtures").
		Where(
			qb.Eq("public_id", fixtureID),
			qb.Eq("tenant_id", tenantID),
		).
		Limit(1)
	if forUpdate {
		b.ForUpdate()
	}
	return b.ToSQL()
}

func (s *MatchStore) GetFixture(ctx context.Context, tenantID, fixtureID string) (match.Fixture, bool, error) {
	query, args, err := fixtureSelectQuery(tenantID, fixtureID, false)
	if err != nil {
		return match.Fixture{}, false, fmt.Errorf("build select fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Fixture{}, false, nil
		}
		return match.Fixture{}, false, fmt.Errorf("select fixture: %w", err)
	}
	return row.toDomain(), true, nil
}

func listFixturesQuery(tenantID string, filter match.FixtureFilter) (string, []any, error) {
	conds := []qb.Condition{qb.Eq("tenant_id", tenantID)}
	if filter.State != "" {
		conds = append(conds, qb.Eq("state", string(filter.State)))
	}
	if filter.From != nil {
		conds = append(conds, qb.Expr("scheduled_at >= ?", *filter.From))
	}
	if filter.To != nil {
		conds = append(conds, qb.Expr("scheduled_at <= ?", *filter.To))
	}
	return qb.Select(fixtureSelectColumns...).From("fixtures").
		Where(conds...).
		OrderBy("scheduled_at", "public_id").
		Limit(filter.Limit).
		ToSQL()
}

func (s *MatchStore) ListFixtures(ctx context.Context, tenantID string, filter match.FixtureFilter) ([]match.Fixture, error) {
	query, args, err := listFixturesQuery(tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("build list fixtures query: %w", err)
	}

	var rows []fixtureTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fixtures: %w", err)
	}

	out := make([]match.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *MatchStore) ListPoolEntries(ctx context.Context, tenantID, fixtureID string) ([]match.PoolEntry, error) {
	return listPoolEntries(ctx, s.db, tenantID, fixtureID)
}

func (s *MatchStore) ListSlots(ctx context.Context, tenantID, fixtureID string) ([]match.SlotAssignment, error) {
	if _, ok, err := s.GetFixture(ctx, tenantID, fixtureID); err != nil || !ok {
		return nil, err
	}
	return listSlots(ctx, s.db, fixtureID)
}

func (s *MatchStore) ListBalanceRuns(ctx context.Context, tenantID, fixtureID string, limit int) ([]match.BalanceRun, error) {
	query, args, err := qb.Select(balanceRunColumns...).From("balance_runs").
		Where(
			qb.Eq("tenant_id", tenantID),
			qb.Eq("fixture_public_id", fixtureID),
		).
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list balance runs query: %w", err)
	}

	var rows []balanceRunTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select balance runs: %w", err)
	}

	out := make([]match.BalanceRun, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *MatchStore) RecordBalanceRun(ctx context.Context, run match.BalanceRun) error {
	return insertBalanceRun(ctx, s.db, run)
}

func (s *MatchStore) WithinFixtureLock(ctx context.Context, tenantID, fixtureID string, fn func(ctx context.Context, tx match.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return translateError(fmt.Errorf("begin fixture tx: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range []string{
		setLocalTimeout("lock_timeout", s.lockTimeout),
		setLocalTimeout("statement_timeout", s.txTimeout),
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return translateError(fmt.Errorf("configure fixture tx: %w", err))
		}
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, advisoryLockKey(tenantID, fixtureID)); err != nil {
		return translateError(fmt.Errorf("acquire fixture advisory lock: %w", err))
	}

	query, args, err := fixtureSelectQuery(tenantID, fixtureID, true)
	if err != nil {
		return fmt.Errorf("build lock fixture query: %w", err)
	}
	var row fixtureTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.ErrFixtureNotFound
		}
		return translateError(fmt.Errorf("lock fixture row: %w", err))
	}

	ftx := &fixtureTx{tx: tx, fixture: row.toDomain(), now: s.now}
	if err := fn(ctx, ftx); err != nil {
		return translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return translateError(fmt.Errorf("commit fixture tx: %w", err))
	}
	return nil
}

type fixtureTx struct {
	tx      *sqlx.Tx
	fixture match.Fixture
	now     func() time.Time
}

func (t *fixtureTx) Fixture() match.Fixture {
	return t.fixture
}

func (t *fixtureTx) UpdateFixture(ctx context.Context, f match.Fixture, expectedVersion int64) error {
	query, args, err := qb.Update("fixtures").
		Set("scheduled_at", f.ScheduledAt).
		Set("team_a_label", f.TeamALabel).
		Set("team_b_label", f.TeamBLabel).
		Set("state", string(f.State)).
		Set("version", f.Version).
		Set("teams_locked_at", f.TeamsLockedAt).
		Set("teams_published_at", f.TeamsPublishedAt).
		Set("updated_at", f.UpdatedAt).
		Where(
			qb.Eq("public_id", t.fixture.ID),
			qb.Eq("tenant_id", t.fixture.TenantID),
			qb.Eq("version", expectedVersion),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture query: %w", err)
	}

	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update fixture: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read update fixture result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expected version %d", match.ErrVersionConflict, expectedVersion)
	}

	f.ID, f.TenantID = t.fixture.ID, t.fixture.TenantID
	t.fixture = f
	return nil
}

func (t *fixtureTx) ListPoolEntries(ctx context.Context) ([]match.PoolEntry, error) {
	return listPoolEntries(ctx, t.tx, t.fixture.TenantID, t.fixture.ID)
}

func (t *fixtureTx) InsertPoolEntry(ctx context.Context, e match.PoolEntry) error {
	query, args, err := qb.InsertInto("fixture_pool_entries").
		Columns(poolEntrySelectColumns...).
		Values(t.fixture.ID, t.fixture.TenantID, e.PlayerID, string(e.Status), e.Notes, e.CreatedAt, e.UpdatedAt).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert pool entry query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert pool entry: %w", translateError(err))
	}
	return nil
}

func (t *fixtureTx) UpdatePoolEntry(ctx context.Context, e match.PoolEntry) error {
	query, args, err := qb.Update("fixture_pool_entries").
		Set("status", string(e.Status)).
		Set("notes", e.Notes).
		Set("updated_at", e.UpdatedAt).
		Where(
			qb.Eq("fixture_public_id", t.fixture.ID),
			qb.Eq("player_public_id", e.PlayerID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update pool entry query: %w", err)
	}
	return t.execExpectingRow(ctx, query, args, fmt.Errorf("%w: %s", match.ErrPoolEntryNotFound, e.PlayerID))
}

func (t *fixtureTx) DeletePoolEntry(ctx context.Context, playerID string) error {
	query, args, err := qb.DeleteFrom("fixture_pool_entries").
		Where(
			qb.Eq("fixture_public_id", t.fixture.ID),
			qb.Eq("player_public_id", playerID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete pool entry query: %w", err)
	}
	return t.execExpectingRow(ctx, query, args, fmt.Errorf("%w: %s", match.ErrPoolEntryNotFound, playerID))
}

func (t *fixtureTx) ListSlots(ctx context.Context) ([]match.SlotAssignment, error) {
	return listSlots(ctx, t.tx, t.fixture.ID)
}

func (t *fixtureTx) ReplaceSlots(ctx context.Context, slots []match.SlotAssignment) error {
	if err := t.ClearSlots(ctx); err != nil {
		return err
	}
	if len(slots) == 0 {
		return nil
	}

	now := t.now().UTC()
	insert := qb.InsertInto("fixture_slots").Columns("fixture_public_id", "team", "slot_number", "player_public_id", "updated_at")
	for _, slot := range slots {
		insert.Values(t.fixture.ID, string(slot.Team), slot.SlotNumber, nullString(slot.PlayerID), now)
	}
	query, args, err := insert.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert slots query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert slots: %w", err)
	}
	return nil
}

func (t *fixtureTx) ClearSlots(ctx context.Context) error {
	query, args, err := qb.DeleteFrom("fixture_slots").Where(qb.Eq("fixture_public_id", t.fixture.ID)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete slots query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	return nil
}

// SwapSlots locks both slot rows, parks player A in the unassigned state so
// the (fixture, player) unique index never sees a duplicate, then writes
// each player into the other's slot.
func (t *fixtureTx) SwapSlots(ctx context.Context, playerA, playerB string) error {
	query, args, err := qb.Select(slotSelectColumns...).From("fixture_slots").
		Where(
			qb.Eq("fixture_public_id", t.fixture.ID),
			qb.In("player_public_id", []any{playerA, playerB}),
		).
		OrderBy("team", "slot_number").
		ForUpdate().
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock slots query: %w", err)
	}

	var rows []slotTableModel
	if err := t.tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("lock slots: %w", err)
	}

	byPlayer := make(map[string]slotTableModel, len(rows))
	for _, row := range rows {
		byPlayer[row.PlayerID.String] = row
	}
	slotA, okA := byPlayer[playerA]
	if !okA {
		return fmt.Errorf("%w: %s", match.ErrSlotNotFound, playerA)
	}
	slotB, okB := byPlayer[playerB]
	if !okB {
		return fmt.Errorf("%w: %s", match.ErrSlotNotFound, playerB)
	}

	now := t.now().UTC()
	for _, step := range []struct {
		slot     slotTableModel
		playerID string
	}{
		{slot: slotA, playerID: ""},
		{slot: slotB, playerID: playerA},
		{slot: slotA, playerID: playerB},
	} {
		if err := t.setSlotPlayer(ctx, step.slot, step.playerID, now); err != nil {
			return err
		}
	}
	return nil
}

func (t *fixtureTx) setSlotPlayer(ctx context.Context, slot slotTableModel, playerID string, now time.Time) error {
	query, args, err := qb.Update("fixture_slots").
		Set("player_public_id", nullString(playerID)).
		Set("updated_at", now).
		Where(
			qb.Eq("fixture_public_id", t.fixture.ID),
			qb.Eq("team", slot.Team),
			qb.Eq("slot_number", slot.SlotNumber),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update slot query: %w", err)
	}
	return t.execExpectingRow(ctx, query, args, fmt.Errorf("%w: %s/%d", match.ErrSlotNotFound, slot.Team, slot.SlotNumber))
}

func (t *fixtureTx) AssignSlot(ctx context.Context, playerID string, team match.Team, slot int) error {
	now := t.now().UTC()

	clearQuery, clearArgs, err := qb.Update("fixture_slots").
		Set("player_public_id", nil).
		Set("updated_at", now).
		Where(
			qb.Eq("fixture_public_id", t.fixture.ID),
			qb.Eq("player_public_id", playerID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear player slot query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear player slot: %w", err)
	}

	upsertQuery, upsertArgs, err := qb.InsertInto("fixture_slots").
		Columns("fixture_public_id", "team", "slot_number", "player_public_id", "updated_at").
		Values(t.fixture.ID, string(team), slot, playerID, now).
		Suffix(`ON CONFLICT (fixture_public_id, team, slot_number)
DO UPDATE SET player_public_id = EXCLUDED.player_public_id, updated_at = EXCLUDED.updated_at`).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build upsert slot query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, upsertQuery, upsertArgs...); err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}
	return nil
}

func (t *fixtureTx) RecordBalanceRun(ctx context.Context, run match.BalanceRun) error {
	return insertBalanceRun(ctx, t.tx, run)
}

func (t *fixtureTx) execExpectingRow(ctx context.Context, query string, args []any, missing error) error {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}

func listPoolEntries(ctx context.Context, q sqlx.QueryerContext, tenantID, fixtureID string) ([]match.PoolEntry, error) {
	query, args, err := qb.Select(poolEntrySelectColumns...).From("fixture_pool_entries").
		Where(
			qb.Eq("fixture_public_id", fixtureID),
			qb.Eq("tenant_id", tenantID),
		).
		OrderBy("created_at", "player_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select pool entries query: %w", err)
	}

	var rows []poolEntryTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select pool entries: %w", err)
	}

	out := make([]match.PoolEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func listSlots(ctx context.Context, q sqlx.QueryerContext, fixtureID string) ([]match.SlotAssignment, error) {
	query, args, err := qb.Select(slotSelectColumns...).From("fixture_slots").
		Where(qb.Eq("fixture_public_id", fixtureID)).
		OrderBy("team", "slot_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select slots query: %w", err)
	}

	var rows []slotTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select slots: %w", err)
	}

	out := make([]match.SlotAssignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func insertBalanceRun(ctx context.Context, db execer, run match.BalanceRun) error {
	query, args, err := qb.InsertInto("balance_runs").
		Columns(balanceRunColumns...).
		Values(balanceRunValues(run)...).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert balance run query: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert balance run: %w", err)
	}
	return nil
}
