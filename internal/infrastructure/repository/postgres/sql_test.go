package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/matchday/internal/domain/match"
)

func TestTranslateError(t *testing.T) {
	t.Run("statement timeout becomes lock timeout", func(t *testing.T) {
		err := translateError(fmt.Errorf("update fixture: %w", &pq.Error{Code: pqCodeQueryCanceled, Message: "canceling statement due to statement timeout"}))
		if !errors.Is(err, match.ErrLockTimeout) {
			t.Fatalf("expected ErrLockTimeout, got %v", err)
		}
	})

	t.Run("lock not available becomes lock timeout", func(t *testing.T) {
		err := translateError(&pq.Error{Code: pqCodeLockNotAvailable})
		if !errors.Is(err, match.ErrLockTimeout) {
			t.Fatalf("expected ErrLockTimeout, got %v", err)
		}
	})

	t.Run("context deadline becomes lock timeout", func(t *testing.T) {
		if err := translateError(context.DeadlineExceeded); !errors.Is(err, match.ErrLockTimeout) {
			t.Fatalf("expected ErrLockTimeout, got %v", err)
		}
	})

	t.Run("pool primary key violation becomes duplicate entry", func(t *testing.T) {
		err := translateError(&pq.Error{Code: pqCodeUniqueViolation, Constraint: poolEntryPrimaryKey})
		if !errors.Is(err, match.ErrDuplicateEntry) {
			t.Fatalf("expected ErrDuplicateEntry, got %v", err)
		}
	})

	t.Run("other unique violations pass through", func(t *testing.T) {
		raw := &pq.Error{Code: pqCodeUniqueViolation, Constraint: "uq_fixture_slots_player"}
		if err := translateError(raw); errors.Is(err, match.ErrDuplicateEntry) {
			t.Fatalf("slot uniqueness must not look like a pool duplicate")
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if translateError(nil) != nil {
			t.Fatalf("expected nil")
		}
	})
}

func TestSetLocalTimeout(t *testing.T) {
	if got := setLocalTimeout("lock_timeout", 5*time.Second); got != "SET LOCAL lock_timeout = '5000ms'" {
		t.Fatalf("unexpected statement %q", got)
	}
	if got := setLocalTimeout("statement_timeout", 0); got != "SET LOCAL statement_timeout = '1ms'" {
		t.Fatalf("unexpected statement %q", got)
	}
}

func TestFixtureSelectQuery(t *testing.T) {
	query, args, err := fixtureSelectQuery("t1", "fx-1", true)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.HasSuffix(query, "WHERE public_id = $1 AND tenant_id = $2 LIMIT 1 FOR UPDATE") {
		t.Fatalf("unexpected query %q", query)
	}
	if len(args) != 2 || args[0] != "fx-1" || args[1] != "t1" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestListFixturesQuery(t *testing.T) {
	from := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	query, args, err := listFixturesQuery("t1", match.FixtureFilter{State: match.StateDraft, From: &from, Limit: 10})
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.Contains(query, "WHERE tenant_id = $1 AND state = $2 AND scheduled_at >= $3") {
		t.Fatalf("unexpected where clause %q", query)
	}
	if !strings.HasSuffix(query, "ORDER BY scheduled_at, public_id LIMIT 10") {
		t.Fatalf("unexpected ordering %q", query)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %v", args)
	}
}

func TestSlotModelNullPlayer(t *testing.T) {
	slot := slotTableModel{FixtureID: "fx", Team: "A", SlotNumber: 3}.toDomain()
	if slot.PlayerID != "" || slot.Team != match.TeamA || slot.SlotNumber != 3 {
		t.Fatalf("unexpected slot %+v", slot)
	}
	if v := nullString(""); v.Valid {
		t.Fatalf("empty player id should be NULL")
	}
}

func TestPlayerModelPerformanceRequiresBothColumns(t *testing.T) {
	row := playerTableModel{PublicID: "p1", PowerRating: sql.NullFloat64{Float64: 6, Valid: true}}
	if row.toDomain().Performance != nil {
		t.Fatalf("partial performance must be treated as missing")
	}
	row.PerformanceGoalThreat = sql.NullFloat64{Float64: 0.4, Valid: true}
	perf := row.toDomain().Performance
	if perf == nil || perf.PowerRating != 6 || perf.GoalThreat != 0.4 {
		t.Fatalf("unexpected performance %+v", perf)
	}
}

func TestBalanceRunSeedRoundTrip(t *testing.T) {
	run := match.BalanceRun{ID: "r1", Seed: 18446744073709551615, Status: match.RunDegraded}
	values := balanceRunValues(run)
	if len(values) != len(balanceRunColumns) {
		t.Fatalf("values/columns mismatch: %d vs %d", len(values), len(balanceRunColumns))
	}
	model := balanceRunTableModel{PublicID: "r1", Seed: values[10].(string), Status: "degraded"}
	if got := model.toDomain(); got.Seed != run.Seed || got.Status != match.RunDegraded {
		t.Fatalf("unexpected run %+v", got)
	}
}
