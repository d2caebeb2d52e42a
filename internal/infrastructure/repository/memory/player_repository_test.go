package memory

import (
	"context"
	"testing"

	"github.com/riskibarqy/matchday/internal/domain/player"
)

func TestPlayerRepository_TenantScopedLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewPlayerRepository(SeedPlayers("t1"))

	p, ok, err := repo.GetByID(ctx, "t1", "pl-01")
	if err != nil || !ok {
		t.Fatalf("expected seeded player, ok=%v err=%v", ok, err)
	}
	if p.Name != "Ade" {
		t.Fatalf("unexpected name %q", p.Name)
	}
	if _, ok, _ := repo.GetByID(ctx, "t2", "pl-01"); ok {
		t.Fatalf("expected other tenant lookup to miss")
	}
}

func TestPlayerRepository_UpsertRejectsWholeBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewPlayerRepository(nil)

	batch := SeedPlayers("t1")[:2]
	batch[1].ID = ""
	if err := repo.Upsert(ctx, batch); err == nil {
		t.Fatalf("expected invalid batch to fail")
	}
	if _, ok, _ := repo.GetByID(ctx, "t1", batch[0].ID); ok {
		t.Fatalf("expected nothing stored from rejected batch")
	}

	renamed := SeedPlayers("t1")[0]
	renamed.Name = "Adi"
	if err := repo.Upsert(ctx, SeedPlayers("t1")[:1]); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(ctx, []player.Player{renamed}); err != nil {
		t.Fatalf("upsert rename: %v", err)
	}
	got, _, _ := repo.GetByID(ctx, "t1", renamed.ID)
	if got.Name != "Adi" {
		t.Fatalf("expected upsert to overwrite, got %q", got.Name)
	}
}
