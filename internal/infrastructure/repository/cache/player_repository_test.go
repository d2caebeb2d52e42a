package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/player"
	playermock "github.com/riskibarqy/matchday/internal/mocks/domain/player"
	"github.com/stretchr/testify/mock"
)

func TestPlayerRepository_CachesHitsAndMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := playermock.NewAttributeProvider(t)
	repo := NewPlayerRepository(next, time.Minute, 100)

	next.
		On("GetByID", mock.Anything, "t1", "p1").
		Return(player.Player{ID: "p1", TenantID: "t1", Name: "Ade"}, true, nil).
		Once()
	next.
		On("GetByID", mock.Anything, "t1", "ghost").
		Return(player.Player{}, false, nil).
		Once()

	for range 3 {
		got, ok, err := repo.GetByID(ctx, "t1", "p1")
		if err != nil || !ok || got.Name != "Ade" {
			t.Fatalf("unexpected lookup result: %+v %v %v", got, ok, err)
		}
		if _, ok, err := repo.GetByID(ctx, "t1", "ghost"); err != nil || ok {
			t.Fatalf("expected cached miss, got ok=%v err=%v", ok, err)
		}
	}
}

func TestPlayerRepository_DoesNotCacheErrorsAndInvalidates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := playermock.NewAttributeProvider(t)
	repo := NewPlayerRepository(next, time.Minute, 100)

	next.
		On("GetByID", mock.Anything, "t1", "p1").
		Return(player.Player{}, false, errors.New("db down")).
		Once()
	next.
		On("GetByID", mock.Anything, "t1", "p1").
		Return(player.Player{ID: "p1"}, true, nil).
		Twice()

	if _, _, err := repo.GetByID(ctx, "t1", "p1"); err == nil {
		t.Fatalf("expected first lookup to fail")
	}
	if _, ok, err := repo.GetByID(ctx, "t1", "p1"); err != nil || !ok {
		t.Fatalf("expected retry to reach provider, got ok=%v err=%v", ok, err)
	}

	repo.InvalidateTenant(ctx, "t1")
	if _, ok, err := repo.GetByID(ctx, "t1", "p1"); err != nil || !ok {
		t.Fatalf("expected reload after invalidation, got ok=%v err=%v", ok, err)
	}
}
