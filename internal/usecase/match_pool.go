package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/riskibarqy/matchday/internal/domain/match"
)

type PoolEntryInput struct {
	FixtureCommand
	PlayerID string
	Status   string
	Notes    string
}

// AddToPool adds a player to the fixture pool. The entry counts towards the
// pool only when confirmed.
func (s *MatchService) AddToPool(ctx context.Context, input PoolEntryInput) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.AddToPool")
	defer span.End()

	playerID, status, err := normalizePoolEntry(input)
	if err != nil {
		return match.Fixture{}, err
	}
	if _, err := s.requirePlayer(ctx, input.TenantID, playerID); err != nil {
		return match.Fixture{}, err
	}

	return s.mutate(ctx, input.FixtureCommand, "pool_added", func(ctx context.Context, tx match.Tx, f *match.Fixture) error {
		return s.changePool(ctx, tx, f, func(entries []match.PoolEntry) error {
			now := s.now().UTC()
			return tx.InsertPoolEntry(ctx, match.PoolEntry{
				FixtureID: f.ID,
				TenantID:  f.TenantID,
				PlayerID:  playerID,
				Status:    status,
				Notes:     strings.TrimSpace(input.Notes),
				CreatedAt: now,
				UpdatedAt: now,
			})
		})
	})
}

// UpdatePoolResponse changes a pooled player's response status or notes.
func (s *MatchService) UpdatePoolResponse(ctx context.Context, input PoolEntryInput) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.UpdatePoolResponse")
	defer span.End()

	playerID, status, err := normalizePoolEntry(input)
	if err != nil {
		return match.Fixture{}, err
	}

	return s.mutate(ctx, input.FixtureCommand, "pool_updated", func(ctx context.Context, tx match.Tx, f *match.Fixture) error {
		return s.changePool(ctx, tx, f, func(entries []match.PoolEntry) error {
			idx := slices.IndexFunc(entries, func(e match.PoolEntry) bool { return e.PlayerID == playerID })
			if idx < 0 {
				return fmt.Errorf("%w: %s", match.ErrPoolEntryNotFound, playerID)
			}
			entry := entries[idx]
			entry.Status = status
			entry.Notes = strings.TrimSpace(input.Notes)
			entry.UpdatedAt = s.now().UTC()
			return tx.UpdatePoolEntry(ctx, entry)
		})
	})
}

// RemoveFromPool drops a player from the fixture pool.
func (s *MatchService) RemoveFromPool(ctx context.Context, input PoolEntryInput) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RemoveFromPool")
	defer span.End()

	playerID := strings.TrimSpace(input.PlayerID)
	if playerID == "" {
		return match.Fixture{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	return s.mutate(ctx, input.FixtureCommand, "pool_removed", func(ctx context.Context, tx match.Tx, f *match.Fixture) error {
		return s.changePool(ctx, tx, f, func(entries []match.PoolEntry) error {
			if !slices.ContainsFunc(entries, func(e match.PoolEntry) bool { return e.PlayerID == playerID }) {
				return fmt.Errorf("%w: %s", match.ErrPoolEntryNotFound, playerID)
			}
			return tx.DeletePoolEntry(ctx, playerID)
		})
	})
}

// changePool applies edit and, when the confirmed set moved, drops any slots.
// A fixture that already had teams falls back to PoolLocked.
func (s *MatchService) changePool(ctx context.Context, tx match.Tx, f *match.Fixture, edit func([]match.PoolEntry) error) error {
	if !f.State.AllowsPoolChanges() {
		return fmt.Errorf("%w: pool is closed while fixture is %s", ErrInvalidState, f.State)
	}

	before, err := tx.ListPoolEntries(ctx)
	if err != nil {
		return fmt.Errorf("list pool entries: %w", err)
	}
	if err := edit(before); err != nil {
		return err
	}
	after, err := tx.ListPoolEntries(ctx)
	if err != nil {
		return fmt.Errorf("list pool entries: %w", err)
	}

	if sameMembers(match.ConfirmedPlayerIDs(before), match.ConfirmedPlayerIDs(after)) {
		return nil
	}
	if f.State == match.StateDraft {
		return nil
	}

	if err := tx.ClearSlots(ctx); err != nil {
		return fmt.Errorf("clear slots: %w", err)
	}
	if f.State.HasTeams() {
		s.logger.InfoContext(ctx, "pool changed after balance, teams discarded", "fixture_id", f.ID, "state", f.State)
		return f.Transition(match.StatePoolLocked, s.now().UTC())
	}
	return nil
}

func normalizePoolEntry(input PoolEntryInput) (string, match.ResponseStatus, error) {
	playerID := strings.TrimSpace(input.PlayerID)
	if playerID == "" {
		return "", "", fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	status, err := match.ParseResponseStatus(input.Status)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(input.Notes) > 500 {
		return "", "", fmt.Errorf("%w: notes must be at most 500 characters", ErrInvalidInput)
	}
	return playerID, status, nil
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
