package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/riskibarqy/matchday/internal/domain/match"
)

type SwapPlayersInput struct {
	FixtureCommand
	PlayerA string
	PlayerB string
}

// SwapPlayers exchanges the (team, slot) pairs of two slotted players.
func (s *MatchService) SwapPlayers(ctx context.Context, input SwapPlayersInput) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SwapPlayers")
	defer span.End()

	a, b := strings.TrimSpace(input.PlayerA), strings.TrimSpace(input.PlayerB)
	if a == "" || b == "" {
		return match.Fixture{}, fmt.Errorf("%w: both players are required", ErrInvalidInput)
	}
	if a == b {
		return match.Fixture{}, fmt.Errorf("%w: cannot swap a player with themselves", ErrInvalidInput)
	}

	return s.mutate(ctx, input.FixtureCommand, "players_swapped", func(ctx context.Context, tx match.Tx, f *match.Fixture) error {
		if !f.State.AllowsSlotEdits() {
			return fmt.Errorf("%w: slots are not editable while fixture is %s", ErrInvalidState, f.State)
		}
		entries, err := tx.ListPoolEntries(ctx)
		if err != nil {
			return fmt.Errorf("list pool entries: %w", err)
		}
		confirmed := match.ConfirmedPlayerIDs(entries)
		for _, id := range []string{a, b} {
			if !slices.Contains(confirmed, id) {
				return fmt.Errorf("%w: player %s is not in this fixture", ErrNotFound, id)
			}
		}
		return tx.SwapSlots(ctx, a, b)
	})
}

type AssignSlotInput struct {
	FixtureCommand
	PlayerID   string
	Team       string
	SlotNumber int
}

// AssignSlot places a confirmed pool player into a slot. The slot's previous
// occupant becomes unassigned and a player slotted elsewhere moves.
func (s *MatchService) AssignSlot(ctx context.Context, input AssignSlotInput) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.AssignSlot")
	defer span.End()

	playerID := strings.TrimSpace(input.PlayerID)
	if playerID == "" {
		return match.Fixture{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	team, err := match.ParseTeam(input.Team)
	if err != nil {
		return match.Fixture{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.mutate(ctx, input.FixtureCommand, "slot_assigned", func(ctx context.Context, tx match.Tx, f *match.Fixture) error {
		if !f.State.AllowsSlotEdits() {
			return fmt.Errorf("%w: slots are not editable while fixture is %s", ErrInvalidState, f.State)
		}
		if err := match.ValidateSlot(*f, team, input.SlotNumber); err != nil {
			return err
		}
		entries, err := tx.ListPoolEntries(ctx)
		if err != nil {
			return fmt.Errorf("list pool entries: %w", err)
		}
		if !slices.Contains(match.ConfirmedPlayerIDs(entries), playerID) {
			return fmt.Errorf("%w: player %s is not confirmed for this fixture", ErrNotFound, playerID)
		}
		return tx.AssignSlot(ctx, playerID, team, input.SlotNumber)
	})
}
