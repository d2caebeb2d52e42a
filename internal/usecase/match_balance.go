package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/balancing"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/notification"
	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/teamtemplate"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

type BalanceInput struct {
	FixtureCommand
	Method  string
	Weights balancing.Weights
	// Reference optionally carries a league-wide performance distribution.
	Reference []player.Performance
	Seed      uint64
}

// BalanceOutcome is the committed split with its quality report.
type BalanceOutcome struct {
	Fixture match.Fixture
	Result  balancing.Result
	Run     match.BalanceRun
	Slots   []match.SlotAssignment
}

// LockPoolAndBalance locks the pool when needed, computes a split and writes
// it as the fixture's slots. Attribute reads and the search run without the
// fixture lock; the write phase re-checks the version and the confirmed pool.
func (s *MatchService) LockPoolAndBalance(ctx context.Context, input BalanceInput) (BalanceOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.LockPoolAndBalance")
	defer span.End()

	cmd, err := input.FixtureCommand.normalize()
	if err != nil {
		return BalanceOutcome{}, err
	}
	method := s.cfg.DefaultMethod
	if strings.TrimSpace(input.Method) != "" {
		method, err = balancing.ParseMethod(input.Method)
		if err != nil {
			return BalanceOutcome{}, translateError(err)
		}
	}
	if err := input.Weights.Validate(); err != nil {
		return BalanceOutcome{}, translateError(err)
	}

	f, err := s.getFixture(ctx, cmd.FixtureRef)
	if err != nil {
		return BalanceOutcome{}, err
	}
	span.SetAttributes(fixtureAttrs(f)...)
	span.SetAttributes(attribute.String("balance.method", string(method)))
	if f.Version != cmd.ExpectedVersion {
		return BalanceOutcome{}, fmt.Errorf("%w: fixture is at version %d, caller expected %d", ErrConcurrencyConflict, f.Version, cmd.ExpectedVersion)
	}
	if err := checkBalanceable(f.State); err != nil {
		return BalanceOutcome{}, err
	}

	entries, err := s.store.ListPoolEntries(ctx, cmd.TenantID, cmd.FixtureID)
	if err != nil {
		return BalanceOutcome{}, fmt.Errorf("list pool entries: %w", translateError(err))
	}
	confirmed := match.ConfirmedPlayerIDs(entries)
	if err := s.cfg.PoolPolicy.Check(f.TeamSize, len(confirmed)); err != nil {
		return BalanceOutcome{}, translateError(err)
	}
	if err := s.engine.CheckMethod(method, len(confirmed)); err != nil {
		return BalanceOutcome{}, translateError(err)
	}
	tpl, err := s.catalog.Resolve(f.TeamSize)
	if err != nil && method == balancing.MethodAbility {
		return BalanceOutcome{}, translateError(err)
	}

	run := match.BalanceRun{
		TenantID:        cmd.TenantID,
		FixtureID:       cmd.FixtureID,
		RequestedMethod: string(method),
		Method:          string(method),
		PoolSize:        len(confirmed),
		RequestedBy:     cmd.ActorID,
		StartedAt:       s.now().UTC(),
	}
	run.ID, err = s.idGen.NewID()
	if err != nil {
		return BalanceOutcome{}, fmt.Errorf("generate balance run id: %w", err)
	}

	players, err := s.loadPlayers(ctx, cmd.TenantID, confirmed)
	if err != nil {
		return BalanceOutcome{}, s.failRun(ctx, run, err)
	}

	result, err := s.engine.Balance(ctx, balancing.Request{
		Players:   players,
		Template:  tpl,
		Method:    method,
		Weights:   input.Weights,
		Reference: input.Reference,
		Seed:      input.Seed,
	})
	if err != nil {
		return BalanceOutcome{}, s.failRun(ctx, run, translateError(err))
	}
	applyResult(&run, result)

	teamA, teamB := playerIDs(result.TeamA), playerIDs(result.TeamB)
	var slots []match.SlotAssignment
	updated, err := s.mutate(ctx, cmd, "teams_balanced", func(ctx context.Context, tx match.Tx, f *match.Fixture) error {
		if err := checkBalanceable(f.State); err != nil {
			return err
		}
		current, err := tx.ListPoolEntries(ctx)
		if err != nil {
			return fmt.Errorf("list pool entries: %w", err)
		}
		if !sameMembers(confirmed, match.ConfirmedPlayerIDs(current)) {
			return fmt.Errorf("%w: pool changed while balancing", ErrConcurrencyConflict)
		}

		slots = match.BuildAssignments(f.ID, teamA, teamB)
		if err := tx.ReplaceSlots(ctx, slots); err != nil {
			return fmt.Errorf("replace slots: %w", err)
		}

		now := s.now().UTC()
		if f.State == match.StateDraft {
			if err := f.Transition(match.StatePoolLocked, now); err != nil {
				return err
			}
		}
		if err := f.Transition(match.StateTeamsBalanced, now); err != nil {
			return err
		}

		run.FinishedAt = now
		return tx.RecordBalanceRun(ctx, run)
	})
	if err != nil {
		return BalanceOutcome{}, s.failRun(ctx, run, err)
	}

	if result.Degraded {
		s.logger.WarnContext(ctx, "balance degraded to random",
			"fixture_id", updated.ID,
			"requested_method", result.RequestedMethod,
			"reason", result.DegradedReason,
		)
	}
	span.SetAttributes(
		attribute.Float64("balance.score", result.Score),
		attribute.Bool("balance.degraded", result.Degraded),
	)
	return BalanceOutcome{Fixture: updated, Result: result, Run: run, Slots: slots}, nil
}

// SaveTeams publishes the current slots. From PoolLocked the manual
// assignment must cover the confirmed pool exactly.
func (s *MatchService) SaveTeams(ctx context.Context, cmd FixtureCommand) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SaveTeams")
	defer span.End()

	var slots []match.SlotAssignment
	updated, err := s.mutate(ctx, cmd, "teams_published", func(ctx context.Context, tx match.Tx, f *match.Fixture) error {
		if f.State != match.StateTeamsBalanced && f.State != match.StatePoolLocked {
			return fmt.Errorf("%w: teams can be saved from %s or %s, fixture is %s",
				ErrInvalidState, match.StateTeamsBalanced, match.StatePoolLocked, f.State)
		}

		var err error
		slots, err = tx.ListSlots(ctx)
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}
		entries, err := tx.ListPoolEntries(ctx)
		if err != nil {
			return fmt.Errorf("list pool entries: %w", err)
		}
		if err := match.CheckComplete(slots, match.ConfirmedPlayerIDs(entries)); err != nil {
			return err
		}
		return f.Transition(match.StateTeamsPublished, s.now().UTC())
	})
	if err != nil {
		return match.Fixture{}, err
	}

	s.announceTeams(ctx, updated, slots)
	return updated, nil
}

func (s *MatchService) announceTeams(ctx context.Context, f match.Fixture, slots []match.SlotAssignment) {
	if s.notifier == nil {
		return
	}
	teamA := match.TeamPlayers(slots, match.TeamA)
	teamB := match.TeamPlayers(slots, match.TeamB)

	s.runner.Go(ctx, "notify.teams_published", func(ctx context.Context) error {
		namesA := s.playerNames(ctx, f.TenantID, teamA)
		namesB := s.playerNames(ctx, f.TenantID, teamB)
		content := notification.TeamsPublishedContent(f.TeamALabel, f.TeamBLabel, f.ScheduledAt, namesA, namesB)
		if err := s.notifier.PostSystemMessage(ctx, f.TenantID, content); err != nil {
			return fmt.Errorf("post teams published message fixture=%s: %w", f.ID, err)
		}
		return nil
	})
}

// playerNames resolves display names, falling back to the id when the
// provider cannot.
func (s *MatchService) playerNames(ctx context.Context, tenantID string, ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name := id
		if s.players != nil {
			if p, ok, err := s.players.GetByID(ctx, tenantID, id); err == nil && ok && p.Name != "" {
				name = p.Name
			}
		}
		names = append(names, name)
	}
	return names
}

// loadPlayers fetches attribute records concurrently and returns them in the
// order of ids.
func (s *MatchService) loadPlayers(ctx context.Context, tenantID string, ids []string) ([]player.Player, error) {
	if s.players == nil {
		return nil, fmt.Errorf("%w: attribute provider is not configured", ErrDependencyUnavailable)
	}

	p := pool.NewWithResults[player.Player]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(s.cfg.ProviderConcurrency)
	for _, id := range ids {
		p.Go(func(ctx context.Context) (player.Player, error) {
			return s.requirePlayer(ctx, tenantID, id)
		})
	}
	fetched, err := p.Wait()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]player.Player, len(fetched))
	for _, pl := range fetched {
		byID[pl.ID] = pl
	}
	out := make([]player.Player, 0, len(ids))
	for _, id := range ids {
		pl, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: player %s", ErrNotFound, id)
		}
		out = append(out, pl)
	}
	return out, nil
}

func (s *MatchService) requirePlayer(ctx context.Context, tenantID, playerID string) (player.Player, error) {
	if s.players == nil {
		return player.Player{}, fmt.Errorf("%w: attribute provider is not configured", ErrDependencyUnavailable)
	}
	p, exists, err := s.players.GetByID(ctx, tenantID, playerID)
	if err != nil {
		if errors.Is(err, ErrDependencyUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			return player.Player{}, translateError(err)
		}
		return player.Player{}, fmt.Errorf("%w: get player %s: %v", ErrDependencyUnavailable, playerID, err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player=%s", ErrNotFound, playerID)
	}
	if p.IsRetired {
		return player.Player{}, fmt.Errorf("%w: player %s is retired", ErrInvalidInput, playerID)
	}
	return p, nil
}

// failRun records a failed attempt outside the fixture lock and returns err.
func (s *MatchService) failRun(ctx context.Context, run match.BalanceRun, err error) error {
	run.Status = match.RunFailed
	run.Error = err.Error()
	run.FinishedAt = s.now().UTC()

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if recErr := s.store.RecordBalanceRun(recordCtx, run); recErr != nil {
		s.logger.WarnContext(ctx, "record failed balance run", "fixture_id", run.FixtureID, "error", recErr)
	}
	s.logger.WarnContext(ctx, "balance failed",
		"fixture_id", run.FixtureID,
		"method", run.RequestedMethod,
		"pool_size", run.PoolSize,
		"error", err,
	)
	recordSpanError(ctx, err)
	return err
}

func checkBalanceable(state match.State) error {
	switch state {
	case match.StateDraft, match.StatePoolLocked, match.StateTeamsBalanced:
		return nil
	default:
		return fmt.Errorf("%w: cannot balance while fixture is %s", ErrInvalidState, state)
	}
}

func applyResult(run *match.BalanceRun, result balancing.Result) {
	run.Method = string(result.Method)
	run.Score = result.Score
	run.Quality = result.Quality
	run.Iterations = result.Iterations
	run.Seed = result.Seed
	run.Status = match.RunSucceeded
	if result.Degraded {
		run.Status = match.RunDegraded
		run.DegradedReason = result.DegradedReason
	}
}

func playerIDs(players []player.Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.ID)
	}
	return out
}

// TemplateFor exposes the positional layout used for a fixture's team size.
func (s *MatchService) TemplateFor(teamSize int) (teamtemplate.Template, error) {
	tpl, err := s.catalog.Resolve(teamSize)
	if err != nil {
		return teamtemplate.Template{}, translateError(err)
	}
	return tpl, nil
}
