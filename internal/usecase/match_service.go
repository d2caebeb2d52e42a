package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/balancing"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/notification"
	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/teamtemplate"
	"github.com/riskibarqy/matchday/internal/platform/eventbus"
	idgen "github.com/riskibarqy/matchday/internal/platform/id"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultTeamALabel       = "Team A"
	defaultTeamBLabel       = "Team B"
	defaultProviderParallel = 8
	defaultListLimit        = 50
	maxListLimit            = 200
)

// BackgroundRunner schedules fire-and-forget work detached from the request.
type BackgroundRunner interface {
	Go(ctx context.Context, name string, fn func(context.Context) error)
}

type MatchServiceConfig struct {
	PoolPolicy    match.PoolPolicy
	DefaultMethod balancing.Method
	// ProviderConcurrency bounds parallel attribute lookups while balancing.
	ProviderConcurrency int
}

type MatchServiceDeps struct {
	Store    match.Store
	Players  player.AttributeProvider
	Engine   *balancing.Engine
	Catalog  *teamtemplate.Catalog
	Notifier notification.Sink
	Runner   BackgroundRunner
	Events   *eventbus.Bus
	IDGen    idgen.Generator
	Logger   *logging.Logger
}

// MatchService assembles fixtures: pool management, balancing, manual slot
// edits and the fixture lifecycle. Every mutation runs under the fixture lock
// and is guarded by the caller's expected version.
type MatchService struct {
	store    match.Store
	players  player.AttributeProvider
	engine   *balancing.Engine
	catalog  *teamtemplate.Catalog
	notifier notification.Sink
	runner   BackgroundRunner
	events   *eventbus.Bus
	idGen    idgen.Generator
	cfg      MatchServiceConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewMatchService(deps MatchServiceDeps, cfg MatchServiceConfig) *MatchService {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if deps.Engine == nil {
		deps.Engine = balancing.NewEngine(balancing.DefaultConfig())
	}
	if deps.Catalog == nil {
		deps.Catalog = teamtemplate.DefaultCatalog()
	}
	if deps.Runner == nil {
		deps.Runner = inlineRunner{logger: logger}
	}
	if deps.IDGen == nil {
		deps.IDGen = idgen.NewUUIDGenerator()
	}
	if cfg.DefaultMethod == "" {
		cfg.DefaultMethod = balancing.MethodPerformance
	}
	if cfg.ProviderConcurrency <= 0 {
		cfg.ProviderConcurrency = defaultProviderParallel
	}

	return &MatchService{
		store:    deps.Store,
		players:  deps.Players,
		engine:   deps.Engine,
		catalog:  deps.Catalog,
		notifier: deps.Notifier,
		runner:   deps.Runner,
		events:   deps.Events,
		idGen:    deps.IDGen,
		cfg:      cfg,
		logger:   logger.Named("match"),
		now:      time.Now,
	}
}

// FixtureRef identifies a fixture inside a tenant.
type FixtureRef struct {
	TenantID  string
	FixtureID string
}

func (r FixtureRef) normalize() (FixtureRef, error) {
	r.TenantID = strings.TrimSpace(r.TenantID)
	r.FixtureID = strings.TrimSpace(r.FixtureID)
	if r.TenantID == "" {
		return r, fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	if r.FixtureID == "" {
		return r, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}
	return r, nil
}

// FixtureCommand is the common envelope of every mutating call.
type FixtureCommand struct {
	FixtureRef
	ActorID         string
	ExpectedVersion int64
}

func (c FixtureCommand) normalize() (FixtureCommand, error) {
	ref, err := c.FixtureRef.normalize()
	if err != nil {
		return c, err
	}
	c.FixtureRef = ref
	c.ActorID = strings.TrimSpace(c.ActorID)
	if c.ExpectedVersion < 1 {
		return c, fmt.Errorf("%w: expected version is required", ErrInvalidInput)
	}
	return c, nil
}

type CreateFixtureInput struct {
	TenantID    string
	ActorID     string
	ScheduledAt time.Time
	TeamSize    int
	TeamALabel  string
	TeamBLabel  string
}

// FixtureView is a fixture with its pool and, when visible to the caller, its slots.
type FixtureView struct {
	Fixture      match.Fixture
	Pool         []match.PoolEntry
	Slots        []match.SlotAssignment
	TeamsVisible bool
}

func (s *MatchService) CreateFixture(ctx context.Context, input CreateFixtureInput) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.CreateFixture")
	defer span.End()

	input.TenantID = strings.TrimSpace(input.TenantID)
	input.TeamALabel = strings.TrimSpace(input.TeamALabel)
	input.TeamBLabel = strings.TrimSpace(input.TeamBLabel)
	if input.TenantID == "" {
		return match.Fixture{}, fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}
	if input.ScheduledAt.IsZero() {
		return match.Fixture{}, fmt.Errorf("%w: scheduled_at is required", ErrInvalidInput)
	}
	if !s.catalog.Supports(input.TeamSize) {
		return match.Fixture{}, fmt.Errorf("%w: no team template for %d a side", ErrInvalidInput, input.TeamSize)
	}
	if input.TeamALabel == "" {
		input.TeamALabel = defaultTeamALabel
	}
	if input.TeamBLabel == "" {
		input.TeamBLabel = defaultTeamBLabel
	}

	fixtureID, err := s.idGen.NewID()
	if err != nil {
		return match.Fixture{}, fmt.Errorf("generate fixture id: %w", err)
	}

	now := s.now().UTC()
	f := match.Fixture{
		ID:          fixtureID,
		TenantID:    input.TenantID,
		ScheduledAt: input.ScheduledAt.UTC(),
		TeamSize:    input.TeamSize,
		TeamALabel:  input.TeamALabel,
		TeamBLabel:  input.TeamBLabel,
		State:       match.StateDraft,
		Version:     1,
		CreatedBy:   strings.TrimSpace(input.ActorID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.Validate(); err != nil {
		return match.Fixture{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.store.CreateFixture(ctx, f); err != nil {
		return match.Fixture{}, fmt.Errorf("create fixture: %w", translateError(err))
	}

	s.logger.InfoContext(ctx, "fixture created", "tenant_id", f.TenantID, "fixture_id", f.ID, "team_size", f.TeamSize)
	s.publishChange(ctx, f, "created")
	return f, nil
}

// GetFixture returns the fixture, its pool and its slots. Slots are withheld
// from callers without includeUnpublished until the teams are published.
func (s *MatchService) GetFixture(ctx context.Context, ref FixtureRef, includeUnpublished bool) (FixtureView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.GetFixture")
	defer span.End()

	ref, err := ref.normalize()
	if err != nil {
		return FixtureView{}, err
	}

	f, err := s.getFixture(ctx, ref)
	if err != nil {
		return FixtureView{}, err
	}
	pool, err := s.store.ListPoolEntries(ctx, ref.TenantID, ref.FixtureID)
	if err != nil {
		return FixtureView{}, fmt.Errorf("list pool entries: %w", translateError(err))
	}

	view := FixtureView{Fixture: f, Pool: pool}
	view.TeamsVisible = includeUnpublished || f.State == match.StateTeamsPublished || f.State == match.StateCompleted
	if !view.TeamsVisible {
		return view, nil
	}

	slots, err := s.store.ListSlots(ctx, ref.TenantID, ref.FixtureID)
	if err != nil {
		return FixtureView{}, fmt.Errorf("list slots: %w", translateError(err))
	}
	view.Slots = slots
	return view, nil
}

type ListFixturesInput struct {
	TenantID string
	State    string
	From     *time.Time
	To       *time.Time
	Limit    int
}

func (s *MatchService) ListFixtures(ctx context.Context, input ListFixturesInput) ([]match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListFixtures")
	defer span.End()

	tenantID := strings.TrimSpace(input.TenantID)
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", ErrInvalidInput)
	}

	filter := match.FixtureFilter{From: input.From, To: input.To, Limit: input.Limit}
	if strings.TrimSpace(input.State) != "" {
		state, err := match.ParseState(input.State)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.State = state
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: to must not be before from", ErrInvalidInput)
	}
	filter.Limit = clampLimit(filter.Limit)

	fixtures, err := s.store.ListFixtures(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", translateError(err))
	}
	return fixtures, nil
}

func (s *MatchService) ListBalanceRuns(ctx context.Context, ref FixtureRef, limit int) ([]match.BalanceRun, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListBalanceRuns")
	defer span.End()

	ref, err := ref.normalize()
	if err != nil {
		return nil, err
	}
	if _, err := s.getFixture(ctx, ref); err != nil {
		return nil, err
	}

	runs, err := s.store.ListBalanceRuns(ctx, ref.TenantID, ref.FixtureID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list balance runs: %w", translateError(err))
	}
	return runs, nil
}

func (s *MatchService) ListTeamTemplates() []teamtemplate.Template {
	return s.catalog.List()
}

// LockPool moves a draft fixture to PoolLocked once the confirmed pool fits the policy.
func (s *MatchService) LockPool(ctx context.Context, cmd FixtureCommand) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.LockPool")
	defer span.End()

	return s.mutate(ctx, cmd, "pool_locked", func(ctx context.Context, tx match.Tx, f *match.Fixture) error {
		if f.State != match.StateDraft {
			return fmt.Errorf("%w: pool can only be locked from %s, fixture is %s", ErrInvalidState, match.StateDraft, f.State)
		}
		entries, err := tx.ListPoolEntries(ctx)
		if err != nil {
			return fmt.Errorf("list pool entries: %w", err)
		}
		if err := s.cfg.PoolPolicy.Check(f.TeamSize, len(match.ConfirmedPlayerIDs(entries))); err != nil {
			return err
		}
		return f.Transition(match.StatePoolLocked, s.now().UTC())
	})
}

// UnlockPool reopens a locked pool.
func (s *MatchService) UnlockPool(ctx context.Context, cmd FixtureCommand) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.UnlockPool")
	defer span.End()

	return s.mutate(ctx, cmd, "pool_unlocked", func(ctx context.Context, tx match.Tx, f *match.Fixture) error {
		if f.State != match.StatePoolLocked {
			return fmt.Errorf("%w: only a locked pool can be reopened, fixture is %s", ErrInvalidState, f.State)
		}
		if err := tx.ClearSlots(ctx); err != nil {
			return fmt.Errorf("clear slots: %w", err)
		}
		return f.Transition(match.StateDraft, s.now().UTC())
	})
}

// ResetTeams discards a balance and demotes the fixture to PoolLocked.
func (s *MatchService) ResetTeams(ctx context.Context, cmd FixtureCommand) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ResetTeams")
	defer span.End()

	return s.mutate(ctx, cmd, "teams_reset", func(ctx context.Context, tx match.Tx, f *match.Fixture) error {
		if !f.State.HasTeams() {
			return fmt.Errorf("%w: fixture %s has no teams to reset", ErrInvalidState, f.State)
		}
		if err := tx.ClearSlots(ctx); err != nil {
			return fmt.Errorf("clear slots: %w", err)
		}
		return f.Transition(match.StatePoolLocked, s.now().UTC())
	})
}

func (s *MatchService) CancelFixture(ctx context.Context, cmd FixtureCommand) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.CancelFixture")
	defer span.End()

	return s.mutate(ctx, cmd, "cancelled", func(_ context.Context, _ match.Tx, f *match.Fixture) error {
		return f.Transition(match.StateCancelled, s.now().UTC())
	})
}

func (s *MatchService) CompleteFixture(ctx context.Context, cmd FixtureCommand) (match.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.CompleteFixture")
	defer span.End()

	return s.mutate(ctx, cmd, "completed", func(_ context.Context, _ match.Tx, f *match.Fixture) error {
		return f.Transition(match.StateCompleted, s.now().UTC())
	})
}

// mutate runs fn under the fixture lock after checking the expected version,
// then writes the fixture back with the version bumped exactly once.
func (s *MatchService) mutate(
	ctx context.Context,
	cmd FixtureCommand,
	kind string,
	fn func(ctx context.Context, tx match.Tx, f *match.Fixture) error,
) (match.Fixture, error) {
	cmd, err := cmd.normalize()
	if err != nil {
		return match.Fixture{}, err
	}

	var updated match.Fixture
	err = s.store.WithinFixtureLock(ctx, cmd.TenantID, cmd.FixtureID, func(ctx context.Context, tx match.Tx) error {
		f := tx.Fixture()
		if f.Version != cmd.ExpectedVersion {
			return fmt.Errorf("%w: fixture is at version %d, caller expected %d", match.ErrVersionConflict, f.Version, cmd.ExpectedVersion)
		}
		if err := fn(ctx, tx, &f); err != nil {
			return err
		}

		f.Version = cmd.ExpectedVersion + 1
		f.UpdatedAt = s.now().UTC()
		if err := tx.UpdateFixture(ctx, f, cmd.ExpectedVersion); err != nil {
			return err
		}
		updated = f
		return nil
	})
	if err != nil {
		s.logger.DebugContext(ctx, "fixture mutation rejected",
			"tenant_id", cmd.TenantID,
			"fixture_id", cmd.FixtureID,
			"kind", kind,
			"error", err,
		)
		err = translateError(err)
		recordSpanError(ctx, err)
		return match.Fixture{}, err
	}

	s.logger.InfoContext(ctx, "fixture mutated",
		"tenant_id", updated.TenantID,
		"fixture_id", updated.ID,
		"kind", kind,
		"state", updated.State,
		"version", updated.Version,
		"actor_id", cmd.ActorID,
	)
	s.publishChange(ctx, updated, kind)
	return updated, nil
}

func (s *MatchService) getFixture(ctx context.Context, ref FixtureRef) (match.Fixture, error) {
	f, exists, err := s.store.GetFixture(ctx, ref.TenantID, ref.FixtureID)
	if err != nil {
		return match.Fixture{}, fmt.Errorf("get fixture: %w", translateError(err))
	}
	if !exists {
		return match.Fixture{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, ref.FixtureID)
	}
	return f, nil
}

func (s *MatchService) publishChange(ctx context.Context, f match.Fixture, kind string) {
	if s.events == nil {
		return
	}
	event := eventbus.Event{
		Name: FixtureChangedEvent,
		Key:  FixtureEventKey(f.TenantID, f.ID),
		Payload: FixtureChange{
			FixtureID: f.ID,
			Version:   f.Version,
			State:     f.State,
			Kind:      kind,
		},
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "fixture change handlers failed", "fixture_id", f.ID, "error", err)
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

type inlineRunner struct {
	logger *logging.Logger
}

func (r inlineRunner) Go(ctx context.Context, name string, fn func(context.Context) error) {
	if err := fn(context.WithoutCancel(ctx)); err != nil {
		r.logger.WarnContext(ctx, "task failed", "task", name, "error", err)
	}
}

func fixtureAttrs(f match.Fixture) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("fixture.id", f.ID),
		attribute.String("fixture.state", string(f.State)),
		attribute.Int64("fixture.version", f.Version),
	}
}
