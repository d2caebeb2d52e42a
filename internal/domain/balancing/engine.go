package balancing

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/teamtemplate"
)

// Config bounds the search and selects the normalizer. Zero values fall back
// to DefaultConfig.
type Config struct {
	Iterations         int
	Restarts           int
	Workers            int
	MinAbilityTeamSize int
	Normalizer         Normalizer
	// Seed fixes the random source when non-zero.
	Seed uint64
}

func DefaultConfig() Config {
	return Config{
		Iterations:         4000,
		Restarts:           8,
		Workers:            4,
		MinAbilityTeamSize: 5,
		Normalizer:         NormalizerCV,
	}
}

// Request is everything the engine needs for one split.
type Request struct {
	Players  []player.Player
	Template teamtemplate.Template
	Method   Method
	Weights  Weights
	// Reference is an optional league-wide performance distribution used for
	// normalization. The pool itself is used when empty.
	Reference []player.Performance
	Seed      uint64
}

type strategy interface {
	method() Method
	objective(req Request, sizes Sizes, cfg Config) (objective, error)
}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	cfg        Config
	strategies map[Method]strategy
}

func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Iterations <= 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.Restarts <= 0 {
		cfg.Restarts = def.Restarts
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.MinAbilityTeamSize <= 0 {
		cfg.MinAbilityTeamSize = def.MinAbilityTeamSize
	}
	if cfg.Normalizer == "" {
		cfg.Normalizer = def.Normalizer
	}

	e := &Engine{cfg: cfg, strategies: make(map[Method]strategy, 3)}
	for _, s := range []strategy{abilityStrategy{}, performanceStrategy{}, randomStrategy{}} {
		e.strategies[s.method()] = s
	}
	return e
}

func (e *Engine) Config() Config {
	return e.cfg
}

// CheckMethod reports whether method can run for a pool of poolSize players.
func (e *Engine) CheckMethod(method Method, poolSize int) error {
	if _, ok := e.strategies[method]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if method != MethodAbility {
		return nil
	}
	sizes := SplitSizes(poolSize)
	if !sizes.Even() {
		return fmt.Errorf("%w: ability needs even teams, got %d v %d", ErrMethodDisabled, sizes.A, sizes.B)
	}
	if sizes.A < e.cfg.MinAbilityTeamSize {
		return fmt.Errorf("%w: ability needs at least %d a side, got %d", ErrMethodDisabled, e.cfg.MinAbilityTeamSize, sizes.A)
	}
	return nil
}

// Balance partitions req.Players into two teams. When the requested method
// cannot produce a split the engine falls back to a random one and marks the
// result degraded rather than failing the call.
func (e *Engine) Balance(ctx context.Context, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	if err := e.CheckMethod(req.Method, len(req.Players)); err != nil {
		return Result{}, err
	}
	if err := req.Weights.Validate(); err != nil {
		return Result{}, err
	}
	if req.Method == MethodAbility {
		if err := req.Template.Validate(); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	seed := req.Seed
	if seed == 0 {
		seed = e.cfg.Seed
	}
	if seed == 0 {
		seed = rand.Uint64()
	}

	n := len(req.Players)
	sizes := SplitSizes(n)
	out := Result{RequestedMethod: req.Method, Method: req.Method, Seed: seed}

	obj, err := e.strategies[req.Method].objective(req, sizes, e.cfg)
	var found searchResult
	switch {
	case err != nil:
	case obj == nil:
		found = searchResult{order: shuffled(rand.New(rand.NewPCG(seed, 0)), n)}
	default:
		found, err = e.search(ctx, n, obj, seed)
	}
	if err != nil {
		out.Method = MethodRandom
		out.Degraded = true
		out.DegradedReason = err.Error()
		obj = nil
		found = searchResult{order: shuffled(rand.New(rand.NewPCG(seed, fallbackSeedStream)), n)}
	}

	out.TeamA = make([]player.Player, 0, sizes.A)
	out.TeamB = make([]player.Player, 0, sizes.B)
	for pos, idx := range found.order {
		if pos < sizes.A {
			out.TeamA = append(out.TeamA, req.Players[idx])
			continue
		}
		out.TeamB = append(out.TeamB, req.Players[idx])
	}

	out.Diagnostics.AttributeGaps = attributeGaps(out.TeamA, out.TeamB)
	if obj != nil {
		obj.describe(found.order, &out.Diagnostics)
		out.Score = found.score
	} else {
		out.Score = meanGap(out.Diagnostics.AttributeGaps)
	}
	out.Iterations = found.iterations
	out.Quality = QualityOf(out.Score)

	return out, nil
}

func validateRequest(req Request) error {
	if len(req.Players) < 2 {
		return fmt.Errorf("%w: at least 2 players are required, got %d", ErrInvalidRequest, len(req.Players))
	}
	seen := make(map[string]struct{}, len(req.Players))
	for _, p := range req.Players {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: player %s appears twice", ErrInvalidRequest, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

func meanGap(gaps map[player.Attribute]float64) float64 {
	if len(gaps) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range gaps {
		sum += v
	}
	return sum / float64(len(gaps))
}

// IsInputError reports whether err is caused by the request rather than the search.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidWeights) ||
		errors.Is(err, ErrUnknownMethod) ||
		errors.Is(err, ErrMethodDisabled)
}
