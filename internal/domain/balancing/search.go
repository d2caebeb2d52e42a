package balancing

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/panjf2000/ants/v2"
)

const (
	ctxCheckEvery      = 64
	temperatureRatio   = 0.05
	finalTemperature   = 1e-3
	fallbackSeedStream = 1 << 63
)

// objective scores a permutation of pool indices. The first Sizes.A entries
// form team A and position within a team is the slot number minus one.
// Implementations must be safe for concurrent use.
type objective interface {
	score(order []int) float64
	describe(order []int, diag *Diagnostics)
}

type searchResult struct {
	order      []int
	score      float64
	iterations int
}

// search runs independent annealed swap climbs in parallel and keeps the
// lowest score. Ties go to the lowest restart index so a fixed seed always
// yields the same split.
func (e *Engine) search(ctx context.Context, n int, obj objective, seed uint64) (searchResult, error) {
	restarts := max(1, e.cfg.Restarts)
	workers := min(max(1, e.cfg.Workers), restarts)

	pool, err := ants.NewPool(workers)
	if err != nil {
		return searchResult{}, fmt.Errorf("create search pool: %w", err)
	}
	defer pool.Release()

	results := make([]searchResult, restarts)
	var wg sync.WaitGroup
	for r := range restarts {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[r] = e.climb(ctx, n, obj, seed, uint64(r))
		})
		if submitErr != nil {
			wg.Done()
			results[r] = searchResult{score: math.Inf(1)}
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return searchResult{}, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	best := -1
	total := 0
	for i, res := range results {
		total += res.iterations
		if res.order == nil || !isFinite(res.score) {
			continue
		}
		if best < 0 || res.score < results[best].score {
			best = i
		}
	}
	if best < 0 {
		return searchResult{}, ErrSearchFailed
	}

	out := results[best]
	out.iterations = total
	return out, nil
}

func (e *Engine) climb(ctx context.Context, n int, obj objective, seed, stream uint64) searchResult {
	rng := rand.New(rand.NewPCG(seed, stream))
	order := shuffled(rng, n)
	current := sanitizeScore(obj.score(order))
	best := append([]int(nil), order...)
	bestScore := current

	iterations := max(1, e.cfg.Iterations)
	temp := 0.0
	if isFinite(current) && current > 0 {
		temp = current * temperatureRatio
	}
	cooling := math.Pow(finalTemperature, 1/float64(iterations))

	done := 0
	for ; done < iterations; done++ {
		if done%ctxCheckEvery == 0 && ctx.Err() != nil {
			break
		}
		if bestScore == 0 {
			break
		}

		i := rng.IntN(n)
		j := rng.IntN(n - 1)
		if j >= i {
			j++
		}
		order[i], order[j] = order[j], order[i]

		next := sanitizeScore(obj.score(order))
		if next <= current || (temp > 0 && rng.Float64() < math.Exp((current-next)/temp)) {
			current = next
			if current < bestScore {
				bestScore = current
				copy(best, order)
			}
		} else {
			order[i], order[j] = order[j], order[i]
		}
		temp *= cooling
	}

	return searchResult{order: best, score: bestScore, iterations: done}
}

// shuffled returns a uniformly random permutation of 0..n-1 (Fisher-Yates).
func shuffled(rng *rand.Rand, n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func sanitizeScore(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
