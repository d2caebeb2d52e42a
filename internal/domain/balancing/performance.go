package balancing

import (
	"math"
)

type performanceStrategy struct{}

func (performanceStrategy) method() Method { return MethodPerformance }

func (performanceStrategy) objective(req Request, sizes Sizes, cfg Config) (objective, error) {
	n := len(req.Players)
	obj := &performanceObjective{
		sizes:      sizes,
		power:      make([]float64, n),
		goal:       make([]float64, n),
		weights:    req.Weights.Performance,
		normalizer: cfg.Normalizer,
	}

	var knownPower, knownGoal []float64
	for _, p := range req.Players {
		if p.Performance == nil {
			continue
		}
		knownPower = append(knownPower, p.Performance.PowerRating)
		knownGoal = append(knownGoal, p.Performance.GoalThreat)
	}
	if len(knownPower) == 0 {
		return nil, ErrNoPerformanceData
	}

	fillPower, fillGoal := mean(knownPower), mean(knownGoal)
	for i, p := range req.Players {
		if p.Performance == nil {
			obj.power[i], obj.goal[i] = fillPower, fillGoal
			obj.imputed++
			continue
		}
		obj.power[i], obj.goal[i] = p.Performance.PowerRating, p.Performance.GoalThreat
	}

	refPower, refGoal := knownPower, knownGoal
	if len(req.Reference) > 0 {
		refPower = make([]float64, 0, len(req.Reference))
		refGoal = make([]float64, 0, len(req.Reference))
		for _, perf := range req.Reference {
			refPower = append(refPower, perf.PowerRating)
			refGoal = append(refGoal, perf.GoalThreat)
		}
	}
	obj.scales = MetricScales{
		PowerRating: cfg.Normalizer.Scale(refPower),
		GoalThreat:  cfg.Normalizer.Scale(refGoal),
	}

	return obj, nil
}

type performanceObjective struct {
	sizes      Sizes
	power      []float64
	goal       []float64
	scales     MetricScales
	weights    *PerformanceWeights
	normalizer Normalizer
	imputed    int
}

func (o *performanceObjective) gaps(order []int) (float64, float64) {
	var powerA, powerB, goalA, goalB float64
	for pos, idx := range order {
		if pos < o.sizes.A {
			powerA += o.power[idx]
			goalA += o.goal[idx]
			continue
		}
		powerB += o.power[idx]
		goalB += o.goal[idx]
	}
	a, b := float64(o.sizes.A), float64(o.sizes.B)
	return math.Abs(powerA/a - powerB/b), math.Abs(goalA/a - goalB/b)
}

func (o *performanceObjective) score(order []int) float64 {
	powerGap, goalGap := o.gaps(order)
	return PerformanceLoss(powerGap, goalGap, o.scales, o.weights)
}

func (o *performanceObjective) describe(order []int, diag *Diagnostics) {
	powerGap, goalGap := o.gaps(order)
	normPower, normGoal := normalizedGaps(powerGap, goalGap, o.scales)
	diag.Performance = &PerformanceDiagnostics{
		Normalizer:               o.normalizer,
		Scales:                   o.scales,
		PowerRatingGap:           powerGap,
		GoalThreatGap:            goalGap,
		NormalizedPowerRatingGap: normPower,
		NormalizedGoalThreatGap:  normGoal,
		ImputedPlayers:           o.imputed,
	}
}
