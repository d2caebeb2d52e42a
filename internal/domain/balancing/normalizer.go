package balancing

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const scaleEpsilon = 1e-9

// Normalizer decides how a metric's spread is turned into a divisor so that
// gaps in differently scaled metrics can be summed.
type Normalizer string

const (
	// NormalizerCV divides by the coefficient of variation (std / mean).
	NormalizerCV Normalizer = "cv"
	// NormalizerRange divides by max - min.
	NormalizerRange Normalizer = "range"
	// NormalizerPercentile divides by the P10..P90 spread.
	NormalizerPercentile Normalizer = "percentile"
)

func ParseNormalizer(raw string) (Normalizer, error) {
	switch Normalizer(strings.ToLower(strings.TrimSpace(raw))) {
	case "", NormalizerCV:
		return NormalizerCV, nil
	case NormalizerRange:
		return NormalizerRange, nil
	case NormalizerPercentile:
		return NormalizerPercentile, nil
	default:
		return "", fmt.Errorf("unknown normalizer %q", raw)
	}
}

// Scale returns a strictly positive divisor for values. Degenerate
// distributions (empty, constant, zero mean) fall back so the result is
// always finite.
func (n Normalizer) Scale(values []float64) float64 {
	if len(values) == 0 {
		return 1
	}

	var scale float64
	switch n {
	case NormalizerRange:
		lo, hi := minMax(values)
		scale = hi - lo
	case NormalizerPercentile:
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		scale = percentile(sorted, 0.9) - percentile(sorted, 0.1)
	default:
		m := mean(values)
		sd := stdDev(values, m)
		if math.Abs(m) < scaleEpsilon {
			scale = sd
		} else {
			scale = sd / math.Abs(m)
		}
	}

	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < scaleEpsilon {
		return 1
	}
	return scale
}

// MetricScales are the divisors applied to the power rating and goal threat gaps.
type MetricScales struct {
	PowerRating float64 `json:"power_rating"`
	GoalThreat  float64 `json:"goal_threat"`
}

// PerformanceLoss is the normalized, optionally weighted sum of both gaps.
// Lower is better.
func PerformanceLoss(powerGap, goalGap float64, scales MetricScales, weights *PerformanceWeights) float64 {
	p, g := normalizedGaps(powerGap, goalGap, scales)
	if weights == nil {
		return p + g
	}
	return weights.PowerRating*p + weights.GoalThreat*g
}

func normalizedGaps(powerGap, goalGap float64, scales MetricScales) (float64, float64) {
	ps, gs := scales.PowerRating, scales.GoalThreat
	if ps < scaleEpsilon {
		ps = 1
	}
	if gs < scaleEpsilon {
		gs = 1
	}
	return math.Abs(powerGap) / ps, math.Abs(goalGap) / gs
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation around m.
func stdDev(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	acc := 0.0
	for _, v := range values {
		d := v - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(values)))
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// percentile interpolates linearly over an ascending slice.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}
