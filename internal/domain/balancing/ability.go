package balancing

import (
	"math"

	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/teamtemplate"
)

const (
	groupCount = 4
	attrCount  = 6
	groupTeam  = 3

	// defaultAttributeMean stands in for a position group with no players.
	defaultAttributeMean = 3.0
)

type abilityStrategy struct{}

func (abilityStrategy) method() Method { return MethodAbility }

func (abilityStrategy) objective(req Request, sizes Sizes, _ Config) (objective, error) {
	weights := DefaultAbilityWeights()
	if req.Weights.Ability != nil {
		weights = *req.Weights.Ability
	}

	obj := &abilityObjective{
		sizes:   sizes,
		vectors: make([][attrCount]float64, len(req.Players)),
		groupOf: make([]int, sizes.Total()),
	}
	for i, p := range req.Players {
		for a, attr := range player.AllAttributes {
			obj.vectors[i][a] = p.Attributes.Get(attr)
		}
	}
	for pos := range obj.groupOf {
		slot := pos + 1
		if pos >= sizes.A {
			slot = pos - sizes.A + 1
		}
		position, err := teamtemplate.PositionOf(slot, req.Template)
		if err != nil {
			return nil, err
		}
		obj.groupOf[pos] = groupIndex(position)
	}
	for g, group := range allGroups {
		row := weights.For(group)
		for a, attr := range player.AllAttributes {
			obj.weights[g][a] = row.Get(attr)
		}
	}

	return obj, nil
}

func groupIndex(position teamtemplate.Position) int {
	switch position {
	case teamtemplate.PositionDefense:
		return 0
	case teamtemplate.PositionMidfield:
		return 1
	default:
		return 2
	}
}

type abilityObjective struct {
	sizes   Sizes
	vectors [][attrCount]float64
	groupOf []int
	weights [groupCount][attrCount]float64
}

func (o *abilityObjective) score(order []int) float64 {
	groups := o.groupScores(order)
	total := 0.0
	for _, v := range groups {
		total += v
	}
	return total
}

func (o *abilityObjective) groupScores(order []int) [groupCount]float64 {
	var sums [2][groupCount][attrCount]float64
	var counts [2][groupCount]int
	for pos, idx := range order {
		team := 0
		if pos >= o.sizes.A {
			team = 1
		}
		g := o.groupOf[pos]
		counts[team][g]++
		counts[team][groupTeam]++
		for a := range attrCount {
			v := o.vectors[idx][a]
			sums[team][g][a] += v
			sums[team][groupTeam][a] += v
		}
	}

	var out [groupCount]float64
	for g := range groupCount {
		for a := range attrCount {
			gap := groupMean(sums[0][g][a], counts[0][g]) - groupMean(sums[1][g][a], counts[1][g])
			out[g] += math.Abs(gap) * o.weights[g][a]
		}
	}
	return out
}

func (o *abilityObjective) describe(order []int, diag *Diagnostics) {
	groups := o.groupScores(order)
	scores := make(map[Group]float64, groupCount)
	for g, group := range allGroups {
		scores[group] = groups[g]
	}
	diag.Ability = &AbilityDiagnostics{GroupScores: scores}
}

func groupMean(sum float64, count int) float64 {
	if count == 0 {
		return defaultAttributeMean
	}
	return sum / float64(count)
}
