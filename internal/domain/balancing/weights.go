package balancing

import (
	"fmt"
	"math"

	"github.com/riskibarqy/matchday/internal/domain/player"
)

const weightSumTolerance = 1e-6

// Group is a position bucket scored by ability balancing. GroupTeam spans every player.
type Group string

const (
	GroupDefense  Group = "defense"
	GroupMidfield Group = "midfield"
	GroupAttack   Group = "attack"
	GroupTeam     Group = "team"
)

var allGroups = []Group{GroupDefense, GroupMidfield, GroupAttack, GroupTeam}

// AttributeWeights scales the gap of each attribute within one group.
type AttributeWeights struct {
	GoalThreat  float64 `json:"goal_threat"`
	Defending   float64 `json:"defending"`
	StaminaPace float64 `json:"stamina_pace"`
	Control     float64 `json:"control"`
	Teamwork    float64 `json:"teamwork"`
	Resilience  float64 `json:"resilience"`
}

func (w AttributeWeights) Get(attr player.Attribute) float64 {
	return player.Attributes(w).Get(attr)
}

// AbilityWeights holds one attribute weight row per position group.
type AbilityWeights struct {
	Defense  AttributeWeights `json:"defense"`
	Midfield AttributeWeights `json:"midfield"`
	Attack   AttributeWeights `json:"attack"`
	Team     AttributeWeights `json:"team"`
}

func (w AbilityWeights) For(group Group) AttributeWeights {
	switch group {
	case GroupDefense:
		return w.Defense
	case GroupMidfield:
		return w.Midfield
	case GroupAttack:
		return w.Attack
	default:
		return w.Team
	}
}

func DefaultAbilityWeights() AbilityWeights {
	return AbilityWeights{
		Defense:  AttributeWeights{GoalThreat: 0.2, Defending: 1.0, StaminaPace: 0.6, Control: 0.4, Teamwork: 0.5, Resilience: 0.6},
		Midfield: AttributeWeights{GoalThreat: 0.4, Defending: 0.4, StaminaPace: 0.8, Control: 1.0, Teamwork: 0.8, Resilience: 0.4},
		Attack:   AttributeWeights{GoalThreat: 1.0, Defending: 0.1, StaminaPace: 0.6, Control: 0.7, Teamwork: 0.4, Resilience: 0.3},
		Team:     AttributeWeights{GoalThreat: 0.5, Defending: 0.5, StaminaPace: 0.5, Control: 0.5, Teamwork: 0.5, Resilience: 0.5},
	}
}

func (w AbilityWeights) Validate() error {
	total := 0.0
	for _, group := range allGroups {
		row := w.For(group)
		for _, attr := range player.AllAttributes {
			v := row.Get(attr)
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%w: %s.%s must be a finite non-negative number", ErrInvalidWeights, group, attr)
			}
			total += v
		}
	}
	if total == 0 {
		return fmt.Errorf("%w: ability weights are all zero", ErrInvalidWeights)
	}
	return nil
}

// PerformanceWeights blends the two normalized gaps. They must sum to 1.
type PerformanceWeights struct {
	PowerRating float64 `json:"power_rating"`
	GoalThreat  float64 `json:"goal_threat"`
}

func (w PerformanceWeights) Validate() error {
	for name, v := range map[string]float64{"power_rating": w.PowerRating, "goal_threat": w.GoalThreat} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a finite non-negative number", ErrInvalidWeights, name)
		}
	}
	if sum := w.PowerRating + w.GoalThreat; math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("%w: performance weights must sum to 1.0, got %.6f", ErrInvalidWeights, sum)
	}
	return nil
}

// Weights is the externally supplied configuration for one balancing call.
// Nil members fall back to defaults.
type Weights struct {
	Ability     *AbilityWeights
	Performance *PerformanceWeights
}

func (w Weights) Validate() error {
	if w.Ability != nil {
		if err := w.Ability.Validate(); err != nil {
			return err
		}
	}
	if w.Performance != nil {
		if err := w.Performance.Validate(); err != nil {
			return err
		}
	}
	return nil
}
