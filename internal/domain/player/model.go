package player

import (
	"fmt"
	"math"
)

// Attribute names one field of the positional attribute vector.
type Attribute string

const (
	AttributeGoalThreat  Attribute = "goal_threat"
	AttributeDefending   Attribute = "defending"
	AttributeStaminaPace Attribute = "stamina_pace"
	AttributeControl     Attribute = "control"
	AttributeTeamwork    Attribute = "teamwork"
	AttributeResilience  Attribute = "resilience"
)

// AllAttributes is the fixed iteration order used by scoring and diagnostics.
var AllAttributes = []Attribute{
	AttributeGoalThreat,
	AttributeDefending,
	AttributeStaminaPace,
	AttributeControl,
	AttributeTeamwork,
	AttributeResilience,
}

// Attributes is the positional skill vector supplied by the roster system.
type Attributes struct {
	GoalThreat  float64
	Defending   float64
	StaminaPace float64
	Control     float64
	Teamwork    float64
	Resilience  float64
}

func (a Attributes) Get(attr Attribute) float64 {
	switch attr {
	case AttributeGoalThreat:
		return a.GoalThreat
	case AttributeDefending:
		return a.Defending
	case AttributeStaminaPace:
		return a.StaminaPace
	case AttributeControl:
		return a.Control
	case AttributeTeamwork:
		return a.Teamwork
	case AttributeResilience:
		return a.Resilience
	default:
		return 0
	}
}

// Uniform returns a vector with every attribute set to v.
func Uniform(v float64) Attributes {
	return Attributes{
		GoalThreat:  v,
		Defending:   v,
		StaminaPace: v,
		Control:     v,
		Teamwork:    v,
		Resilience:  v,
	}
}

// Performance is the composite derived from match history.
type Performance struct {
	PowerRating float64
	GoalThreat  float64
}

// Player is a read-only roster entry as seen by the balancing engine.
type Player struct {
	ID          string
	TenantID    string
	Name        string
	IsRinger    bool
	IsRetired   bool
	Attributes  Attributes
	Performance *Performance
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	for _, attr := range AllAttributes {
		v := p.Attributes.Get(attr)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("player %s has invalid %s value %v", p.ID, attr, v)
		}
	}
	if p.Performance != nil {
		if !isFinite(p.Performance.PowerRating) || !isFinite(p.Performance.GoalThreat) {
			return fmt.Errorf("player %s has non-finite performance values", p.ID)
		}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
