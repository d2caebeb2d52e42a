package balancing

import (
	"math"

	"github.com/riskibarqy/matchday/internal/domain/player"
)

// Result is one proposed split. TeamA and TeamB are ordered by slot number.
type Result struct {
	RequestedMethod Method
	Method          Method
	TeamA           []player.Player
	TeamB           []player.Player
	Score           float64
	Quality         float64
	Iterations      int
	Seed            uint64
	Degraded        bool
	DegradedReason  string
	Diagnostics     Diagnostics
}

// Diagnostics explains a split. AttributeGaps is always populated; the
// method specific sections only for the method that produced the split.
type Diagnostics struct {
	AttributeGaps map[player.Attribute]float64 `json:"attribute_gaps"`
	Ability       *AbilityDiagnostics          `json:"ability,omitempty"`
	Performance   *PerformanceDiagnostics      `json:"performance,omitempty"`
}

type AbilityDiagnostics struct {
	GroupScores map[Group]float64 `json:"group_scores"`
}

type PerformanceDiagnostics struct {
	Normalizer               Normalizer   `json:"normalizer"`
	Scales                   MetricScales `json:"scales"`
	PowerRatingGap           float64      `json:"power_rating_gap"`
	GoalThreatGap            float64      `json:"goal_threat_gap"`
	NormalizedPowerRatingGap float64      `json:"normalized_power_rating_gap"`
	NormalizedGoalThreatGap  float64      `json:"normalized_goal_threat_gap"`
	ImputedPlayers           int          `json:"imputed_players"`
}

// QualityOf maps a non-negative score onto (0, 1]; a perfect split is 1.
func QualityOf(score float64) float64 {
	if !isFinite(score) || score < 0 {
		return 0
	}
	return 1 / (1 + score)
}

// attributeGaps compares whole-team attribute means.
func attributeGaps(teamA, teamB []player.Player) map[player.Attribute]float64 {
	out := make(map[player.Attribute]float64, len(player.AllAttributes))
	for _, attr := range player.AllAttributes {
		out[attr] = math.Abs(teamMean(teamA, attr) - teamMean(teamB, attr))
	}
	return out
}

func teamMean(team []player.Player, attr player.Attribute) float64 {
	if len(team) == 0 {
		return defaultAttributeMean
	}
	sum := 0.0
	for _, p := range team {
		sum += p.Attributes.Get(attr)
	}
	return sum / float64(len(team))
}
