package memory

import (
	"fmt"

	"github.com/riskibarqy/matchday/internal/domain/player"
)

// DemoTenantID owns the seeded roster used by the memory backend.
const DemoTenantID = "demo-club"

var demoNames = []string{
	"Ade", "Bima", "Citra", "Dimas", "Eko", "Fajar", "Gilang", "Hendra",
	"Indra", "Joko", "Kevin", "Lutfi", "Made", "Nanda", "Oki", "Putra",
	"Rizky", "Sandi", "Teguh", "Umar", "Vino", "Wahyu",
}

// SeedPlayers builds a deterministic 22 player roster with spread attributes.
// Every fifth player has no match history yet.
func SeedPlayers(tenantID string) []player.Player {
	out := make([]player.Player, 0, len(demoNames))
	for i, name := range demoNames {
		base := 1.5 + float64(i%7)*0.5
		p := player.Player{
			ID:       fmt.Sprintf("pl-%02d", i+1),
			TenantID: tenantID,
			Name:     name,
			IsRinger: i%11 == 10,
			Attributes: player.Attributes{
				GoalThreat:  clampAttr(base + float64(i%3) - 1),
				Defending:   clampAttr(base - float64(i%3) + 1),
				StaminaPace: clampAttr(base + float64(i%2)),
				Control:     clampAttr(base),
				Teamwork:    clampAttr(base + 0.5),
				Resilience:  clampAttr(base - 0.5),
			},
		}
		if i%5 != 4 {
			p.Performance = &player.Performance{
				PowerRating: 3 + float64((i*7)%9),
				GoalThreat:  0.05 * float64((i*3)%11),
			}
		}
		out = append(out, p)
	}
	return out
}

func clampAttr(v float64) float64 {
	switch {
	case v < 1:
		return 1
	case v > 5:
		return 5
	default:
		return v
	}
}
