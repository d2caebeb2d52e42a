package usecase

import "github.com/riskibarqy/matchday/internal/domain/match"

const FixtureChangedEvent = "fixture.changed"

// FixtureChange is published after every committed fixture mutation so open
// views can tell they are stale. It carries no pool or slot data because
// members receive it too.
type FixtureChange struct {
	FixtureID string      `json:"fixture_id"`
	Version   int64       `json:"version"`
	State     match.State `json:"state"`
	Kind      string      `json:"kind"`
}

// FixtureEventKey scopes change events to one tenant's fixture.
func FixtureEventKey(tenantID, fixtureID string) string {
	return tenantID + ":" + fixtureID
}
