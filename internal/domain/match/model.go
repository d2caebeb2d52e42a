package match

import (
	"fmt"
	"strings"
	"time"
)

// Team identifies one side of a fixture.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

func ParseTeam(raw string) (Team, error) {
	switch Team(strings.ToUpper(strings.TrimSpace(raw))) {
	case TeamA:
		return TeamA, nil
	case TeamB:
		return TeamB, nil
	default:
		return "", fmt.Errorf("%w: unknown team %q", ErrInvalidSlot, raw)
	}
}

// ResponseStatus is a player's answer to a fixture invitation.
type ResponseStatus string

const (
	ResponseConfirmed ResponseStatus = "confirmed"
	ResponseDeclined  ResponseStatus = "declined"
	ResponsePending   ResponseStatus = "pending"
)

func ParseResponseStatus(raw string) (ResponseStatus, error) {
	switch ResponseStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ResponseConfirmed:
		return ResponseConfirmed, nil
	case ResponseDeclined:
		return ResponseDeclined, nil
	case ResponsePending:
		return ResponsePending, nil
	default:
		return "", fmt.Errorf("unknown response status %q", raw)
	}
}

// Fixture is one scheduled match being assembled.
type Fixture struct {
	ID               string
	TenantID         string
	ScheduledAt      time.Time
	TeamSize         int
	TeamALabel       string
	TeamBLabel       string
	State            State
	Version          int64
	TeamsLockedAt    *time.Time
	TeamsPublishedAt *time.Time
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (f Fixture) Validate() error {
	switch {
	case strings.TrimSpace(f.ID) == "":
		return fmt.Errorf("fixture id is required")
	case strings.TrimSpace(f.TenantID) == "":
		return fmt.Errorf("tenant id is required")
	case f.TeamSize < 1:
		return fmt.Errorf("team size must be > 0")
	case strings.TrimSpace(f.TeamALabel) == "" || strings.TrimSpace(f.TeamBLabel) == "":
		return fmt.Errorf("team labels are required")
	case strings.EqualFold(f.TeamALabel, f.TeamBLabel):
		return fmt.Errorf("team labels must differ")
	case f.ScheduledAt.IsZero():
		return fmt.Errorf("scheduled_at is required")
	}
	return nil
}

// PoolEntry is one player's membership of a fixture pool.
type PoolEntry struct {
	FixtureID string
	TenantID  string
	PlayerID  string
	Status    ResponseStatus
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConfirmedPlayerIDs returns confirmed player ids in pool order.
func ConfirmedPlayerIDs(entries []PoolEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Status == ResponseConfirmed {
			out = append(out, e.PlayerID)
		}
	}
	return out
}

// SlotAssignment maps (fixture, team, slot) to a player. An empty PlayerID
// marks an unassigned slot.
type SlotAssignment struct {
	FixtureID  string
	Team       Team
	SlotNumber int
	PlayerID   string
}

// RunStatus is the outcome of one balancing attempt.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunDegraded  RunStatus = "degraded"
	RunFailed    RunStatus = "failed"
)

// BalanceRun is the durable record of a lockPoolAndBalance attempt.
type BalanceRun struct {
	ID              string
	TenantID        string
	FixtureID       string
	RequestedMethod string
	Method          string
	Status          RunStatus
	PoolSize        int
	Score           float64
	Quality         float64
	Iterations      int
	Seed            uint64
	DegradedReason  string
	Error           string
	RequestedBy     string
	StartedAt       time.Time
	FinishedAt      time.Time
}

// FixtureFilter narrows ListFixtures. Zero values mean no constraint.
type FixtureFilter struct {
	State State
	From  *time.Time
	To    *time.Time
	Limit int
}
