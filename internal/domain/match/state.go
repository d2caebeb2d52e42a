package match

import (
	"fmt"
	"strings"
	"time"
)

// State is a fixture lifecycle state.
type State string

const (
	StateDraft          State = "draft"
	StatePoolLocked     State = "pool_locked"
	StateTeamsBalanced  State = "teams_balanced"
	StateTeamsPublished State = "teams_published"
	StateCompleted      State = "completed"
	StateCancelled      State = "cancelled"
)

var transitions = map[State][]State{
	StateDraft:          {StatePoolLocked, StateCancelled},
	StatePoolLocked:     {StateDraft, StateTeamsBalanced, StateTeamsPublished, StateCancelled},
	StateTeamsBalanced:  {StatePoolLocked, StateTeamsBalanced, StateTeamsPublished, StateCancelled},
	StateTeamsPublished: {StatePoolLocked, StateCompleted, StateCancelled},
}

func ParseState(raw string) (State, error) {
	s := State(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StateDraft, StatePoolLocked, StateTeamsBalanced, StateTeamsPublished, StateCompleted, StateCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("unknown fixture state %q", raw)
	}
}

func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowsPoolChanges is true while the pool may still be edited. Edits after a
// balance demote the fixture back to PoolLocked.
func (s State) AllowsPoolChanges() bool {
	switch s {
	case StateDraft, StatePoolLocked, StateTeamsBalanced, StateTeamsPublished:
		return true
	default:
		return false
	}
}

// AllowsSlotEdits is true once the pool is locked and until the fixture ends.
func (s State) AllowsSlotEdits() bool {
	switch s {
	case StatePoolLocked, StateTeamsBalanced, StateTeamsPublished:
		return true
	default:
		return false
	}
}

// HasTeams reports whether slots may hold a balance that a pool change would invalidate.
func (s State) HasTeams() bool {
	return s == StateTeamsBalanced || s == StateTeamsPublished
}

// Transition moves f to next and maintains the saved timestamps. It does not
// touch the version; callers bump it once per committed mutation.
func (f *Fixture) Transition(next State, now time.Time) error {
	if !f.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.State, next)
	}

	switch next {
	case StateDraft:
		f.TeamsLockedAt = nil
		f.TeamsPublishedAt = nil
	case StatePoolLocked:
		f.TeamsLockedAt = nil
		f.TeamsPublishedAt = nil
	case StateTeamsBalanced:
		locked := now
		f.TeamsLockedAt = &locked
		f.TeamsPublishedAt = nil
	case StateTeamsPublished:
		published := now
		if f.TeamsLockedAt == nil {
			f.TeamsLockedAt = &published
		}
		f.TeamsPublishedAt = &published
	}

	f.State = next
	f.UpdatedAt = now
	return nil
}
