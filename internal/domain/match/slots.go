package match

import (
	"fmt"
	"sort"
)

// BuildAssignments numbers each team densely from 1 in the given order.
func BuildAssignments(fixtureID string, teamA, teamB []string) []SlotAssignment {
	out := make([]SlotAssignment, 0, len(teamA)+len(teamB))
	for i, id := range teamA {
		out = append(out, SlotAssignment{FixtureID: fixtureID, Team: TeamA, SlotNumber: i + 1, PlayerID: id})
	}
	for i, id := range teamB {
		out = append(out, SlotAssignment{FixtureID: fixtureID, Team: TeamB, SlotNumber: i + 1, PlayerID: id})
	}
	return out
}

// SortSlots orders by team then slot number.
func SortSlots(slots []SlotAssignment) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Team != slots[j].Team {
			return slots[i].Team < slots[j].Team
		}
		return slots[i].SlotNumber < slots[j].SlotNumber
	})
}

// TeamPlayers lists the assigned players of team in slot order.
func TeamPlayers(slots []SlotAssignment, team Team) []string {
	sorted := append([]SlotAssignment(nil), slots...)
	SortSlots(sorted)
	out := make([]string, 0, len(sorted))
	for _, s := range sorted {
		if s.Team == team && s.PlayerID != "" {
			out = append(out, s.PlayerID)
		}
	}
	return out
}

// SwapPlayers exchanges the (team, slot) pairs of a and b and returns a new slice.
func SwapPlayers(slots []SlotAssignment, a, b string) ([]SlotAssignment, error) {
	out := append([]SlotAssignment(nil), slots...)
	ia, ib := -1, -1
	for i, s := range out {
		switch s.PlayerID {
		case a:
			ia = i
		case b:
			ib = i
		}
	}
	if ia < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, a)
	}
	if ib < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, b)
	}
	out[ia].PlayerID, out[ib].PlayerID = b, a
	return out, nil
}

// PlaceInSlot puts playerID into (team, slot). The player's previous slot and
// the target's previous occupant both end up unassigned.
func PlaceInSlot(slots []SlotAssignment, fixtureID, playerID string, team Team, slot int) []SlotAssignment {
	out := make([]SlotAssignment, 0, len(slots)+1)
	placed := false
	for _, s := range slots {
		if s.PlayerID == playerID {
			s.PlayerID = ""
		}
		if s.Team == team && s.SlotNumber == slot {
			s.PlayerID = playerID
			placed = true
		}
		out = append(out, s)
	}
	if !placed {
		out = append(out, SlotAssignment{FixtureID: fixtureID, Team: team, SlotNumber: slot, PlayerID: playerID})
	}
	SortSlots(out)
	return out
}

// ValidateSlot checks slot bounds for a fixture.
func ValidateSlot(f Fixture, team Team, slot int) error {
	if team != TeamA && team != TeamB {
		return fmt.Errorf("%w: unknown team %q", ErrInvalidSlot, team)
	}
	if slot < 1 || slot > f.TeamSize {
		return fmt.Errorf("%w: slot %d outside 1..%d", ErrInvalidSlot, slot, f.TeamSize)
	}
	return nil
}

// CheckComplete verifies that every confirmed player occupies exactly one slot,
// no one else is slotted, team A holds ceil(n/2) players and team B floor(n/2),
// and each team's slots run densely from 1.
func CheckComplete(slots []SlotAssignment, confirmed []string) error {
	want := make(map[string]struct{}, len(confirmed))
	for _, id := range confirmed {
		want[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(slots))
	taken := map[Team]map[int]struct{}{TeamA: {}, TeamB: {}}
	for _, s := range slots {
		if s.PlayerID == "" {
			continue
		}
		if _, ok := want[s.PlayerID]; !ok {
			return fmt.Errorf("%w: player %s is not in the confirmed pool", ErrIncompleteAssignment, s.PlayerID)
		}
		if _, dup := seen[s.PlayerID]; dup {
			return fmt.Errorf("%w: player %s holds more than one slot", ErrIncompleteAssignment, s.PlayerID)
		}
		byTeam, ok := taken[s.Team]
		if !ok {
			return fmt.Errorf("%w: player %s is on unknown team %q", ErrIncompleteAssignment, s.PlayerID, s.Team)
		}
		seen[s.PlayerID] = struct{}{}
		byTeam[s.SlotNumber] = struct{}{}
	}
	if len(seen) != len(want) {
		return fmt.Errorf("%w: %d of %d confirmed players slotted", ErrIncompleteAssignment, len(seen), len(want))
	}

	sizeA, sizeB := (len(want)+1)/2, len(want)/2
	if len(taken[TeamA]) != sizeA || len(taken[TeamB]) != sizeB {
		return fmt.Errorf("%w: teams are %dv%d, want %dv%d",
			ErrIncompleteAssignment, len(taken[TeamA]), len(taken[TeamB]), sizeA, sizeB)
	}
	if sizeB == 0 {
		return fmt.Errorf("%w: both teams need players", ErrIncompleteAssignment)
	}
	for _, team := range []Team{TeamA, TeamB} {
		for n := 1; n <= len(taken[team]); n++ {
			if _, ok := taken[team][n]; !ok {
				return fmt.Errorf("%w: team %s has no player in slot %d", ErrIncompleteAssignment, team, n)
			}
		}
	}
	return nil
}
