package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/match"
)

type fixtureTableModel struct {
	ID               int64      `db:"id"`
	PublicID         string     `db:"public_id"`
	TenantID         string     `db:"tenant_id"`
	ScheduledAt      time.Time  `db:"scheduled_at"`
	TeamSize         int        `db:"team_size"`
	TeamALabel       string     `db:"team_a_label"`
	TeamBLabel       string     `db:"team_b_label"`
	State            string     `db:"state"`
	Version          int64      `db:"version"`
	TeamsLockedAt    *time.Time `db:"teams_locked_at"`
	TeamsPublishedAt *time.Time `db:"teams_published_at"`
	CreatedBy        string     `db:"created_by"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

var fixtureSelectColumns = []string{
	"id",
	"public_id",
	"tenant_id",
	"scheduled_at",
	"team_size",
	"team_a_label",
	"team_b_label",
	"state",
	"version",
	"teams_locked_at",
	"teams_published_at",
	"created_by",
	"created_at",
	"updated_at",
}

func (m fixtureTableModel) toDomain() match.Fixture {
	return match.Fixture{
		ID:               m.PublicID,
		TenantID:         m.TenantID,
		ScheduledAt:      m.ScheduledAt,
		TeamSize:         m.TeamSize,
		TeamALabel:       m.TeamALabel,
		TeamBLabel:       m.TeamBLabel,
		State:            match.State(m.State),
		Version:          m.Version,
		TeamsLockedAt:    m.TeamsLockedAt,
		TeamsPublishedAt: m.TeamsPublishedAt,
		CreatedBy:        m.CreatedBy,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type poolEntryTableModel struct {
	FixtureID string    `db:"fixture_public_id"`
	TenantID  string    `db:"tenant_id"`
	PlayerID  string    `db:"player_public_id"`
	Status    string    `db:"status"`
	Notes     string    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var poolEntrySelectColumns = []string{
	"fixture_public_id",
	"tenant_id",
	"player_public_id",
	"status",
	"notes",
	"created_at",
	"updated_at",
}

func (m poolEntryTableModel) toDomain() match.PoolEntry {
	return match.PoolEntry{
		FixtureID: m.FixtureID,
		TenantID:  m.TenantID,
		PlayerID:  m.PlayerID,
		Status:    match.ResponseStatus(m.Status),
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type slotTableModel struct {
	FixtureID  string         `db:"fixture_public_id"`
	Team       string         `db:"team"`
	SlotNumber int            `db:"slot_number"`
	PlayerID   sql.NullString `db:"player_public_id"`
}

var slotSelectColumns = []string{"fixture_public_id", "team", "slot_number", "player_public_id"}

func (m slotTableModel) toDomain() match.SlotAssignment {
	return match.SlotAssignment{
		FixtureID:  m.FixtureID,
		Team:       match.Team(m.Team),
		SlotNumber: m.SlotNumber,
		PlayerID:   m.PlayerID.String,
	}
}

type balanceRunTableModel struct {
	PublicID        string    `db:"public_id"`
	TenantID        string    `db:"tenant_id"`
	FixtureID       string    `db:"fixture_public_id"`
	RequestedMethod string    `db:"requested_method"`
	Method          string    `db:"method"`
	Status          string    `db:"status"`
	PoolSize        int       `db:"pool_size"`
	Score           float64   `db:"score"`
	Quality         float64   `db:"quality"`
	Iterations      int       `db:"iterations"`
	Seed            string    `db:"seed"`
	DegradedReason  string    `db:"degraded_reason"`
	Error           string    `db:"error"`
	RequestedBy     string    `db:"requested_by"`
	StartedAt       time.Time `db:"started_at"`
	FinishedAt      time.Time `db:"finished_at"`
}

var balanceRunColumns = []string{
	"public_id",
	"tenant_id",
	"fixture_public_id",
	"requested_method",
	"method",
	"status",
	"pool_size",
	"score",
	"quality",
	"iterations",
	"seed",
	"degraded_reason",
	"error",
	"requested_by",
	"started_at",
	"finished_at",
}

func (m balanceRunTableModel) toDomain() match.BalanceRun {
	return match.BalanceRun{
		ID:              m.PublicID,
		TenantID:        m.TenantID,
		FixtureID:       m.FixtureID,
		RequestedMethod: m.RequestedMethod,
		Method:          m.Method,
		Status:          match.RunStatus(m.Status),
		PoolSize:        m.PoolSize,
		Score:           m.Score,
		Quality:         m.Quality,
		Iterations:      m.Iterations,
		Seed:            parseSeed(m.Seed),
		DegradedReason:  m.DegradedReason,
		Error:           m.Error,
		RequestedBy:     m.RequestedBy,
		StartedAt:       m.StartedAt,
		FinishedAt:      m.FinishedAt,
	}
}

func balanceRunValues(run match.BalanceRun) []any {
	return []any{
		run.ID,
		run.TenantID,
		run.FixtureID,
		run.RequestedMethod,
		run.Method,
		string(run.Status),
		run.PoolSize,
		run.Score,
		run.Quality,
		run.Iterations,
		formatSeed(run.Seed),
		run.DegradedReason,
		run.Error,
		run.RequestedBy,
		run.StartedAt,
		run.FinishedAt,
	}
}
