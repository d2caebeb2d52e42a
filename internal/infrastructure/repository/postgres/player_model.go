package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/player"
)

type playerTableModel struct {
	ID                    int64           `db:"id"`
	PublicID              string          `db:"public_id"`
	TenantID              string          `db:"tenant_id"`
	Name                  string          `db:"name"`
	IsRinger              bool            `db:"is_ringer"`
	IsRetired             bool            `db:"is_retired"`
	GoalThreat            float64         `db:"goal_threat"`
	Defending             float64         `db:"defending"`
	StaminaPace           float64         `db:"stamina_pace"`
	Control               float64         `db:"control"`
	Teamwork              float64         `db:"teamwork"`
	Resilience            float64         `db:"resilience"`
	PowerRating           sql.NullFloat64 `db:"power_rating"`
	PerformanceGoalThreat sql.NullFloat64 `db:"performance_goal_threat"`
	CreatedAt             time.Time       `db:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at"`
	DeletedAt             *time.Time      `db:"deleted_at"`
}

func (m playerTableModel) toDomain() player.Player {
	p := player.Player{
		ID:        m.PublicID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		IsRinger:  m.IsRinger,
		IsRetired: m.IsRetired,
		Attributes: player.Attributes{
			GoalThreat:  m.GoalThreat,
			Defending:   m.Defending,
			StaminaPace: m.StaminaPace,
			Control:     m.Control,
			Teamwork:    m.Teamwork,
			Resilience:  m.Resilience,
		},
	}
	if m.PowerRating.Valid && m.PerformanceGoalThreat.Valid {
		p.Performance = &player.Performance{
			PowerRating: m.PowerRating.Float64,
			GoalThreat:  m.PerformanceGoalThreat.Float64,
		}
	}
	return p
}

type playerInsertModel struct {
	PublicID              string          `db:"public_id"`
	TenantID              string          `db:"tenant_id"`
	Name                  string          `db:"name"`
	IsRinger              bool            `db:"is_ringer"`
	IsRetired             bool            `db:"is_retired"`
	GoalThreat            float64         `db:"goal_threat"`
	Defending             float64         `db:"defending"`
	StaminaPace           float64         `db:"stamina_pace"`
	Control               float64         `db:"control"`
	Teamwork              float64         `db:"teamwork"`
	Resilience            float64         `db:"resilience"`
	PowerRating           sql.NullFloat64 `db:"power_rating"`
	PerformanceGoalThreat sql.NullFloat64 `db:"performance_goal_threat"`
}

func playerInsertModelFromDomain(p player.Player) playerInsertModel {
	m := playerInsertModel{
		PublicID:    p.ID,
		TenantID:    p.TenantID,
		Name:        p.Name,
		IsRinger:    p.IsRinger,
		IsRetired:   p.IsRetired,
		GoalThreat:  p.Attributes.GoalThreat,
		Defending:   p.Attributes.Defending,
		StaminaPace: p.Attributes.StaminaPace,
		Control:     p.Attributes.Control,
		Teamwork:    p.Attributes.Teamwork,
		Resilience:  p.Attributes.Resilience,
	}
	if p.Performance != nil {
		m.PowerRating = sql.NullFloat64{Float64: p.Performance.PowerRating, Valid: true}
		m.PerformanceGoalThreat = sql.NullFloat64{Float64: p.Performance.GoalThreat, Valid: true}
	}
	return m
}
