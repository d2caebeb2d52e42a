package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/domain/player"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

// PlayerRepository reads the roster maintained by the surrounding application.
type PlayerRepository struct {
	db *sqlx.DB
}

var playerSelectColumns = []string{
	"id",
	"public_id",
	"tenant_id",
	"name",
	"is_ringer",
	"is_retired",
	"goal_threat",
	"defending",
	"stamina_pace",
	"control",
	"teamwork",
	"resilience",
	"power_rating",
	"performance_goal_threat",
	"created_at",
	"updated_at",
	"deleted_at",
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByID(ctx context.Context, tenantID, playerID string) (player.Player, bool, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(
			qb.Eq("tenant_id", tenantID),
			qb.Eq("public_id", playerID),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player: %w", err)
	}

	return row.toDomain(), true, nil
}

const playerUpsertSuffix = `ON CONFLICT (tenant_id, public_id) DO UPDATE SET
	name = EXCLUDED.name,
	is_ringer = EXCLUDED.is_ringer,
	is_retired = EXCLUDED.is_retired,
	goal_threat = EXCLUDED.goal_threat,
	defending = EXCLUDED.defending,
	stamina_pace = EXCLUDED.stamina_pace,
	control = EXCLUDED.control,
	teamwork = EXCLUDED.teamwork,
	resilience = EXCLUDED.resilience,
	power_rating = EXCLUDED.power_rating,
	performance_goal_threat = EXCLUDED.performance_goal_threat,
	updated_at = NOW(),
	deleted_at = NULL`

// Upsert writes players in one transaction. It backs the migration tool's
// seed command; the API only reads the roster.
func (r *PlayerRepository) Upsert(ctx context.Context, players []player.Player) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert players tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range players {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("player %s: %w", p.ID, err)
		}
		query, args, err := qb.InsertModel("players", playerInsertModelFromDomain(p), playerUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert player query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert player %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert players: %w", err)
	}
	return nil
}
