package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/matchday/internal/domain/player"
)

// PlayerRepository keeps each tenant's roster in its own map so lookups never
// cross tenants.
type PlayerRepository struct {
	mu       sync.RWMutex
	byTenant map[string]map[string]player.Player
}

func NewPlayerRepository(roster []player.Player) *PlayerRepository {
	r := &PlayerRepository{byTenant: make(map[string]map[string]player.Player)}
	for _, p := range roster {
		r.put(p)
	}
	return r
}

func (r *PlayerRepository) GetByID(_ context.Context, tenantID, playerID string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byTenant[tenantID][playerID]
	return p, ok, nil
}

// Upsert validates the whole batch before storing any of it.
func (r *PlayerRepository) Upsert(_ context.Context, players []player.Player) error {
	for _, p := range players {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("player %s: %w", p.ID, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range players {
		r.put(p)
	}
	return nil
}

func (r *PlayerRepository) put(p player.Player) {
	roster, ok := r.byTenant[p.TenantID]
	if !ok {
		roster = make(map[string]player.Player)
		r.byTenant[p.TenantID] = roster
	}
	roster[p.ID] = p
}
