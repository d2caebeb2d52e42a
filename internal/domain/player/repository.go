package player

import "context"

// AttributeProvider resolves roster data for balancing. Lookups are tenant scoped.
type AttributeProvider interface {
	GetByID(ctx context.Context, tenantID, playerID string) (Player, bool, error)
}
