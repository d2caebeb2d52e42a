package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/player"
	basecache "github.com/riskibarqy/matchday/internal/platform/cache"
)

// PlayerRepository caches attribute lookups in front of another provider.
// Misses are cached too so a stale pool reference does not hit the store on
// every balance.
type PlayerRepository struct {
	next  player.AttributeProvider
	cache *basecache.Store[cachedPlayer]
}

type cachedPlayer struct {
	value  player.Player
	exists bool
}

func NewPlayerRepository(next player.AttributeProvider, ttl time.Duration, maxEntries int) *PlayerRepository {
	return &PlayerRepository{next: next, cache: basecache.NewStore[cachedPlayer](ttl, maxEntries)}
}

func playerKey(tenantID, playerID string) string {
	return "player:" + tenantID + ":" + playerID
}

func (r *PlayerRepository) GetByID(ctx context.Context, tenantID, playerID string) (player.Player, bool, error) {
	cached, err := r.cache.GetOrLoad(ctx, playerKey(tenantID, playerID), func(ctx context.Context) (cachedPlayer, error) {
		item, exists, err := r.next.GetByID(ctx, tenantID, playerID)
		if err != nil {
			return cachedPlayer{}, err
		}
		return cachedPlayer{value: item, exists: exists}, nil
	})
	if err != nil {
		return player.Player{}, false, err
	}
	return cached.value, cached.exists, nil
}

// InvalidateTenant drops every cached player of tenantID.
func (r *PlayerRepository) InvalidateTenant(ctx context.Context, tenantID string) {
	r.cache.DeletePrefix(ctx, "player:"+tenantID+":")
}
