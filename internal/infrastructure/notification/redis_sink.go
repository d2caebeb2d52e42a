package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	domain "github.com/riskibarqy/matchday/internal/domain/notification"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

const defaultRedisHistory = 50

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
}

type RedisSinkConfig struct {
	ChannelPrefix string
	HistorySize   int
}

// RedisSink publishes system messages on a per-tenant channel and keeps a
// capped history list so late subscribers can catch up.
type RedisSink struct {
	client  redisClient
	prefix  string
	history int64
	logger  *logging.Logger
	now     func() time.Time
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisSink(client redisClient, cfg RedisSinkConfig, logger *logging.Logger) *RedisSink {
	if logger == nil {
		logger = logging.Default()
	}
	prefix := strings.TrimSpace(cfg.ChannelPrefix)
	if prefix == "" {
		prefix = "matchday"
	}
	history := cfg.HistorySize
	if history < 1 {
		history = defaultRedisHistory
	}
	return &RedisSink{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, ":"),
		history: int64(history),
		logger:  logger.Named("notification.redis"),
		now:     time.Now,
	}
}

func (s *RedisSink) PostSystemMessage(ctx context.Context, tenantID, content string) error {
	msg := domain.Message{TenantID: tenantID, Content: content, SentAt: s.now().UTC()}
	if err := msg.Validate(); err != nil {
		return err
	}

	payload, err := sonic.MarshalString(msg)
	if err != nil {
		return fmt.Errorf("marshal system message: %w", err)
	}

	channel := s.channel(tenantID)
	receivers, err := s.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish system message channel=%s: %w", channel, err)
	}

	historyKey := channel + ":history"
	if err := s.client.LPush(ctx, historyKey, payload).Err(); err != nil {
		return fmt.Errorf("append system message history key=%s: %w", historyKey, err)
	}
	if err := s.client.LTrim(ctx, historyKey, 0, s.history-1).Err(); err != nil {
		return fmt.Errorf("trim system message history key=%s: %w", historyKey, err)
	}

	s.logger.DebugContext(ctx, "system message published", "channel", channel, "receivers", receivers)
	return nil
}

func (s *RedisSink) channel(tenantID string) string {
	return s.prefix + ":tenant:" + strings.TrimSpace(tenantID) + ":messages"
}
