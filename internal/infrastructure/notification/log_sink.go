package notification

import (
	"context"
	"time"

	domain "github.com/riskibarqy/matchday/internal/domain/notification"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

// LogSink writes system messages to the service log. It is the default
// backend when no messaging collaborator is configured.
type LogSink struct {
	logger *logging.Logger
	now    func() time.Time
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger.Named("notification"), now: time.Now}
}

func (s *LogSink) PostSystemMessage(ctx context.Context, tenantID, content string) error {
	msg := domain.Message{TenantID: tenantID, Content: content, SentAt: s.now().UTC()}
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "system message", "tenant_id", msg.TenantID, "content", msg.Content)
	return nil
}
