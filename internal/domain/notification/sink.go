package notification

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Sink posts a system message into a tenant's messaging channel.
type Sink interface {
	PostSystemMessage(ctx context.Context, tenantID, content string) error
}

// Message is the serialized form carried by queue and pub/sub sinks.
type Message struct {
	TenantID string    `json:"tenant_id"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sent_at"`
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return fmt.Errorf("tenant id is required")
	}
	if strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

// TeamsPublishedContent renders the message posted when a fixture's teams go public.
func TeamsPublishedContent(labelA, labelB string, scheduledAt time.Time, teamA, teamB []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Teams are out for %s.\n", scheduledAt.UTC().Format("Mon 2 Jan 15:04 MST"))
	fmt.Fprintf(&b, "%s: %s\n", labelA, strings.Join(teamA, ", "))
	fmt.Fprintf(&b, "%s: %s", labelB, strings.Join(teamB, ", "))
	return b.String()
}
