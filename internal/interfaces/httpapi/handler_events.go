package httpapi

import (
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/matchday/internal/usecase"
)

const (
	eventsBuffer       = 16
	eventsWriteTimeout = 10 * time.Second
	eventsPingInterval = 30 * time.Second
	eventsPongTimeout  = 60 * time.Second
)

// newUpgrader admits upgrades from the configured origins. Requests without an
// Origin header are not from browsers and are let through.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowAll {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// WatchFixture streams fixture change notifications over a websocket until the
// client disconnects. Each message is a JSON encoded usecase.FixtureChange.
func (h *Handler) WatchFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WatchFixture")
	defer span.End()

	ref, _, err := h.fixtureRef(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	// Resolve before upgrading so unknown or foreign fixtures get a normal 404.
	if _, err := h.matchService.GetFixture(ctx, ref, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	// Subscribe before the handshake completes so no change committed after the
	// client sees the 101 is missed.
	sub := h.events.Watch(usecase.FixtureEventKey(ref.TenantID, ref.FixtureID), eventsBuffer)
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.WarnContext(ctx, "websocket upgrade failed", "fixture_id", ref.FixtureID, "error", err)
		return
	}
	defer conn.Close()

	h.logger.InfoContext(ctx, "fixture watcher connected", "fixture_id", ref.FixtureID)

	// The read loop only serves control frames and notices the close.
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(eventsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongTimeout))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			h.logger.InfoContext(ctx, "fixture watcher disconnected", "fixture_id", ref.FixtureID)
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event, ok := <-sub.C():
			if !ok {
				return
			}
			payload, err := sonic.Marshal(event.Payload)
			if err != nil {
				h.logger.ErrorContext(ctx, "encode fixture change failed", "fixture_id", ref.FixtureID, "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.WarnContext(ctx, "write fixture change failed", "fixture_id", ref.FixtureID, "error", err)
				return
			}
		}
	}
}
