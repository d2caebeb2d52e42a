package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/matchday/internal/domain/user"
	"github.com/riskibarqy/matchday/internal/platform/eventbus"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/usecase"
)

const defaultAdminRole = "admin"

type HandlerConfig struct {
	// AdminRole may see unpublished teams and call mutating endpoints.
	AdminRole string
	// AllowedOrigins is checked on websocket upgrades, which CORS does not cover.
	AllowedOrigins []string
}

type Handler struct {
	matchService *usecase.MatchService
	events       *eventbus.Bus
	logger       *logging.Logger
	validator    *validator.Validate
	upgrader     websocket.Upgrader
	adminRole    string
}

func NewHandler(matchService *usecase.MatchService, events *eventbus.Bus, cfg HandlerConfig, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if events == nil {
		events = eventbus.NewBus()
	}
	adminRole := strings.TrimSpace(cfg.AdminRole)
	if adminRole == "" {
		adminRole = defaultAdminRole
	}

	return &Handler{
		matchService: matchService,
		events:       events,
		logger:       logger.Named("httpapi"),
		validator:    validator.New(),
		upgrader:     newUpgrader(cfg.AllowedOrigins),
		adminRole:    adminRole,
	}
}

func (h *Handler) AdminRole() string {
	return h.adminRole
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest reads a strict JSON body into dst and validates it.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func (h *Handler) principal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}

func (h *Handler) fixtureRef(ctx context.Context, r *http.Request) (usecase.FixtureRef, user.Principal, error) {
	principal, err := h.principal(ctx)
	if err != nil {
		return usecase.FixtureRef{}, user.Principal{}, err
	}
	return usecase.FixtureRef{
		TenantID:  principal.TenantID,
		FixtureID: strings.TrimSpace(r.PathValue("fixtureID")),
	}, principal, nil
}

func (h *Handler) fixtureCommand(ctx context.Context, r *http.Request, expectedVersion int64) (usecase.FixtureCommand, error) {
	ref, principal, err := h.fixtureRef(ctx, r)
	if err != nil {
		return usecase.FixtureCommand{}, err
	}
	return usecase.FixtureCommand{
		FixtureRef:      ref,
		ActorID:         principal.UserID,
		ExpectedVersion: expectedVersion,
	}, nil
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", usecase.ErrInvalidInput)
	}
	return limit, nil
}

func parseExpectedVersion(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: expected_version is required", usecase.ErrInvalidInput)
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 1 {
		return 0, fmt.Errorf("%w: expected_version must be a positive integer", usecase.ErrInvalidInput)
	}
	return version, nil
}
