package anubis

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday/internal/domain/user"
	basecache "github.com/riskibarqy/matchday/internal/platform/cache"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/platform/resilience"
	"github.com/riskibarqy/matchday/internal/usecase"
)

var errAnubisTransient = crerr.New("anubis transient failure")

type Config struct {
	BaseURL         string
	IntrospectPath  string
	AdminKey        string
	DefaultTenantID string
	CacheTTL        time.Duration
	CacheMaxEntries int
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// Client resolves bearer tokens to principals through Anubis token
// introspection. Active principals are cached by token hash.
type Client struct {
	httpClient      *http.Client
	introspectURL   string
	adminKey        string
	defaultTenantID string
	cacheTTL        time.Duration
	cache           *basecache.Store[user.Principal]
	breaker         *resilience.CircuitBreaker
	logger          *logging.Logger
	now             func() time.Time
}

func NewClient(httpClient *http.Client, cfg Config, logger *logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = logging.Default()
	}

	c := &Client{
		httpClient:      httpClient,
		introspectURL:   buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey:        strings.TrimSpace(cfg.AdminKey),
		defaultTenantID: strings.TrimSpace(cfg.DefaultTenantID),
		cacheTTL:        cfg.CacheTTL,
		logger:          logger.Named("anubis"),
		now:             time.Now,
	}
	c.breaker = resilience.NewCircuitBreaker("anubis", cfg.CircuitBreaker, resilience.WithLogger(c.logger))
	if cfg.CacheTTL > 0 {
		c.cache = basecache.NewStore[user.Principal](cfg.CacheTTL, cfg.CacheMaxEntries)
	}
	return c
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	key := hashToken(token)
	if c.cache != nil {
		if principal, ok := c.cache.Get(ctx, key); ok {
			return principal, nil
		}
	}

	var principal user.Principal
	call := func() error {
		var err error
		principal, err = c.introspect(ctx, token)
		return err
	}

	err := c.breaker.Do(call, isCircuitFailure)
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "anubis circuit breaker rejected request")
		return user.Principal{}, fmt.Errorf("%w: anubis circuit open", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		return user.Principal{}, err
	}

	if c.cache != nil {
		c.cache.Set(ctx, key, principal)
	}
	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: %w: request introspection: %v", usecase.ErrDependencyUnavailable, errAnubisTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: %w: read introspect response: %v", usecase.ErrDependencyUnavailable, errAnubisTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		c.logger.ErrorContext(ctx, "anubis rejected admin key", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("%w: anubis rejected admin key", usecase.ErrDependencyUnavailable)
	case isRetryableStatus(resp.StatusCode):
		c.logger.WarnContext(ctx, "anubis introspection unavailable", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("%w: %w: status %d", usecase.ErrDependencyUnavailable, errAnubisTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.logger.WarnContext(ctx, "anubis introspection non-200", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("%w: introspection failed with status %d", usecase.ErrDependencyUnavailable, resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, fmt.Errorf("%w: unmarshal introspect response: %v", usecase.ErrDependencyUnavailable, err)
	}
	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if decoded.ExpiresAt > 0 && !time.Unix(decoded.ExpiresAt, 0).After(c.now()) {
		return user.Principal{}, fmt.Errorf("%w: token expired", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, fmt.Errorf("%w: invalid introspect response: user_id is empty", usecase.ErrDependencyUnavailable)
	}

	tenantID := strings.TrimSpace(decoded.TenantID)
	if tenantID == "" {
		tenantID = c.defaultTenantID
	}
	if tenantID == "" {
		return user.Principal{}, fmt.Errorf("%w: token carries no tenant", usecase.ErrUnauthorized)
	}

	return user.Principal{
		UserID:   decoded.UserID,
		Email:    decoded.Email,
		TenantID: tenantID,
		Roles:    append([]string(nil), decoded.Roles...),
	}, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active    bool     `json:"active"`
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	TenantID  string   `json:"tenant_id"`
	Roles     []string `json:"roles"`
	ExpiresAt int64    `json:"exp"`
}
