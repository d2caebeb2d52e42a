package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/matchday/internal/config"
	"github.com/riskibarqy/matchday/internal/domain/balancing"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/domain/notification"
	"github.com/riskibarqy/matchday/internal/domain/player"
	"github.com/riskibarqy/matchday/internal/domain/teamtemplate"
	"github.com/riskibarqy/matchday/internal/infrastructure/account/anubis"
	notifyinfra "github.com/riskibarqy/matchday/internal/infrastructure/notification"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchday/internal/interfaces/httpapi"
	"github.com/riskibarqy/matchday/internal/platform/async"
	"github.com/riskibarqy/matchday/internal/platform/eventbus"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/usecase"
)

const (
	playerCacheMaxEntries = 10000
	principalCacheEntries = 5000
	dbPingTimeout         = 5 * time.Second
)

// NewHTTPServer wires the service. The returned shutdown func releases
// everything the server depends on and must run after the server stops.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	var closers []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*http.Server, func(context.Context) error, error) {
		_ = shutdown(context.Background())
		return nil, nil, err
	}

	store, players, err := newStorage(cfg, logger, &closers)
	if err != nil {
		return fail(err)
	}
	if cfg.CacheEnabled {
		players = cache.NewPlayerRepository(players, cfg.CacheTTL, playerCacheMaxEntries)
	}

	catalog := teamtemplate.DefaultCatalog()
	if len(cfg.TeamTemplates) > 0 {
		if catalog, err = catalog.Merge(cfg.TeamTemplates...); err != nil {
			return fail(fmt.Errorf("merge team templates: %w", err))
		}
	}

	notifier, err := newNotifier(cfg, logger, &closers)
	if err != nil {
		return fail(err)
	}

	dispatcher, err := async.NewDispatcher(cfg.NotifyWorkers, cfg.NotifyTimeout, logger)
	if err != nil {
		return fail(fmt.Errorf("create notification dispatcher: %w", err))
	}
	closers = append(closers, dispatcher.Close)

	events := eventbus.NewBus()
	matchSvc := usecase.NewMatchService(usecase.MatchServiceDeps{
		Store:    store,
		Players:  players,
		Engine:   balancing.NewEngine(cfg.Balance),
		Catalog:  catalog,
		Notifier: notifier,
		Runner:   dispatcher,
		Events:   events,
		Logger:   logger,
	}, usecase.MatchServiceConfig{
		PoolPolicy:    match.PoolPolicy{Slack: cfg.PoolSlack, AllowUneven: cfg.PoolUneven},
		DefaultMethod: cfg.DefaultMethod,
	})

	verifier := anubis.NewClient(&http.Client{Timeout: cfg.AnubisTimeout}, anubis.Config{
		BaseURL:         cfg.AnubisBaseURL,
		IntrospectPath:  cfg.AnubisIntrospectPath,
		AdminKey:        cfg.AnubisAdminKey,
		DefaultTenantID: cfg.AnubisDefaultTenantID,
		CacheTTL:        cfg.AnubisCacheTTL,
		CacheMaxEntries: principalCacheEntries,
		CircuitBreaker:  cfg.AnubisCircuit,
	}, logger)

	handler := httpapi.NewHandler(matchSvc, events, httpapi.HandlerConfig{
		AdminRole:      cfg.AdminRole,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, logger)
	router := httpapi.NewRouter(handler, verifier, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("app wired",
		"store_backend", cfg.StoreBackend,
		"notifier_backend", cfg.NotifierBackend,
		"cache_enabled", cfg.CacheEnabled,
		"default_method", cfg.DefaultMethod,
		"team_sizes", len(catalog.List()),
	)
	return server, shutdown, nil
}

func newStorage(cfg config.Config, logger *logging.Logger, closers *[]func(context.Context) error) (match.Store, player.AttributeProvider, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		var roster []player.Player
		if cfg.SeedDemoTenant {
			roster = memory.SeedPlayers(memory.DemoTenantID)
			logger.Info("memory store seeded", "tenant_id", memory.DemoTenantID, "players", len(roster))
		}
		return memory.NewMatchStore(cfg.FixtureLockTimeout), memory.NewPlayerRepository(roster), nil
	case config.StoreBackendPostgres:
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		*closers = append(*closers, func(context.Context) error { return db.Close() })
		if cfg.SeedDemoTenant {
			logger.Warn("SEED_DEMO_TENANT only applies to the memory store; seed postgres with cmd/migration")
		}
		return postgres.NewMatchStore(db, cfg.FixtureTxTimeout, cfg.FixtureLockTimeout), postgres.NewPlayerRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func newNotifier(cfg config.Config, logger *logging.Logger, closers *[]func(context.Context) error) (notification.Sink, error) {
	switch cfg.NotifierBackend {
	case config.NotifierBackendLog:
		return notifyinfra.NewLogSink(logger), nil
	case config.NotifierBackendRedis:
		client := notifyinfra.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		*closers = append(*closers, func(context.Context) error { return client.Close() })
		return notifyinfra.NewRedisSink(client, notifyinfra.RedisSinkConfig{
			ChannelPrefix: cfg.RedisChannelPrefix,
			HistorySize:   cfg.RedisHistorySize,
		}, logger), nil
	case config.NotifierBackendQStash:
		return notifyinfra.NewQStashSink(notifyinfra.QStashSinkConfig{
			BaseURL:        cfg.QStashBaseURL,
			Token:          cfg.QStashToken,
			TargetURL:      cfg.QStashTargetURL,
			Retries:        cfg.QStashRetries,
			ForwardToken:   cfg.QStashForwardToken,
			Timeout:        cfg.QStashTimeout,
			CircuitBreaker: cfg.QStashCircuit,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported notifier backend %q", cfg.NotifierBackend)
	}
}
