package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/matchday/internal/config"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

// InitUptrace installs the global tracer provider used by otelhttp, otelsqlx
// and the handler/usecase spans. Disabled or unconfigured tracing leaves the
// no-op provider in place.
func InitUptrace(cfg config.Config, logger *logging.Logger) func(context.Context) error {
	if logger == nil {
		logger = logging.Default()
	}

	noop := func(context.Context) error { return nil }
	if !cfg.UptraceEnabled {
		logger.Info("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
		return noop
	}
	if strings.TrimSpace(cfg.UptraceDSN) == "" {
		logger.Info("uptrace disabled", "reason", "UPTRACE_DSN empty")
		return noop
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResource(resource.NewSchemaless(traceAttributes(cfg)...)),
	)
	logger.Info("tracing to uptrace",
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"store", cfg.StoreBackend,
		"notifier", cfg.NotifierBackend,
	)
	return uptrace.Shutdown
}

// deploymentFacets describes how this instance is wired. Traces and profiles
// carry the same facets so a slow balance can be matched across both.
func deploymentFacets(cfg config.Config) [][2]string {
	return [][2]string{
		{"store_backend", cfg.StoreBackend},
		{"notifier_backend", cfg.NotifierBackend},
		{"balance_method", string(cfg.DefaultMethod)},
		{"balance_normalizer", string(cfg.Balance.Normalizer)},
	}
}

func traceAttributes(cfg config.Config) []attribute.KeyValue {
	facets := deploymentFacets(cfg)
	attrs := make([]attribute.KeyValue, 0, len(facets))
	for _, f := range facets {
		if f[1] == "" {
			continue
		}
		attrs = append(attrs, attribute.String("matchday."+f[0], f[1]))
	}
	return attrs
}
