package observability

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/riskibarqy/matchday/internal/config"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

// Stack bundles the process logger with the telemetry exporters started
// alongside it.
type Stack struct {
	Logger    *logging.Logger
	shutdowns []namedShutdown
}

type namedShutdown struct {
	name string
	fn   func(context.Context) error
}

// Setup starts logging, tracing and profiling in that order and installs the
// logger as the process default.
func Setup(cfg config.Config, stdout io.Writer) (*Stack, error) {
	logger, flushLogs, err := InitLogger(cfg, stdout)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logging.SetDefault(logger)

	s := &Stack{Logger: logger}
	s.add("logs", flushLogs)
	s.add("uptrace", InitUptrace(cfg, logger))

	stopProfiler, err := InitPyroscope(cfg, logger)
	if err != nil {
		_ = s.Shutdown(context.Background())
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	s.add("pyroscope", stopProfiler)
	s.add("pprof", StartPprofServer(cfg, logger))

	return s, nil
}

func (s *Stack) add(name string, fn func(context.Context) error) {
	s.shutdowns = append(s.shutdowns, namedShutdown{name: name, fn: fn})
}

// Shutdown stops everything in reverse start order. Logs are flushed last so
// the other components can still report.
func (s *Stack) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(s.shutdowns) - 1; i >= 0; i-- {
		sd := s.shutdowns[i]
		if err := sd.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", sd.name, err))
		}
	}
	return errors.Join(errs...)
}
