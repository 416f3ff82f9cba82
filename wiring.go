package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/config"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/market"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/dsstore"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/logging"
)

// stack is the process wiring shared by every command.
type stack struct {
	cfg    config.Config
	zap    *zap.Logger
	tel    observability.Observability
	store  market.Store
	closer []func(context.Context) error
}

func setup(ctx context.Context, cfg config.Config, withMetrics bool) (*stack, error) {
	rt := &stack{cfg: cfg}

	baseLogger, err := logging.NewLogger(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, xerrors.Errorf("logger: %w", err)
	}
	zap.ReplaceGlobals(baseLogger)
	rt.zap = baseLogger
	rt.closer = append(rt.closer, func(context.Context) error {
		_ = baseLogger.Sync()
		return nil
	})

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		rt.Close(ctx)
		return nil, xerrors.Errorf("tracing: %w", err)
	}
	rt.closer = append(rt.closer, shutdownTracing)

	var (
		counters   map[observability.MetricKey]observability.Counter
		histograms map[observability.MetricKey]observability.Histogram
	)
	if withMetrics {
		counters, histograms = prometrics.Standard(prometrics.New("", "", prometheus.DefaultRegisterer))
	}
	rt.tel = infraobs.New(
		oteltrace.New(cfg.ServiceName),
		zaplogger.Wrap(baseLogger),
		counters,
		histograms,
	)

	switch cfg.Store {
	case config.StoreLevelDB:
		s, closeDS, err := dsstore.OpenLevelDB(cfg.DataDir)
		if err != nil {
			rt.Close(ctx)
			return nil, xerrors.Errorf("open leveldb store at %s: %w", cfg.DataDir, err)
		}
		rt.store = s
		rt.closer = append(rt.closer, func(context.Context) error { return closeDS() })
	default:
		rt.store = memory.NewStore()
	}
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *stack) Close(ctx context.Context) {
	for i := len(rt.closer) - 1; i >= 0; i-- {
		if err := rt.closer[i](ctx); err != nil && rt.zap != nil {
			rt.zap.Warn("shutdown_step_failed", zap.Error(err))
		}
	}
	rt.closer = nil
}
