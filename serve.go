package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/analytics"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/audit"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/marketplace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/config"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-marketplace/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-marketplace/internal/presentation/worker"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "run the marketplace HTTP service",
	Action: func(cctx *cli.Context) error {
		cfg, err := config.FromContext(cctx)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := setup(ctx, cfg, true)
		if err != nil {
			return err
		}
		systemLogger := logging.WithTrace(rt.zap, logging.SystemTraceID, logging.SystemSpanID)

		// In-memory event bus; the audit worker is its only subscriber.
		bus := outbox.NewBus(rt.tel.Logger())
		audit.New(rt.tel).Start(bus, workerpresentation.Observe(rt.tel, "audit"))
		bus.Start(ctx)

		svc := marketplace.NewService(rt.store, bus, rt.tel)
		agg := analytics.NewAggregator(svc, rt.tel)
		handler := httppresentation.NewHandler(svc, agg, rt.tel)

		mux := handler.Router()
		mux.Handle("GET /metrics", promhttp.Handler())

		server := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: mux,
		}

		serveErr := make(chan error, 1)
		go func() {
			systemLogger.Info("http_server_start",
				zap.String("addr", server.Addr),
				zap.String("store", cfg.Store),
			)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case <-ctx.Done():
		case err = <-serveErr:
			if err != nil {
				systemLogger.Error("http_server_error", zap.Error(err))
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		if serr := server.Shutdown(shutdownCtx); serr != nil {
			systemLogger.Error("http_server_shutdown_error", zap.Error(serr))
		} else {
			systemLogger.Info("http_server_stopped")
		}
		bus.Stop(shutdownCtx)
		rt.Close(shutdownCtx)
		return err
	},
}
