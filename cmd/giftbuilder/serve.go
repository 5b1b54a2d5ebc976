package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Victor-armando18/service-giftbuilder/internal/config"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/cart"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/catalog"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/jsonlogic"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/memory"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/rules"
	"github.com/Victor-armando18/service-giftbuilder/internal/interfaces/httpapi"
	"github.com/Victor-armando18/service-giftbuilder/internal/logging"
	"github.com/Victor-armando18/service-giftbuilder/internal/metrics"
	"github.com/Victor-armando18/service-giftbuilder/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	guards := rules.NewFileLoader(cfg.Rules.Dir)
	// Fail at startup rather than on the first checkout.
	if _, err := guards.Load(ctx, cfg.Rules.Version); err != nil {
		return fmt.Errorf("failed to load guard pack: %w", err)
	}

	m := metrics.New()
	svc := usecase.NewSessionService(usecase.Dependencies{
		Store:        memory.NewSessionStore(),
		Catalog:      cat,
		Cart:         cart.NewFileCart(cfg.Cart.Path),
		Guards:       guards,
		Executor:     jsonlogic.NewExecutor(),
		Metrics:      m,
		Logger:       logger,
		Tiers:        cfg.Discount.Tiers,
		RulesVersion: cfg.Rules.Version,
		SessionTTL:   cfg.Session.TTL,
	})

	e := httpapi.New(httpapi.Options{
		Builder:      svc,
		Catalog:      cat,
		Metrics:      m,
		Logger:       logger,
		AllowOrigins: cfg.Server.AllowOrigins,
	})

	go sweep(ctx, svc, cfg.Session.SweepInterval, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr), zap.String("rules_version", cfg.Rules.Version))
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// sweep ends idle sessions until ctx is cancelled.
func sweep(ctx context.Context, svc *usecase.SessionService, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := svc.PurgeExpired(ctx, now); err != nil {
				logger.Warn("session sweep failed", zap.Error(err))
			}
		}
	}
}
