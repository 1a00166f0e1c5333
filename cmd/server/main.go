package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do"
	"github.com/seatmate-io/seatmate/internal/bootstrap"
	"github.com/seatmate-io/seatmate/internal/config"
	mq "github.com/seatmate-io/seatmate/internal/infra/queue"
	"github.com/seatmate-io/seatmate/internal/modules/handler"
	"github.com/seatmate-io/seatmate/internal/modules/service"
	"github.com/seatmate-io/seatmate/internal/router"
	"github.com/seatmate-io/seatmate/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	inj := bootstrap.BuildContainer()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer log.Sync()

	if cfg.Telemetry.Enabled {
		if _, err := telemetry.SetupTracing(cfg); err != nil {
			log.Sugar().Warnw("tracing setup failed", "err", err)
		}
		if _, err := telemetry.SetupMetrics(cfg); err != nil {
			log.Sugar().Warnw("metrics setup failed", "err", err)
		}
		if err := telemetry.InitMatchingMetrics(); err != nil {
			log.Sugar().Warnw("matching metrics init failed", "err", err)
		}
	}

	engine := router.NewRouter(router.RouterDeps{
		Config:              cfg,
		DB:                  do.MustInvoke[*gorm.DB](inj),
		Log:                 log,
		AuthHandler:         do.MustInvoke[*handler.AuthHandler](inj),
		ListingHandler:      do.MustInvoke[*handler.ListingHandler](inj),
		ConversationHandler: do.MustInvoke[*handler.ConversationHandler](inj),
		ApplicationHandler:  do.MustInvoke[*handler.ApplicationHandler](inj),
		ReviewHandler:       do.MustInvoke[*handler.ReviewHandler](inj),
		NotificationHandler: do.MustInvoke[*handler.NotificationHandler](inj),
		ProfileHandler:      do.MustInvoke[*handler.ProfileHandler](inj),
		AdminHandler:        do.MustInvoke[*handler.AdminHandler](inj),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Notification emitter: consume domain events into notification rows.
	consumer := do.MustInvoke[*mq.Consumer](inj)
	notifications := do.MustInvoke[service.NotificationService](inj)
	go func() {
		if err := consumer.Handle(ctx, notifications.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			log.Sugar().Errorw("notification consumer stopped", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: engine,
	}

	go func() {
		log.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Sugar().Fatalw("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Sugar().Errorw("server shutdown", "err", err)
	}
	if cfg.Telemetry.Enabled {
		_ = telemetry.Shutdown(shutdownCtx)
		_ = telemetry.ShutdownMetrics(shutdownCtx)
	}

	if err := inj.Shutdown(); err != nil {
		log.Sugar().Errorw("container shutdown", "err", err)
		os.Exit(1)
	}
}
