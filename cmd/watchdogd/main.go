package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uplinkwatch/internal/actuator"
	"github.com/hamed0406/uplinkwatch/internal/config"
	"github.com/hamed0406/uplinkwatch/internal/health"
	"github.com/hamed0406/uplinkwatch/internal/httpapi"
	apimw "github.com/hamed0406/uplinkwatch/internal/httpapi/middleware"
	"github.com/hamed0406/uplinkwatch/internal/logging"
	"github.com/hamed0406/uplinkwatch/internal/notify"
	"github.com/hamed0406/uplinkwatch/internal/probe"
	"github.com/hamed0406/uplinkwatch/internal/recovery"
	"github.com/hamed0406/uplinkwatch/internal/repo"
	"github.com/hamed0406/uplinkwatch/internal/repo/memory"
	"github.com/hamed0406/uplinkwatch/internal/repo/postgres"
	"github.com/hamed0406/uplinkwatch/internal/scheduler"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	specs, err := cfg.Battery()
	if err != nil {
		logger.Fatal("battery_load_failed", zap.Error(err))
	}
	logger.Info("battery_loaded", zap.Int("checks", len(specs)))

	var (
		states      repo.StateStore
		assessments repo.AssessmentStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres_connect_failed", zap.Error(err))
		}
		defer pg.Close()
		states, assessments = pg, pg
		logger.Info("store_postgres")
	} else {
		mem := memory.New()
		states, assessments = mem, mem
		logger.Warn("store_memory", zap.String("hint", "set DATABASE_URL to survive restarts"))
	}

	prober := probe.NewProber(logger,
		probe.NewDNSChecker(config.DNSQueryName),
		probe.NewTCPChecker(),
		&probe.RetryChecker{
			Inner:    probe.NewHTTPChecker(),
			Attempts: cfg.RetryAttempts,
			Backoff:  cfg.RetryBackoff,
		},
		cfg.Concurrency,
	)

	evaluator := health.NewEvaluator(health.Weights{
		DNS:  cfg.DNSWeight,
		TCP:  cfg.TCPWeight,
		HTTP: cfg.HTTPWeight,
	}, cfg.Threshold)

	governor := recovery.NewGovernor(logger, states, cfg.Target, cfg.MaxAttempts, cfg.Window)

	var act actuator.Actuator
	if plug := actuator.NewHTTPPlug(cfg.PlugURL); plug != nil {
		act = plug
	} else {
		logger.Warn("actuator_disabled", zap.String("hint", "set PLUG_URL to enable power cycling"))
	}
	cycler := actuator.NewCycler(logger, act, cfg.SettleDelay)

	var notifier notify.Notifier
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		notifier = notify.Multi{slack}
	}

	hub := httpapi.NewHub(logger)
	defer hub.Close()

	runner := &scheduler.Runner{
		Logger:          logger,
		Specs:           specs,
		Prober:          prober,
		Evaluator:       evaluator,
		Governor:        governor,
		Cycler:          cycler,
		Assessments:     assessments,
		Notifier:        notifier,
		Interval:        cfg.Interval,
		ValidationDelay: cfg.ValidationDelay,
		OnAssessment:    hub.Broadcast,
	}

	api := httpapi.NewServer(logger, runner, governor, assessments, hub)
	router := api.Router(
		apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys},
		httpapi.RateLimits{
			PublicRPM:   cfg.PublicRPM,
			PublicBurst: cfg.PublicBurst,
			AdminRPM:    cfg.AdminRPM,
			AdminBurst:  cfg.AdminBurst,
		},
	)

	srv := &http.Server{Addr: cfg.Addr, Handler: router}
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_serve_failed", zap.Error(err))
			stop()
		}
	}()

	runner.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_failed", zap.Error(err))
	}
	logger.Info("watchdog_stopped")
}
