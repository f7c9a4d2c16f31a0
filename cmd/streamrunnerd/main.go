package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkrou/kflow/config"
	"github.com/mkrou/kflow/internal/httpapi"
	"github.com/mkrou/kflow/internal/wireup"
	"github.com/mkrou/kflow/pkg/logger"
	"github.com/mkrou/kflow/pkg/metrics"
	"github.com/mkrou/kflow/pkg/telemetry"
	"github.com/mkrou/kflow/runner"
	"github.com/mkrou/kflow/runner/kafkabroker"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		panic(err)
	}
	defer func() { _ = cleanupLogger() }()

	metrics.MustRegister()

	shutdownTrace := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		setup, tErr := telemetry.SetupTracing(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if tErr != nil {
			log.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			log.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			shutdownTrace = setup
		}
	}

	runnerLog := log.Named("runner")
	broker := kafkabroker.New(cfg.Kafka.Brokers, cfg.Kafka.GroupID, wireup.BrokerOffset(cfg.Kafka.AutoOffsetReset), runnerLog)

	run := runner.New[string, string](broker, echoProcessor, runnerLog)
	if err := run.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		log.Warnf(ctx, "register runner metrics: %v", err)
	}

	runCfg := runner.Config[string, string]{
		BootstrapServers:        strings.Join(cfg.Kafka.Brokers, ","),
		GroupID:                 cfg.Kafka.GroupID,
		Topics:                  cfg.Kafka.Topics,
		AutoOffsetReset:         wireup.AutoOffsetReset(cfg.Kafka.AutoOffsetReset),
		Strategy:                wireup.Strategy(cfg.Kafka.Strategy),
		PollTimeout:             cfg.Kafka.PollTimeout,
		PauseBase:               cfg.Kafka.PauseBase,
		PauseMax:                cfg.Kafka.PauseMax,
		CommitAttempts:          cfg.Kafka.CommitAttempts,
		ForceExit:               &cfg.Kafka.ForceExit,
		OnUnknownHandlerFailure: wireup.UnknownHandlerFailurePolicy(cfg.Kafka.OnUnknownFailure),
		ParallelUnits:           cfg.Kafka.ParallelUnits,
		KeyDeserializer:         wireup.StringDeserializerFactory,
		ValueDeserializer:       wireup.StringDeserializerFactory,
	}
	if err := run.Configure(runCfg); err != nil {
		log.Errorf(ctx, "invalid runner configuration: %v", err)
		return
	}

	run.OnPause(func(reason string, d time.Duration) {
		log.Warnf(ctx, "runner paused: reason=%q next_attempt_after=%s", reason, d)
	})
	run.OnResume(func() {
		log.Infof(ctx, "runner resumed")
	})
	run.OnFatal(func(err error) {
		log.Errorf(ctx, "runner stopped fatally: %v", err)
	})

	applyGinMode(ctx, cfg.HTTP.GinMode, log)
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}
	h := httpapi.NewHandler(run, log)
	router := httpapi.NewRouter(h, otelServiceName)
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Infof(ctx, "runner starting brokers=%v topics=%v group=%s", cfg.Kafka.Brokers, cfg.Kafka.Topics, cfg.Kafka.GroupID)
		if err := run.Start(ctx); err != nil {
			errCh <- err
		}
	}()
	go func() {
		log.Infof(ctx, "http server starting addr=%s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Infof(ctx, "shutdown signal received")
	case err := <-errCh:
		log.Warnf(ctx, "background component stopped: %v", err)
	}
	cancel()

	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		log.Warnf(ctx, "http server shutdown failed: %v", err)
	}

	run.Stop()
	if err := shutdownTrace(context.Background()); err != nil {
		log.Warnf(ctx, "shutdown tracing: %v", err)
	}
	log.Infof(ctx, "service stopped")
}

// echoProcessor is the demonstration Processor for the standalone
// daemon: it does nothing but acknowledge the records it was handed,
// stamping a fresh opaque ID on the result the way any Processor is
// free to for its own bookkeeping. Real deployments replace this with
// a Processor of their own (see cmd/pgsink-demo for one backed by
// Postgres).
func echoProcessor(ctx context.Context, records []runner.Record[string, string]) (runner.ProcessResult[string, string], error) {
	return runner.ProcessResult[string, string]{ID: uuid.NewString(), Records: records}, nil
}

// applyGinMode sets gin's mode from config; an unknown value falls
// back to debug with a warning.
func applyGinMode(ctx context.Context, mode string, log *logger.ZapLogger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "", "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.DebugMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to debug", mode)
	}
}
