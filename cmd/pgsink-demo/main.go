package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkrou/kflow/config"
	"github.com/mkrou/kflow/internal/httpapi"
	"github.com/mkrou/kflow/internal/pgsink"
	"github.com/mkrou/kflow/internal/wireup"
	"github.com/mkrou/kflow/pkg/logger"
	"github.com/mkrou/kflow/pkg/metrics"
	"github.com/mkrou/kflow/pkg/telemetry"
	"github.com/mkrou/kflow/runner"
	"github.com/mkrou/kflow/runner/kafkabroker"
)

// pgsink-demo wires the generic runner to internal/pgsink: every
// record it consumes is upserted into Postgres, keyed by its own
// (topic, partition, offset). It loads the same config and serves the
// same HTTP routes as cmd/streamrunnerd with a different Processor;
// unlike streamrunnerd it does not register the runner's own
// Prometheus metrics or apply HTTP.GinMode.
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

	pool, err := pgsink.NewPool(ctx, cfg.Sink.DSN, cfg.Sink.MaxConns)
	if err != nil {
		log.Errorf(ctx, "failed to create postgres pool: %v", err)
		return
	}
	defer pool.Close()

	if err := pgsink.ApplyMigrations(cfg.Sink.DSN, migrationsDir()); err != nil {
		log.Errorf(ctx, "failed to apply migrations: %v", err)
		return
	}

	sink := pgsink.NewSink(pool, "sunk_records")

	runnerLog := log.Named("pgsink-runner")
	broker := kafkabroker.New(cfg.Kafka.Brokers, cfg.Kafka.GroupID, wireup.BrokerOffset(cfg.Kafka.AutoOffsetReset), runnerLog)

	run := runner.New[string, string](broker, sink.Process, runnerLog)

	runCfg := runner.Config[string, string]{
		BootstrapServers:  strings.Join(cfg.Kafka.Brokers, ","),
		GroupID:           cfg.Kafka.GroupID,
		Topics:            cfg.Kafka.Topics,
		AutoOffsetReset:   wireup.AutoOffsetReset(cfg.Kafka.AutoOffsetReset),
		Strategy:          wireup.Strategy(cfg.Kafka.Strategy),
		PollTimeout:       cfg.Kafka.PollTimeout,
		PauseBase:         cfg.Kafka.PauseBase,
		PauseMax:          cfg.Kafka.PauseMax,
		CommitAttempts:    cfg.Kafka.CommitAttempts,
		ForceExit:         &cfg.Kafka.ForceExit,
		ParallelUnits:     cfg.Kafka.ParallelUnits,
		KeyDeserializer:   wireup.StringDeserializerFactory,
		ValueDeserializer: wireup.StringDeserializerFactory,

		OnUnknownHandlerFailure: wireup.UnknownHandlerFailurePolicy(cfg.Kafka.OnUnknownFailure),
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
	run.OnPostCommit(func(n int) {
		log.Infof(ctx, "sunk %d records", n)
	})

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
		log.Infof(ctx, "runner starting brokers=%v topics=%v group=%s table=sunk_records", cfg.Kafka.Brokers, cfg.Kafka.Topics, cfg.Kafka.GroupID)
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

// migrationsDir locates this binary's migrations directory relative
// to its own source file, so it resolves correctly regardless of the
// working directory the binary is launched from.
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "migrations")
}

