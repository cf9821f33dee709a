package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tenancyhq/bazaar/pkg/api"
	"github.com/tenancyhq/bazaar/pkg/audit"
	"github.com/tenancyhq/bazaar/pkg/auth"
	"github.com/tenancyhq/bazaar/pkg/authz"
	"github.com/tenancyhq/bazaar/pkg/config"
	"github.com/tenancyhq/bazaar/pkg/httputil"
	"github.com/tenancyhq/bazaar/pkg/keyspace"
	"github.com/tenancyhq/bazaar/pkg/middleware"
	"github.com/tenancyhq/bazaar/pkg/observability"
	"github.com/tenancyhq/bazaar/pkg/storage"
	"github.com/tenancyhq/bazaar/pkg/tenancy"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional env file loaded before reading configuration")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to load env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize tracing")
	}
	defer observability.ShutdownTracing(tp, logger)

	kv, err := storage.NewRedisStore(cfg.Storage)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer kv.Close()

	recorder, retention := buildAuditPipeline(cfg.Audit, logger)
	defer recorder.Close()
	if retention != nil {
		if err := retention.Start(cfg.Audit.RetentionCron); err != nil {
			logger.WithError(err).Fatal("failed to schedule audit retention")
		}
		defer retention.Stop()
	}

	ns := keyspace.New(logger, recorder)
	store := tenancy.NewStore(kv, ns, logger, tenancy.DefaultRoleCacheTTL)
	checker := tenancy.NewChecker(store, recorder, logger)
	resolver := tenancy.NewResolver(kv, ns, logger)

	validator, err := auth.NewValidator(cfg.Auth.ValidatorConfig(), logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to build token validator")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	var metrics *authz.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = authz.NewMetrics(registry)
	}

	service := authz.NewService(validator, checker, recorder, logger, metrics)
	bearer := middleware.NewBearerAuth(validator, logger, false)
	server := api.NewServer(kv, ns, service, bearer, logger)

	outer := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
		middleware.NewTenantFromHost(resolver, logger).OptionalHandler,
	)

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      outer(server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux(kv, registry),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.WithField("addr", apiServer.Addr).Info("bazaar API listening")
		errCh <- apiServer.ListenAndServe()
	}()
	go func() {
		logger.WithField("addr", healthServer.Addr).Info("health/metrics listening")
		errCh <- healthServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("api server shutdown incomplete")
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("health server shutdown incomplete")
	}
	logger.Info("bazaar stopped")
}

// buildAuditPipeline assembles the audit sinks: always the logrus sink,
// plus the rotating file sink (and its retention job) when a path is
// configured.
func buildAuditPipeline(cfg config.AuditConfig, logger *logrus.Logger) (audit.Recorder, *audit.Retention) {
	sinks := []audit.Recorder{audit.NewLogrusRecorder(logger)}

	if cfg.FilePath == "" {
		return audit.NewMultiRecorder(sinks...), nil
	}

	fileRec, err := audit.NewFileRecorder(audit.FileRecorderConfig{
		BasePath: cfg.FilePath,
		MaxSize:  cfg.MaxFileSize,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to open audit log")
	}
	sinks = append(sinks, fileRec)

	return audit.NewMultiRecorder(sinks...), audit.NewRetention(cfg.FilePath, cfg.RetentionAge, logger)
}

func healthMux(kv storage.KVStore, registry *prometheus.Registry) http.Handler {
	health := observability.NewHealthHandler(kv)
	m := mux.NewRouter()
	m.HandleFunc("/healthz", health.Liveness).Methods(http.MethodGet)
	m.HandleFunc("/readyz", health.Readiness).Methods(http.MethodGet)
	m.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return m
}
