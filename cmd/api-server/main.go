// cmd/api-server/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"dinediscover/internal/app"
	"dinediscover/internal/common/config"
	"dinediscover/internal/common/logger"
	"dinediscover/internal/common/observability"
	"dinediscover/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog, level := logger.NewAtomic(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting API server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("placesProvider", cfg.Places.Provider),
		zap.String("configFile", config.ConfigFile()),
	)

	// only the log level is hot-reloadable; everything else needs a restart
	config.Watch(func(next *config.Config) {
		level.SetLevel(logger.ParseLevel(next.Logging.Level))
		zapLog.Info("config reloaded", zap.String("logLevel", next.Logging.Level))
	}, func(err error) {
		zapLog.Warn("config reload rejected", zap.Error(err))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.Observability.ServiceName)
	defer obs.Shutdown()

	if cfg.Observability.TracingEnabled {
		tracer, err := observability.InitTracer(observability.TracingConfig{
			ServiceName:    cfg.Observability.ServiceName,
			Environment:    cfg.App.Environment,
			JaegerEndpoint: cfg.Observability.JaegerEndpoint,
			SampleRatio:    cfg.Observability.SampleRatio,
		})
		if err != nil {
			zapLog.Fatal("tracer init failed", zap.Error(err))
		}
		defer tracer.Shutdown(context.Background())
	}

	reg, err := registry.LoadOrDefault(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("tool registry load failed", zap.Error(err))
	}

	infra, err := app.Connect(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("backing stores unavailable", zap.Error(err))
	}
	defer infra.Close()

	handlers, err := app.BuildHandlers(cfg, reg, infra, log)
	if err != nil {
		zapLog.Fatal("handler setup failed", zap.Error(err))
	}

	if cfg.Places.APIKey == "" && cfg.Places.Provider == config.ProviderFoursquare {
		zapLog.Warn("FOURSQUARE_API_KEY is not set; searches will fail")
	}
	if cfg.LLM.APIKey == "" {
		zapLog.Warn("TOGETHER_API_KEY is not set; searches will fail")
	}

	server := app.NewAPIServer(cfg, handlers, infra, obs, log)
	err = server.Serve(ctx, cfg.Server.Address,
		config.GetDuration(cfg.Server.ReadTimeout),
		config.GetDuration(cfg.Server.WriteTimeout),
		config.GetDuration(cfg.Server.ShutdownTimeout),
	)
	if err != nil {
		zapLog.Fatal("server stopped with error", zap.Error(err))
	}

	zapLog.Info("API server stopped gracefully")
}
