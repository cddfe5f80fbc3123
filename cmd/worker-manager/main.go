// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dinediscover/internal/app"
	"dinediscover/internal/common/camunda"
	"dinediscover/internal/common/config"
	"dinediscover/internal/common/logger"
	"dinediscover/internal/common/observability"
	psr "dinediscover/internal/workers/restaurant-search/parse-search-request"
	qp "dinediscover/internal/workers/restaurant-search/query-places"
	rs "dinediscover/internal/workers/restaurant-search/record-search"
	"dinediscover/pkg/registry"
)

const healthAddress = ":8080"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog, level := logger.NewAtomic(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	config.Watch(func(next *config.Config) {
		level.SetLevel(logger.ParseLevel(next.Logging.Level))
	}, func(err error) {
		zapLog.Warn("config reload rejected", zap.Error(err))
	})

	if !cfg.Camunda.Enabled {
		zapLog.Fatal("camunda.enabled is false; nothing to do")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	if cfg.Observability.TracingEnabled {
		tracer, err := observability.InitTracer(observability.TracingConfig{
			ServiceName:    "worker-manager",
			Environment:    cfg.App.Environment,
			JaegerEndpoint: cfg.Observability.JaegerEndpoint,
			SampleRatio:    cfg.Observability.SampleRatio,
		})
		if err != nil {
			zapLog.Fatal("tracer init failed", zap.Error(err))
		}
		defer tracer.Shutdown(context.Background())
	}

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = app.RetryWithBackoff(ctx, func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- Stores and handlers ---
	infra, err := app.Connect(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("backing stores unavailable", zap.Error(err))
	}
	defer infra.Close()

	reg, err := registry.LoadOrDefault(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("tool registry load failed", zap.Error(err))
	}

	handlers, err := app.BuildHandlers(cfg, reg, infra, log)
	if err != nil {
		zapLog.Fatal("handler setup failed", zap.Error(err))
	}

	// --- Workers ---
	jobHandlers := map[string]camunda.JobHandler{
		psr.TaskType: handlers.Parse,
		qp.TaskType:  handlers.Places,
		rs.TaskType:  handlers.Record,
	}

	var workers []*camunda.CamundaWorker
	for _, activity := range reg.Activities {
		handler, ok := jobHandlers[activity.TaskType]
		if !ok {
			zapLog.Warn("registry activity has no handler", zap.String("taskType", activity.TaskType))
			continue
		}
		if w := startWorker(zeebe.GetClient(), activity.TaskType, cfg, handler, obs, zapLog); w != nil {
			workers = append(workers, w)
		}
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	healthSrv := newHealthServer(zeebe, infra)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", healthAddress))
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *camunda.CamundaWorker) {
			defer wg.Done()
			w.Stop(shutdownCtx)
		}(w)
	}
	wg.Wait()

	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Health/Metrics server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, cfg *config.Config, handler camunda.JobHandler, obs *observability.Observability, log *zap.Logger) *camunda.CamundaWorker {
	if !config.IsWorkerEnabled(cfg, taskType) {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	wcfg := config.GetWorkerConfig(cfg, taskType)
	w := camunda.NewWorker(client, taskType, camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
		Observability: obs,
	}, handler, log)
	w.Start()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return w
}

func newHealthServer(zeebe *camunda.Client, infra *app.Infra) *http.Server {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, body interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := http.StatusOK
		_, err := zeebe.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
			return nil, zeebe.HealthCheck(ctx)
		}, "topology")
		checks["zeebe"] = "ok"
		if err != nil {
			checks["zeebe"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		for name, check := range infra.Checks() {
			checks[name] = "ok"
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, status, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              healthAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
