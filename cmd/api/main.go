package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"remittance-service/internal/bootstrap"
	infraconfig "remittance-service/internal/infrastructure/config"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	cfg := bootstrap.ProvideConfig()
	logger := bootstrap.ProvideLogger(cfg)
	defer func() { _ = logger.Sync() }()
	port := cfg.Port
	if port == "" {
		port = infraconfig.DefaultHTTPPort
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.InitAPI(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("bootstrap api", zap.Error(err))
	}
	defer app.Close()

	bgCtx, bgCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, run := range app.Background {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(bgCtx)
		}(run)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           app.Handler,
		ReadHeaderTimeout: infraconfig.DefaultReadHeaderTimeout,
	}

	go func() {
		logger.Info("server started",
			zap.String("addr", addr),
			zap.String("env", cfg.Env),
			zap.String("storage", cfg.Storage),
			zap.String("provider", cfg.Provider),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = infraconfig.DefaultShutdownTimeout
	}
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), timeout)
	defer shCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	// stop workers after in-flight requests have queued their events
	bgCancel()
	wg.Wait()
	logger.Info("server stopped")
}
