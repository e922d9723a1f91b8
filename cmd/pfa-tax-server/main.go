package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iwvelando/pfa-tax-calculator/internal/config"
	"github.com/iwvelando/pfa-tax-calculator/internal/logging"
	"github.com/iwvelando/pfa-tax-calculator/internal/rates"
	"github.com/iwvelando/pfa-tax-calculator/internal/server"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	configLocation := flag.String("config", "", "path to configuration file (defaults and environment only when empty)")
	addressFlag := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if addr := strings.TrimSpace(*addressFlag); addr != "" {
		conf.Server.Address = addr
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache := rates.NewCache(conf.ExchangeRates.Cache)
	if redisCache, ok := cache.(*rates.RedisCache); ok {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.Warn("exchange rate cache unreachable",
				zap.String("op", "main"),
				zap.String("address", conf.ExchangeRates.Cache.RedisAddress),
				zap.Error(err),
			)
		}
		cancel()
	}
	defer func() {
		if closer, ok := cache.(io.Closer); ok {
			_ = closer.Close()
		}
	}()

	refresher := rates.NewRefresher(rates.NewSource(conf, logger), cache, conf.TaxConfiguration().ReloadInterval(), logger)
	refresher.Start(ctx)
	defer refresher.Stop()

	handler, err := server.NewHandler(logger, conf, refresher, server.OptionsFromConfig(conf.Server, version))
	if err != nil {
		logger.Fatal("failed to build HTTP handler",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	srv := &http.Server{
		Addr:         conf.Server.Address,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main"),
			zap.String("address", srv.Addr),
			zap.String("basePath", conf.Server.BasePath),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Error("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	case <-ctx.Done():
		logger.Info("shutting down server",
			zap.String("op", "main"),
		)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
