package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grafana/pyroscope-go"

	"github.com/bobmcallan/tradebook/internal/app"
	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to tradebook.toml (default: $TRADEBOOK_CONFIG, then beside the binary)")
	flag.Parse()

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	common.PrintBanner(a.Config, a.Logger)

	stopProfiler := startProfiler(a.Config.Profiling, a.Logger)
	defer stopProfiler()

	srv := server.NewServer(a)

	// Start HTTP server
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)).
		Msg("Server ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.Logger.Info().Msg("Shutdown signal received")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	common.PrintShutdownBanner(a.Logger)
	a.Close()
}

// startProfiler starts continuous profiling when enabled and returns its stop func.
func startProfiler(cfg common.ProfilingConfig, logger *common.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		UploadRate:      cfg.GetUploadRate(),
		Tags: map[string]string{
			"version": common.GetVersion(),
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		logger.Warn().Err(err).Str("server", cfg.ServerAddress).Msg("Profiling disabled")
		return func() {}
	}

	logger.Info().Str("server", cfg.ServerAddress).Msg("Profiling enabled")
	return func() {
		_ = profiler.Stop()
	}
}
