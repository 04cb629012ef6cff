package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config, logger *Logger) {
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
	storage := StorageDescription(config.Storage)

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 64) + banner.ColorReset

	art := []string{
		` _____              _      _                 _`,
		`|_   _| __ __ _  __| | ___| |__   ___   ___ | | __`,
		`  | || '__/ _' |/ _' |/ _ \ '_ \ / _ \ / _ \| |/ /`,
		`  | || | | (_| | (_| |  __/ |_) | (_) | (_) |   <`,
		`  |_||_|  \__,_|\__,_|\___|_.__/ \___/ \___/|_|\_\`,
	}

	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s  Position Reconciliation%s\n\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	kvLines := [][2]string{
		{"Version", Version},
		{"Build", Build},
		{"Commit", GitCommit},
		{"Environment", config.Environment},
		{"Service URL", serviceURL},
		{"Storage", storage},
		{"Overdraft", config.Positions.OverdraftPolicy},
		{"Currency", config.DisplayCurrency},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)

	logger.Info().
		Str("version", Version).
		Str("build", Build).
		Str("commit", GitCommit).
		Str("environment", config.Environment).
		Str("service_url", serviceURL).
		Str("storage", storage).
		Str("overdraft_policy", config.Positions.OverdraftPolicy).
		Msg("Application started")
}

// StorageDescription renders the active backend and its location, without credentials.
func StorageDescription(cfg StorageConfig) string {
	switch cfg.Backend {
	case BackendBadger:
		return "badger " + cfg.Badger.Path
	case BackendSurrealDB:
		return fmt.Sprintf("surrealdb %s (%s/%s)", cfg.SurrealDB.Address, cfg.SurrealDB.Namespace, cfg.SurrealDB.Database)
	case BackendPostgres:
		if cfg.Postgres.DSN != "" {
			return "postgres (dsn)"
		}
		return fmt.Sprintf("postgres %s:%d/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database)
	default:
		return cfg.Backend
	}
}

// PrintShutdownBanner displays the application shutdown banner to stderr.
func PrintShutdownBanner(logger *Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 40) + banner.ColorReset
	fmt.Fprintf(os.Stderr, "\n%s\n%s  TRADEBOOK SHUTTING DOWN%s\n%s\n\n", hr, banner.ColorBold+banner.ColorWhite, banner.ColorReset, hr)

	logger.Info().Msg("Application shutting down")
}
