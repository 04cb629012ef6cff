// Package app wires configuration, logging, storage and services into one
// App shared by cmd/tradebook-server and cmd/tradebook-admin.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/tradebook/internal/common"
	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/services/position"
	"github.com/bobmcallan/tradebook/internal/storage"
)

// App holds all initialized services and storage.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Storage         interfaces.StorageManager
	PositionService interfaces.PositionService
	StartupTime     time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, then
// TRADEBOOK_CONFIG, then tradebook.toml beside the binary, then
// config/tradebook.toml for development.
func ResolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("TRADEBOOK_CONFIG"); env != "" {
		return env
	}
	configPath = filepath.Join(getBinaryDir(), "tradebook.toml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "config/tradebook.toml" // fallback for development
	}
	return configPath
}

// NewApp loads configuration and initializes logging, storage and services.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	binDir := getBinaryDir()

	// Resolve relative paths to the binary directory
	if config.Storage.Badger.Path != "" && !filepath.IsAbs(config.Storage.Badger.Path) {
		config.Storage.Badger.Path = filepath.Join(binDir, config.Storage.Badger.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	a, err := NewAppWithConfig(config, logger)
	if err != nil {
		logger.Close()
		return nil, err
	}
	return a, nil
}

// NewAppWithConfig initializes storage and services from a loaded config.
// The App takes ownership of logger and closes it in Close.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	policy, err := position.ParseOverdraftPolicy(config.Positions.OverdraftPolicy)
	if err != nil {
		return nil, err
	}

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &App{
		Config:          config,
		Logger:          logger,
		Storage:         storageManager,
		PositionService: position.NewService(storageManager, logger, policy),
		StartupTime:     startupStart,
	}

	logger.Info().
		Str("backend", storageManager.Backend()).
		Str("overdraft_policy", string(policy)).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
	if err := a.Logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
}
