package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/xvierd/runstamp/internal/adapters/command"
	"github.com/xvierd/runstamp/internal/adapters/git"
	"github.com/xvierd/runstamp/internal/adapters/storage"
	"github.com/xvierd/runstamp/internal/config"
	"github.com/xvierd/runstamp/internal/logging"
	"github.com/xvierd/runstamp/internal/ports"
	"github.com/xvierd/runstamp/internal/services"
	"github.com/xvierd/runstamp/internal/vcs"
	"go.uber.org/zap"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config   *config.Config
	logger   *zap.Logger
	registry *vcs.Registry
	resolver ports.ProvenanceResolver
	storage  ports.Storage
	runs     *services.RunService
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
func initializeServices(cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	app.config = cfg

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level)
	if err != nil {
		return err
	}
	app.logger = logger

	if err := initializeResolver(cfg, logger); err != nil {
		return err
	}

	if cmd.Annotations[annotationNoStorage] == "true" {
		return nil
	}

	path := dbPath
	if path == "" {
		path = config.GetDBPath(cfg)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create database directory")
	}

	app.storage, err = storage.New(path)
	if err != nil {
		return errors.Wrap(err, "failed to initialize storage")
	}
	app.runs = services.NewRunService(app.storage, app.resolver, logger.Named("runs"))

	return nil
}

// initializeResolver selects the provenance backend from config.
func initializeResolver(cfg *config.Config, logger *zap.Logger) error {
	switch cfg.VCS.Backend {
	case config.BackendGoGit:
		app.registry = vcs.DefaultRegistry()
		app.resolver = git.NewResolver(logger.Named("go-git"))
		if len(cfg.VCS.Schemes) != 1 || cfg.VCS.Schemes[0] != "git" || len(cfg.VCS.Custom) > 0 {
			logger.Warn("go-git backend only resolves git, configured schemes are ignored",
				zap.Strings("schemes", cfg.VCS.Schemes),
				zap.Int("custom", len(cfg.VCS.Custom)))
		}
	default:
		registry, err := cfg.VCS.Registry()
		if err != nil {
			return errors.Wrap(err, "invalid vcs configuration")
		}
		runner := command.NewRunner(
			command.WithTimeout(cfg.VCS.CommandTimeout),
			command.WithLogger(logger.Named("command")),
		)
		app.registry = registry
		app.resolver = vcs.NewEngine(registry, runner, vcs.WithLogger(logger.Named("vcs")))
	}
	return nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	if app.logger != nil {
		_ = app.logger.Sync()
	}
	if app.storage != nil {
		err := app.storage.Close()
		app.storage = nil
		return err
	}
	return nil
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
