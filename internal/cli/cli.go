// Package cli implements the releasetower command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasetower/internal/config"
	"github.com/matzehuels/releasetower/internal/tracing"
	"github.com/matzehuels/releasetower/pkg/buildinfo"
	"github.com/matzehuels/releasetower/pkg/cache"
	"github.com/matzehuels/releasetower/pkg/datasource"
	"github.com/matzehuels/releasetower/pkg/datasource/builtin"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Registry replaces the built-in datasources when set.
	Registry *datasource.Registry

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "releasetower",
		Short:        "Releasetower looks up package releases across registries",
		Long:         `Releasetower resolves the published releases and digests of packages from npm, PyPI, Go modules, crates.io, RubyGems, Maven, Packagist, GitHub and GitLab, merging and normalizing what each registry reports.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default .releasetower.yaml or ~/.config/releasetower/config.yaml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the response and release caches")

	root.AddCommand(c.lookupCommand())
	root.AddCommand(c.digestCommand())
	root.AddCommand(c.datasourcesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Engine Factory
// =============================================================================

// engine is a release service together with the resources it holds.
type engine struct {
	cfg     config.Config
	service *datasource.Service
	backend cache.Cache
	tracing *tracing.Provider
}

func (e *engine) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(e.tracing.Shutdown(ctx), e.backend.Close())
}

// loadConfig reads the configuration selected by --config.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, used, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if used != "" {
		c.Logger.Debug("Loaded config", "file", used)
	}
	if c.noCache {
		cfg.Cache.Backend = config.BackendNone
	}
	return cfg, nil
}

// newEngine wires the configured cache backend, the datasources and the
// release service. The caller closes the returned engine.
func (c *CLI) newEngine(ctx context.Context) (*engine, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return c.engineFor(ctx, cfg)
}

func (c *CLI) engineFor(ctx context.Context, cfg config.Config) (*engine, error) {
	logger := loggerFromContext(ctx)
	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, err
	}

	backend, err := cfg.Cache.OpenCache(ctx)
	if err != nil {
		logger.Warn("Cache unavailable, continuing without it", "backend", cfg.Cache.Backend, "err", err)
		backend = cache.NewNullCache()
	}

	registry := c.Registry
	if registry == nil {
		registry = builtin.NewRegistry(cfg.Integrations(backend))
	}

	var packages datasource.PackageCache
	if cfg.Cache.Backend != config.BackendNone {
		packages = cache.NewPackages(backend, cfg.Cache.Keyer())
	}

	svc := datasource.New(datasource.Options{
		Registry: registry,
		Cache:    packages,
		Config:   cfg.Engine(),
		Logger:   logger,
	})
	return &engine{cfg: cfg, service: svc, backend: backend, tracing: tp}, nil
}

// stdinIsTerminal reports whether stdin is attached to a terminal.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
