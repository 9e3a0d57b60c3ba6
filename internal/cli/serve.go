package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasetower/internal/metrics"
	"github.com/matzehuels/releasetower/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lookups over HTTP",
		Long: `Serve release lookups, digests and the datasource list over HTTP.

Endpoints:
  GET /api/v1/datasources
  GET /api/v1/releases/{datasource}?package=...
  GET /api/v1/digest/{datasource}?package=...&value=...
  GET /healthz
  GET /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			var opts server.Options
			opts.Logger = c.Logger
			if !noMetrics {
				collector := metrics.New()
				collector.Install()
				opts.Metrics = collector.Handler()
			}

			ctx := cmd.Context()
			eng, err := c.engineFor(ctx, cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			c.Logger.Info("Starting server",
				"datasources", len(eng.service.GetDatasourceList()),
				"cache", cfg.Cache.Backend,
				"tracing", eng.tracing.Enabled())
			return server.New(eng.service, opts).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")
	return cmd
}
