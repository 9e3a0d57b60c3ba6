package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releasetower/pkg/datasource"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
)

type digestOpts struct {
	registryURLs        []string
	defaultRegistryURLs []string
	replacementName     string
	currentValue        string
	currentDigest       string
}

// digestCommand creates the digest command.
func (c *CLI) digestCommand() *cobra.Command {
	var opts digestOpts

	cmd := &cobra.Command{
		Use:   "digest <datasource> <package> [value]",
		Short: "Resolve the digest of a package version",
		Long: `Resolve the digest of a package version, such as the commit of a
git tag or the checksum of a published archive.

Without a value the digest of --current-value is resolved; with neither,
the datasource decides (usually the latest commit of the default branch).`,
		Example: `  releasetower digest github-tags spf13/cobra v1.8.0
  releasetower digest npm left-pad 1.3.0`,
		Args: cobra.RangeArgs(2, 3),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return c.datasourceIDs(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var value string
			if len(args) == 3 {
				value = args[2]
			}
			return c.runDigest(cmd, args[0], args[1], value, opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.registryURLs, "registry-url", nil, "registry to query (repeatable, first wins)")
	f.StringArrayVar(&opts.defaultRegistryURLs, "default-registry-url", nil, "registry used when no --registry-url is given (repeatable)")
	f.StringVar(&opts.replacementName, "replacement-name", "", "resolve the digest of this package instead")
	f.StringVar(&opts.currentValue, "current-value", "", "version currently in use")
	f.StringVar(&opts.currentDigest, "current-digest", "", "digest currently in use")

	return cmd
}

func (c *CLI) runDigest(cmd *cobra.Command, id, pkg, value string, opts digestOpts) error {
	ctx := cmd.Context()
	eng, err := c.newEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	if _, ok := eng.service.Registry().Get(id); !ok {
		return rterrors.New(rterrors.ErrCodeDatasourceNotFound, "unknown datasource %q (see 'releasetower datasources')", id)
	}
	if !eng.service.SupportsDigests(id) {
		return rterrors.New(rterrors.ErrCodeCapabilityMissing, "datasource %s does not support digests", id)
	}

	prog := newProgress(loggerFromContext(ctx))
	digest, err := eng.service.GetDigest(ctx, datasource.DigestRequest{
		Datasource:          id,
		PackageName:         pkg,
		RegistryURLs:        opts.registryURLs,
		DefaultRegistryURLs: opts.defaultRegistryURLs,
		ReplacementName:     opts.replacementName,
		CurrentValue:        opts.currentValue,
		CurrentDigest:       opts.currentDigest,
	}, value)
	if err != nil {
		return err
	}
	prog.done("Resolved digest", "datasource", id, "package", pkg)

	if digest == "" {
		return rterrors.New(rterrors.ErrCodeNotFound, "no digest found for %s", pkg)
	}
	fmt.Fprintln(cmd.OutOrStdout(), digest)
	return nil
}
