package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/releasetower/pkg/datasource"
	"github.com/matzehuels/releasetower/pkg/datasource/builtin"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

type lookupOpts struct {
	registryURLs         []string
	defaultRegistryURLs  []string
	strategy             string
	extractVersion       string
	versioning           string
	constraints          []string
	constraintsFiltering string
	replacementName      string
	replacementVersion   string
	output               string
	interactive          bool
}

// lookupCommand creates the lookup command.
func (c *CLI) lookupCommand() *cobra.Command {
	opts := lookupOpts{output: FormatTable}

	cmd := &cobra.Command{
		Use:   "lookup <datasource> <package>",
		Short: "Look up the releases of a package",
		Long: `Look up the releases of a package from one or more registries.

The datasource decides the default registries, versioning and strategy;
flags override them per lookup.`,
		Example: `  releasetower lookup npm left-pad
  releasetower lookup pypi requests --constraint python=3.8.0 --constraints-filtering strict
  releasetower lookup maven org.slf4j:slf4j-api --registry-url https://repo.example.com/maven2 --strategy merge
  releasetower lookup go github.com/spf13/cobra -o json`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return c.datasourceIDs(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLookup(cmd, args[0], args[1], opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.registryURLs, "registry-url", nil, "registry to query (repeatable)")
	f.StringArrayVar(&opts.defaultRegistryURLs, "default-registry-url", nil, "registry used when no --registry-url is given (repeatable)")
	f.StringVar(&opts.strategy, "strategy", "", "registry strategy: first, hunt or merge")
	f.StringVar(&opts.extractVersion, "extract-version", "", "regex with a named 'version' group applied to each release")
	f.StringVar(&opts.versioning, "versioning", "", "versioning scheme (default: datasource default)")
	f.StringArrayVar(&opts.constraints, "constraint", nil, "compatibility constraint as name=version (repeatable)")
	f.StringVar(&opts.constraintsFiltering, "constraints-filtering", "", "drop releases incompatible with --constraint: none or strict")
	f.StringVar(&opts.replacementName, "replacement-name", "", "name of the package that replaces this one")
	f.StringVar(&opts.replacementVersion, "replacement-version", "", "version of the replacement package")
	f.StringVarP(&opts.output, "output", "o", opts.output, "output format: table, json or yaml")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "browse releases interactively")

	_ = cmd.RegisterFlagCompletionFunc("strategy", cobra.FixedCompletions(
		[]string{string(datasource.StrategyFirst), string(datasource.StrategyHunt), string(datasource.StrategyMerge)},
		cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(formats, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runLookup(cmd *cobra.Command, id, pkg string, opts lookupOpts) error {
	if err := validateFormat(opts.output); err != nil {
		return err
	}
	req, err := opts.request(id, pkg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	eng, err := c.newEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	if _, ok := eng.service.Registry().Get(id); !ok {
		return rterrors.New(rterrors.ErrCodeDatasourceNotFound, "unknown datasource %q (see 'releasetower datasources')", id)
	}

	out := cmd.OutOrStdout()
	prog := newProgress(loggerFromContext(ctx))

	var spinner *Spinner
	if opts.output == FormatTable && !opts.interactive {
		spinner = newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Looking up %s in %s...", pkg, id))
		spinner.Start()
	}
	res, err := eng.service.GetPkgReleases(ctx, req)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done("Resolved releases", "datasource", id, "package", pkg)

	if res == nil {
		if opts.output == FormatTable {
			printWarning(out, "No releases found for %s", pkg)
			printDetail(out, "Check the package name and registry, or rerun with --verbose")
		}
		return rterrors.New(rterrors.ErrCodePackageNotFound, "no releases found for %s in %s", pkg, id)
	}

	if opts.interactive {
		return c.browseReleases(cmd, pkg, res)
	}
	if opts.output == FormatTable {
		printResult(out, pkg, res)
		return nil
	}
	return encode(out, opts.output, res)
}

// request converts the flag values into a lookup request.
func (o lookupOpts) request(id, pkg string) (datasource.LookupRequest, error) {
	req := datasource.LookupRequest{
		Datasource:          id,
		PackageName:         pkg,
		RegistryURLs:        o.registryURLs,
		DefaultRegistryURLs: o.defaultRegistryURLs,
		ExtractVersion:      o.extractVersion,
		Versioning:          o.versioning,
		ReplacementName:     o.replacementName,
		ReplacementVersion:  o.replacementVersion,
	}

	if err := rterrors.ValidatePackageName(pkg); err != nil {
		return req, err
	}
	for _, u := range append(append([]string{}, o.registryURLs...), o.defaultRegistryURLs...) {
		if err := rterrors.ValidateURL(u); err != nil {
			return req, rterrors.New(rterrors.ErrCodeInvalidInput, "invalid --registry-url %q: must use http or https", u)
		}
	}

	var err error
	if req.RegistryStrategy, err = datasource.ParseStrategy(o.strategy); err != nil {
		return req, err
	}
	if req.ConstraintsFiltering, err = datasource.ParseConstraintsFiltering(o.constraintsFiltering); err != nil {
		return req, err
	}
	if req.Constraints, err = parseConstraints(o.constraints); err != nil {
		return req, err
	}
	return req, nil
}

// parseConstraints parses "name=version" pairs.
func parseConstraints(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			return nil, rterrors.New(rterrors.ErrCodeInvalidInput, "invalid constraint %q (expected name=version)", p)
		}
		out[name] = value
	}
	return out, nil
}

// browseReleases runs the release picker and prints the chosen release.
func (c *CLI) browseReleases(cmd *cobra.Command, pkg string, res *datasource.ReleaseResult) error {
	if !stdinIsTerminal() {
		return fmt.Errorf("--interactive requires a terminal")
	}
	final, err := tea.NewProgram(NewReleaseListModel(pkg, res.Releases), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return fmt.Errorf("release picker: %w", err)
	}
	m, ok := final.(ReleaseListModel)
	if !ok || m.Selected == nil {
		return nil
	}
	out := cmd.OutOrStdout()
	printSuccess(out, "%s@%s", pkg, m.Selected.Version)
	printReleaseDetail(out, *m.Selected)
	return nil
}

// datasourceIDs lists the built-in datasources for shell completion.
func (c *CLI) datasourceIDs() []string {
	if c.Registry != nil {
		return c.Registry.List()
	}
	return builtin.NewRegistry(integrations.Options{}).List()
}
