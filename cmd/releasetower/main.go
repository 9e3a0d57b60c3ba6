package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releasetower/internal/cli"
	rterrors "github.com/matzehuels/releasetower/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, "Error:", rterrors.UserMessage(err))
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

// exitCode maps not-found lookups to 3 and invalid input to 2.
func exitCode(err error) int {
	switch rterrors.GetCode(err) {
	case rterrors.ErrCodePackageNotFound, rterrors.ErrCodeNotFound:
		return 3
	case rterrors.ErrCodeInvalidInput, rterrors.ErrCodeInvalidPackage, rterrors.ErrCodeInvalidFormat,
		rterrors.ErrCodeInvalidVersioning, rterrors.ErrCodeInvalidStrategy,
		rterrors.ErrCodeDatasourceNotFound:
		return 2
	}
	return 1
}
