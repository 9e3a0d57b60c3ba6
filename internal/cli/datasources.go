package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/releasetower/pkg/datasource"
)

// datasourcesCommand creates the datasources command.
func (c *CLI) datasourcesCommand() *cobra.Command {
	output := FormatTable

	cmd := &cobra.Command{
		Use:     "datasources",
		Aliases: []string{"ls"},
		Short:   "List the available datasources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}
			eng, err := c.newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			all := eng.service.GetDatasources()
			infos := make([]datasource.Info, 0, len(all))
			for _, id := range eng.service.GetDatasourceList() {
				infos = append(infos, all[id].Info())
			}

			out := cmd.OutOrStdout()
			if output != FormatTable {
				return encode(out, output, infos)
			}
			fmt.Fprintln(out, datasourceTable(infos).Render())
			printDetail(out, "%d datasources", len(infos))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", output, "output format: table, json or yaml")
	return cmd
}
