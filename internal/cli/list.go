package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/docext/internal/domain/registry"
)

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List libraries in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			reg, err := registry.Build(cfg.Loader.Catalog)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tGLOBAL\tREQUIRES\tSOURCE")
			for _, d := range reg.List() {
				requires := "-"
				if len(d.Requires) > 0 {
					requires = strings.Join(d.Requires, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Version, d.GlobalName(), requires, d.Source)
			}
			return w.Flush()
		},
	}
}
