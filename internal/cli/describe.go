package cli

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/docext/internal/domain/loader"
	"github.com/GriffinCanCode/docext/internal/domain/registry"
)

func newDescribeCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe <id>",
		Short: "Show one library descriptor",
		Long: `Show one library descriptor in catalog form.

Examples:
  libctl describe react
  libctl describe materialUI -o json
  libctl describe react -o toml >> catalog.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			reg, err := registry.Build(cfg.Loader.Catalog)
			if err != nil {
				return err
			}

			desc, ok := reg.Describe(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", loader.ErrNotFound, args[0])
			}

			data, err := encode(desc, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml, json or toml")
	return cmd
}

func encode(desc registry.Descriptor, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(desc)
	case "json":
		data, err := sonic.MarshalIndent(desc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "toml":
		// wrapped so the output appends to a catalog file as-is
		return toml.Marshal(map[string][]registry.Descriptor{"libraries": {desc}})
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
