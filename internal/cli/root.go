package cli

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docext/internal/config"
	"github.com/GriffinCanCode/docext/internal/infrastructure/logging"
	"github.com/GriffinCanCode/docext/internal/infrastructure/server"
)

var version = "dev"

// options are the persistent flags shared by every subcommand
type options struct {
	catalog string
	verbose bool
}

// NewRootCommand builds the libctl command tree writing to out
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "libctl",
		Short: "Inspect and load document snippet libraries",
		Long: `libctl inspects the library catalog used by the docext server and
exercises the same fetch-and-install pipeline from the command line.

The catalog defaults to the built-in set (react, reactDOM, materialUI)
overlaid with any YAML/TOML files matching --catalog or LIBRARY_CATALOG.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&opts.catalog, "catalog", "",
		"glob of YAML/TOML catalog files (default: $LIBRARY_CATALOG)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"log fetch and install progress to stderr")

	root.AddCommand(
		newListCommand(opts),
		newDescribeCommand(opts),
		newLoadCommand(opts),
		newRunCommand(opts),
	)
	return root
}

// config returns environment configuration with flag overrides applied
func (o *options) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("catalog") {
		cfg.Loader.Catalog = o.catalog
	}
	return cfg, nil
}

func (o *options) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	return logging.NewDevelopment().Logger
}

// stack builds the loading pipeline for commands that fetch
func (o *options) stack(cmd *cobra.Command) (*server.Stack, error) {
	cfg, err := o.config(cmd)
	if err != nil {
		return nil, err
	}
	return server.NewStack(cfg, o.logger(), nil)
}
