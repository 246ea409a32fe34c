package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errScript marks a snippet that ran but threw
var errScript = errors.New("snippet failed")

func newRunCommand(opts *options) *cobra.Command {
	var requires []string

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a snippet against freshly loaded libraries",
		Long: `Load the required libraries, then evaluate script and print its value
and console output.

Examples:
  libctl run -r react 'React.version'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := opts.stack(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			if err := stack.Coordinator.EnsureAll(cmd.Context(), requires...); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result, runErr := stack.Namespace.Run(cmd.Context(), args[0])
			if result != nil {
				for _, entry := range result.Console {
					fmt.Fprintf(out, "[%s] %s\n", entry.Level, entry.Message)
				}
			}
			if runErr != nil {
				return fmt.Errorf("%w: %v", errScript, runErr)
			}
			if raw, ok := result.Value.(json.RawMessage); ok {
				fmt.Fprintf(out, "%s\n", raw)
				return nil
			}
			fmt.Fprintf(out, "%v\n", result.Value)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&requires, "require", "r", nil, "library to load before running (repeatable)")
	return cmd
}
