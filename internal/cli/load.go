package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLoadCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "load <id>...",
		Short: "Fetch and install libraries into a scratch namespace",
		Long: `Fetch and install each library through the same pipeline the server
uses, reporting the outcome per library. Useful for checking that a
catalog entry resolves and evaluates before deploying it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := opts.stack(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			out := cmd.OutOrStdout()
			failed := 0
			for _, id := range args {
				start := time.Now()
				if err := stack.Coordinator.EnsureLoaded(cmd.Context(), id); err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", id, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s (%s)\n", id, time.Since(start).Round(time.Millisecond))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d libraries failed to load", failed, len(args))
			}
			return nil
		},
	}
}
