package cli

import (
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connected users and running battles",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Status

			if err := client.Get(cmd.Context(), "/api/v1/status", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
