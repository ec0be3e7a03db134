package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently finished battles",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/battles/history"
			if limit > 0 {
				path += fmt.Sprintf("?limit=%d", limit)
			}

			var result History

			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum battles to list (default: server default)")

	cmd.AddCommand(newHistoryGetCmd())

	return cmd
}

func newHistoryGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <battle-id>",
		Short: "Show a finished battle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BattleSummary

			if err := client.Get(cmd.Context(), "/api/v1/battles/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
