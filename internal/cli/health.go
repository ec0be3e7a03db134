package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// healthPollInterval is how often --wait retries an unreachable server
const healthPollInterval = 250 * time.Millisecond

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check that the server is up.

With --wait, keep retrying until the server answers or the duration runs out,
which is handy right after starting it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := checkHealth(cmd.Context(), client, wait)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Retry for up to this long until the server is healthy")

	return cmd
}

// checkHealth asks the server for its health, retrying failures until wait
// has passed. A zero wait tries once.
func checkHealth(ctx context.Context, c *Client, wait time.Duration) (HealthResult, error) {
	var result HealthResult
	err := c.Get(ctx, "/api/v1/health", &result)
	if err == nil || wait <= 0 {
		return result, err
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return HealthResult{}, fmt.Errorf("server not healthy after %s: %w", wait, err)
		case <-ticker.C:
			if err = c.Get(ctx, "/api/v1/health", &result); err == nil {
				return result, nil
			}
		}
	}
}
