package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const checkTimeout = 5 * time.Second

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the conversion service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := ctx.headless(cmd.Context())
			if err != nil {
				return err
			}
			pingCtx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			start := time.Now()
			if err := env.Client.Ping(pingCtx); err != nil {
				return fmt.Errorf("service %s unreachable: %w", env.Client.BaseURL(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "service %s reachable (%s)\n",
				env.Client.BaseURL(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
