package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/tagdeck/internal/config"
	"github.com/five82/tagdeck/internal/logtail"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var session string
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the tagdeck log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(ctx.options().ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if strings.TrimSpace(cfg.LogFile) == "" {
				return fmt.Errorf("log_file is not configured")
			}
			out, err := logtail.Read(cfg.LogFile, lines, logtail.All(
				logtail.Session(session),
				logtail.Level(level),
			))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(out) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no matching lines in %s\n", cfg.LogFile)
				return nil
			}
			for _, line := range out {
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&session, "session", "", "Only show lines for this session id")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show (info, warn, error)")
	return cmd
}
