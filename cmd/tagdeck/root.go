package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/five82/tagdeck/internal/app"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var verboseFlag bool

	ctx := newCommandContext(&configFlag, &logLevelFlag, &verboseFlag)

	rootCmd := &cobra.Command{
		Use:   "tagdeck [link]",
		Short: "Turn a video link into a tagged MP3",
		Long: "tagdeck sends a video link to the conversion service, lets you edit the\n" +
			"title, artist, album and cover, and saves the tagged MP3.\n\n" +
			"Without a subcommand it starts the interactive editor; a link argument\n" +
			"is extracted right away.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdout) || !isTerminal(os.Stdin) {
				return errors.New("interactive mode needs a terminal; use `tagdeck fetch <link>` in scripts")
			}
			opts := ctx.options()
			if len(args) == 1 {
				opts.Link = args[0]
			}
			return app.Run(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Also write logs to stderr (non-interactive commands)")

	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))

	return rootCmd
}
