package main

import (
	"context"
	"strings"

	"github.com/five82/tagdeck/internal/app"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	verboseFlag  *bool
}

func newCommandContext(configFlag, logLevelFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		verboseFlag:  verboseFlag,
	}
}

func (c *commandContext) options() app.Options {
	var opts app.Options
	if c.configFlag != nil {
		opts.ConfigPath = strings.TrimSpace(*c.configFlag)
	}
	if c.logLevelFlag != nil {
		opts.LogLevel = strings.TrimSpace(*c.logLevelFlag)
	}
	return opts
}

// headless wires the services for a non-interactive command. Logs go to the
// configured file and, with --verbose, to stderr.
func (c *commandContext) headless(ctx context.Context) (*app.Env, error) {
	opts := c.options()
	if c.verboseFlag != nil && *c.verboseFlag {
		opts.LogOutputs = []string{"stderr"}
	}
	return app.Setup(ctx, opts)
}
