package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/five82/tagdeck/internal/artifact"
	"github.com/five82/tagdeck/internal/backend"
	"github.com/five82/tagdeck/internal/config"
	"github.com/five82/tagdeck/internal/logging"
	"github.com/five82/tagdeck/internal/prefs"
	"github.com/five82/tagdeck/internal/state"
	"github.com/five82/tagdeck/internal/ui"
	"github.com/five82/tagdeck/internal/workflow"
)

// Options configure a tagdeck run.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/tagdeck/prefs.toml
	LogLevel   string // overrides the configured level when set
	// LogOutputs are extra log destinations ("stderr", "stdout" or a path)
	// written alongside the configured log file.
	LogOutputs []string
	// Serve starts the artifact link listener when the config enables it.
	Serve     bool
	PollEvery time.Duration // zero uses default
	Link      string        // pre-filled and submitted by the TUI
}

// Env is the wired set of services shared by the TUI and headless commands.
type Env struct {
	Config    config.Config
	Logger    *slog.Logger
	Client    *backend.Client
	Artifacts *artifact.Registry
	Workflow  *workflow.Workflow
}

// Setup loads configuration and connects the backend client, artifact
// registry and workflow. The link listener, when started, stops with ctx.
func Setup(ctx context.Context, opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.LogLevel = level
	}

	logger, err := logging.NewFromConfig(cfg, opts.LogOutputs...)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := backend.NewClient(cfg.APIURL,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	registry := artifact.NewRegistry(logger)
	if opts.Serve && cfg.ServeEnabled() {
		addr, err := registry.Listen(ctx, cfg.ServeBind)
		if err != nil {
			// Links are optional; saving to disk still works.
			logger.Warn("artifact link server unavailable",
				slog.String("bind", cfg.ServeBind),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("artifact link server listening", slog.String("addr", addr))
		}
	}

	wf, err := workflow.New(workflow.Options{
		Backend:   client,
		Artifacts: registry,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init workflow: %w", err)
	}

	logger.Info("tagdeck ready",
		slog.String("api_url", client.BaseURL()),
		slog.String("log_level", cfg.LogLevel),
	)
	return &Env{
		Config:    cfg,
		Logger:    logger,
		Client:    client,
		Artifacts: registry,
		Workflow:  wf,
	}, nil
}

// Run boots the tagdeck TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.Serve = true
	env, err := Setup(ctx, opts)
	if err != nil {
		return err
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		env.Logger.Warn("load prefs failed", slog.String("error", err.Error()))
	}

	health := &state.Store{}
	StartPoller(ctx, health, env.Client, opts.PollEvery, env.Logger)

	return ui.Run(ui.Options{
		Context:   ctx,
		Workflow:  env.Workflow,
		Health:    health,
		Config:    env.Config,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Link:      opts.Link,
		Logger:    env.Logger,
	})
}
