package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/footctl/internal/config"
	"github.com/five82/footctl/internal/device"
	"github.com/five82/footctl/internal/editor"
	"github.com/five82/footctl/internal/logging"
	"github.com/five82/footctl/internal/prefs"
	"github.com/five82/footctl/internal/state"
	"github.com/five82/footctl/internal/ui"
)

// Options configure the footctl application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/footctl/prefs.toml
	Device     string        // overrides the configured device address
	PollEvery  time.Duration // zero uses the configured live poll interval
}

// closeTimeout bounds the final flush of pending edits on exit.
const closeTimeout = 5 * time.Second

// Run boots the editor TUI until the user quits or the context is cancelled.
// Pending edits are flushed to the device before it returns.
func Run(ctx context.Context, opts Options) (err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Device != "" {
		cfg.Device = opts.Device
	}
	if opts.PollEvery > 0 {
		cfg.LivePoll = opts.PollEvery
	}

	logger, closeLog, err := logging.New(logging.Options{
		Service: "footctl",
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("load preferences failed; using defaults", "error", err)
	}

	client, err := device.NewClient(cfg.Device, device.Options{
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("init device client: %w", err)
	}
	logger.Info("starting editor", "device", cfg.Device, "poll", cfg.LivePoll)

	store := &state.Store{}
	session := editor.New(ctx, client, store, editor.Options{
		LEDDebounce:  cfg.LEDDebounce,
		NavGrace:     cfg.NavGrace,
		FallbackBank: userPrefs.LastBank,
		Logger:       logger,
	})
	defer func() {
		// ctx may already be cancelled; the final flush saves under its own deadline.
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := session.Close(closeCtx); cerr != nil {
			logger.Error("flush on exit failed", "error", cerr)
			if err == nil {
				err = fmt.Errorf("save pending edits: %w", cerr)
			}
		}
	}()

	StartPoller(ctx, session, cfg.LivePoll, logger)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Session:   session,
		Config:    &cfg,
		Logger:    logger,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	})
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	return err
}
