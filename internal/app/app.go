package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/sommelier/internal/api"
	"github.com/five82/sommelier/internal/config"
	"github.com/five82/sommelier/internal/draft"
	"github.com/five82/sommelier/internal/gate"
	"github.com/five82/sommelier/internal/prefs"
	"github.com/five82/sommelier/internal/state"
	"github.com/five82/sommelier/internal/ui"
)

// Options configure the sommelier application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/sommelier/prefs.toml
	PollEvery  int    // seconds between pagella polls; zero uses config
}

// Run boots the sommelier TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn("preferences unreadable, using defaults", "path", prefsPath, "error", err)
	}
	if userPrefs.EnsureDeviceID() {
		if err := prefs.Save(prefsPath, userPrefs); err != nil {
			logger.Warn("could not persist device id", "path", prefsPath, "error", err)
		}
	}

	verifier, err := gate.NewVerifier(cfg.AdminPIN, cfg.AdminPINHash)
	if err != nil {
		return fmt.Errorf("admin pin: %w", err)
	}

	client, err := api.NewClient(cfg.APIBind, userPrefs.DeviceID)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	store := &state.Store{}
	if cfg.EventID > 0 {
		store.SetActiveEvent(cfg.EventID)
	}

	poller := StartPoller(ctx, store, client, cfg.DirectoryInterval, logger.With("component", "directory"))

	logger.Info("sommelier starting",
		"api", cfg.APIBind,
		"device_id", userPrefs.DeviceID,
		"unique_session", userPrefs.UniqueSession,
	)

	uiOpts := ui.Options{
		Context:   ctx,
		Client:    client,
		Store:     store,
		Refresh:   poller.Trigger,
		Config:    &cfg,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		Drafts:    draft.NewFileStore(cfg.DraftPath),
		Verifier:  verifier,
		Logger:    logger,
	}
	return ui.Run(uiOpts)
}

// newLogger opens the log file. The terminal belongs to the UI, so an empty
// path discards log output.
func newLogger(path, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
	return logger, func() { _ = f.Close() }, nil
}
