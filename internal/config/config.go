package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the client settings sommelier reads at startup.
type Config struct {
	APIBind string
	// EventID selects the event whose pagella opens after login; zero lets
	// the user pick from the event list.
	EventID      int64
	Editors      []string
	AdminPIN     string
	AdminPINHash string
	DraftPath    string
	LogFile      string
	LogLevel     string

	HeartbeatInterval time.Duration
	PollInterval      time.Duration
	DirectoryInterval time.Duration
}

const (
	defaultConfigPath = "~/.config/sommelier/config.toml"
	defaultDraftPath  = "~/.local/share/sommelier/drafts.toml"
	defaultAPIBind    = "127.0.0.1:8787"
	defaultLogLevel   = "info"

	defaultHeartbeat = 60 * time.Second
	defaultPoll      = 10 * time.Second
	defaultDirectory = 30 * time.Second
)

// DefaultEditors is the allow-list used when the config names none.
var DefaultEditors = []string{"Marco", "Giulia"}

// ErrNoAdminPIN is returned by Validate when neither admin_pin nor
// admin_pin_hash is set.
var ErrNoAdminPIN = errors.New("no admin pin configured")

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:           defaultAPIBind,
		Editors:           append([]string(nil), DefaultEditors...),
		DraftPath:         mustExpand(defaultDraftPath),
		LogLevel:          defaultLogLevel,
		HeartbeatInterval: defaultHeartbeat,
		PollInterval:      defaultPoll,
		DirectoryInterval: defaultDirectory,
	}
}

// Load locates and parses the sommelier config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind          string   `toml:"api_bind"`
		EventID          int64    `toml:"event_id"`
		Editors          []string `toml:"editors"`
		AdminPIN         string   `toml:"admin_pin"`
		AdminPINHash     string   `toml:"admin_pin_hash"`
		DraftPath        string   `toml:"draft_path"`
		LogFile          string   `toml:"log_file"`
		LogLevel         string   `toml:"log_level"`
		HeartbeatSeconds int      `toml:"heartbeat_seconds"`
		PollSeconds      int      `toml:"poll_seconds"`
		DirectorySeconds int      `toml:"directory_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBind); v != "" {
		cfg.APIBind = v
	}
	if raw.EventID > 0 {
		cfg.EventID = raw.EventID
	}
	if editors := cleanNames(raw.Editors); len(editors) > 0 {
		cfg.Editors = editors
	}
	cfg.AdminPIN = strings.TrimSpace(raw.AdminPIN)
	cfg.AdminPINHash = strings.TrimSpace(raw.AdminPINHash)
	if v := strings.TrimSpace(raw.DraftPath); v != "" {
		cfg.DraftPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	cfg.HeartbeatInterval = seconds(raw.HeartbeatSeconds, defaultHeartbeat)
	cfg.PollInterval = seconds(raw.PollSeconds, defaultPoll)
	cfg.DirectoryInterval = seconds(raw.DirectorySeconds, defaultDirectory)

	return cfg, nil
}

// Validate reports configuration the client cannot run with.
func (c Config) Validate() error {
	if c.AdminPIN == "" && c.AdminPINHash == "" {
		return ErrNoAdminPIN
	}
	if c.HeartbeatInterval <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("intervals must be positive")
	}
	return nil
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func seconds(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
