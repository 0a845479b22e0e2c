package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application-level configuration.
type Config struct {
	BridgeURL     string // e.g. "http://localhost:3001/api"
	BackendExec   string // Path to the backend executable; bypasses the bridge when set
	SessionPath   string // File holding the logged-in viewer's user ID
	StatePath     string // YAML file with UI state kept between runs
	PollInterval  time.Duration
	InboxInterval time.Duration
	PageSize      int
	FetchTimeout  time.Duration
	LogFile       string
	LogLevel      string
	MetricsAddr   string
}

// Load reads configuration from environment variables.
//
//	NOVATERM_BRIDGE_URL     bridge endpoint (default: http://localhost:3001/api)
//	NOVATERM_BACKEND_EXEC   backend executable to run directly instead of the bridge
//	NOVATERM_SESSION        session file (default: ~/.config/novaterm/session)
//	NOVATERM_STATE          UI state file (default: ~/.config/novaterm/state.yaml)
//	NOVATERM_POLL_INTERVAL  live refresh period (default: 2s)
//	NOVATERM_INBOX_INTERVAL inbox refresh period (default: 3s)
//	NOVATERM_PAGE_SIZE      records per page (default: 50)
//	NOVATERM_FETCH_TIMEOUT  per-request timeout (default: 5s)
//	NOVATERM_LOG_FILE       log destination; logging is off when empty
//	NOVATERM_LOG_LEVEL      debug, info, warn or error (default: info)
//	NOVATERM_METRICS_ADDR   address for the Prometheus endpoint; off when empty
func Load() (Config, error) {
	bridge := os.Getenv("NOVATERM_BRIDGE_URL")
	if bridge == "" {
		bridge = "http://localhost:3001/api"
	}
	parsed, err := url.Parse(bridge)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Config{}, fmt.Errorf("invalid NOVATERM_BRIDGE_URL: must be an absolute URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Config{}, fmt.Errorf("invalid NOVATERM_BRIDGE_URL: scheme must be http or https")
	}
	bridge = strings.TrimRight(parsed.String(), "/")

	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "novaterm")

	cfg := Config{
		BridgeURL:   bridge,
		BackendExec: strings.TrimSpace(os.Getenv("NOVATERM_BACKEND_EXEC")),
		SessionPath: envOr("NOVATERM_SESSION", filepath.Join(dir, "session")),
		StatePath:   envOr("NOVATERM_STATE", filepath.Join(dir, "state.yaml")),
		LogFile:     os.Getenv("NOVATERM_LOG_FILE"),
		LogLevel:    strings.ToLower(envOr("NOVATERM_LOG_LEVEL", "info")),
		MetricsAddr: os.Getenv("NOVATERM_METRICS_ADDR"),
	}

	if cfg.PollInterval, err = durationEnv("NOVATERM_POLL_INTERVAL", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.InboxInterval, err = durationEnv("NOVATERM_INBOX_INTERVAL", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.FetchTimeout, err = durationEnv("NOVATERM_FETCH_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	cfg.PageSize = 50
	if raw := os.Getenv("NOVATERM_PAGE_SIZE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid NOVATERM_PAGE_SIZE: must be a positive integer")
		}
		cfg.PageSize = n
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("invalid NOVATERM_LOG_LEVEL %q", cfg.LogLevel)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration like 2s", key)
	}
	return d, nil
}

// UIState is what the TUI remembers between runs.
type UIState struct {
	LastConversation string `yaml:"last_conversation,omitempty"`
	ShowTimestamps   bool   `yaml:"show_timestamps,omitempty"`
}

// LoadUIState reads the state file. A missing file yields an empty state.
func LoadUIState(path string) (UIState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return UIState{}, nil
		}
		return UIState{}, fmt.Errorf("reading ui state: %w", err)
	}

	var st UIState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return UIState{}, fmt.Errorf("parsing ui state %s: %w", path, err)
	}
	return st, nil
}

// SaveUIState writes the state file, creating its directory if needed.
func SaveUIState(path string, st UIState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding ui state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing ui state: %w", err)
	}
	return nil
}
