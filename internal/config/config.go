package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sheet-dash/internal/app"
	"sheet-dash/internal/dataset"
)

const CurrentVersion = 1

// Environment variables that override the config file.
const (
	EnvBackendURL  = "SHEET_DASH_BACKEND_URL"
	EnvDatabaseURL = "DATABASE_URL"
	EnvDownloadDir = "SHEET_DASH_DOWNLOAD_DIR"
	EnvLogFile     = "SHEET_DASH_LOG_FILE"
	EnvTimeout     = "SHEET_DASH_REQUEST_TIMEOUT_SECONDS"
)

type Config struct {
	Version        int            `json:"version"`
	Backend        BackendConfig  `json:"backend"`
	Database       DatabaseConfig `json:"database"`
	Sheets         []SheetConfig  `json:"sheets"`
	PageSize       int            `json:"page_size"`
	MaxPageButtons int            `json:"max_page_buttons"`
	DownloadDir    string         `json:"download_dir"`
	Log            LogConfig      `json:"log"`
	Theme          ThemeConfig    `json:"theme"`
}

type BackendConfig struct {
	BaseURL string `json:"base_url"`
	// RequestTimeoutSeconds of 0 disables the client timeout.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

type DatabaseConfig struct {
	URL       string `json:"url"`
	BaseTable string `json:"base_table"`
}

type SheetConfig struct {
	Key         string `json:"key"`
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name"`
}

type LogConfig struct {
	File string `json:"file"`
}

type ThemeConfig struct {
	Active string `json:"active"`
}

func Default() Config {
	return Config{
		Version: CurrentVersion,
		Backend: BackendConfig{BaseURL: "http://localhost:5000"},
		Database: DatabaseConfig{
			BaseTable: "clients_2025",
		},
		Sheets:         DefaultSheets(),
		PageSize:       100,
		MaxPageButtons: 5,
		Theme:          ThemeConfig{Active: "default"},
	}
}

func DefaultSheets() []SheetConfig {
	return []SheetConfig{
		{Key: "sheet1", Identifier: "jan", DisplayName: "01_jan (January Data)"},
		{Key: "sheet2", Identifier: "apr", DisplayName: "04_apr (April Data)"},
	}
}

func EnsureDefaults(cfg *Config) {
	def := Default()
	if cfg.Version <= 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = def.Backend.BaseURL
	}
	if cfg.Backend.RequestTimeoutSeconds < 0 {
		cfg.Backend.RequestTimeoutSeconds = 0
	}
	if cfg.Database.BaseTable == "" {
		cfg.Database.BaseTable = def.Database.BaseTable
	}
	if len(cfg.Sheets) == 0 {
		cfg.Sheets = DefaultSheets()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.MaxPageButtons <= 0 {
		cfg.MaxPageButtons = def.MaxPageButtons
	}
	if cfg.Theme.Active == "" {
		cfg.Theme.Active = "default"
	}
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv in
// production.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBackendURL); ok && strings.TrimSpace(v) != "" {
		cfg.Backend.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDatabaseURL); ok {
		cfg.Database.URL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDownloadDir); ok && strings.TrimSpace(v) != "" {
		cfg.DownloadDir = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogFile); ok && strings.TrimSpace(v) != "" {
		cfg.Log.File = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvTimeout); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer: %q", EnvTimeout, v)
		}
		cfg.Backend.RequestTimeoutSeconds = n
	}
	return nil
}

func (c Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	seen := map[string]bool{}
	for i, s := range c.Sheets {
		if strings.TrimSpace(s.Key) == "" {
			return fmt.Errorf("sheets[%d]: key is required", i)
		}
		if s.Key == "overview" {
			return fmt.Errorf("sheets[%d]: key %q is reserved", i, s.Key)
		}
		if seen[s.Key] {
			return fmt.Errorf("sheets[%d]: duplicate key %q", i, s.Key)
		}
		seen[s.Key] = true
	}
	return nil
}

func (c Config) DatasetSheets() []dataset.Sheet {
	out := make([]dataset.Sheet, 0, len(c.Sheets))
	for _, s := range c.Sheets {
		out = append(out, dataset.Sheet{
			ID:          dataset.SheetID(s.Key),
			Identifier:  s.Identifier,
			DisplayName: s.DisplayName,
		})
	}
	return out
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeoutSeconds) * time.Second
}

// ResolvedDownloadDir returns DownloadDir or the per-user default.
func (c Config) ResolvedDownloadDir() (string, error) {
	if c.DownloadDir != "" {
		return expandHome(c.DownloadDir)
	}
	return app.DefaultDownloadDir()
}

func (c Config) ResolvedLogFile() (string, error) {
	if c.Log.File != "" {
		return expandHome(c.Log.File)
	}
	return app.DefaultLogFile()
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

func Dir() (string, error) {
	return app.ConfigDir()
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func ThemesDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "themes"), nil
}

func Load() (Config, error) {
	cfgPath, err := Path()
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := Save(cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", cfgPath, err)
	}
	EnsureDefaults(&cfg)
	return cfg, nil
}

// LoadWithEnv loads the config file, applies environment overrides and validates
// the result. Overrides are never written back.
func LoadWithEnv() (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Save(cfg Config) error {
	EnsureDefaults(&cfg)
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	themesDir := filepath.Join(dir, "themes")
	if err := os.MkdirAll(themesDir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, "config.json.tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, "config.json"))
}
