package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/fieldx/assets"
	"github.com/doeshing/fieldx/internal/domain"
	"github.com/doeshing/fieldx/internal/pkg/filesystem"
	"github.com/doeshing/fieldx/internal/ports"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "FIELDX_CONFIG"

// FileLoader loads YAML configuration from ~/.fieldx/config.yaml (overridable via FIELDX_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is created from the embedded defaults.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
				return domain.Config{}, fmt.Errorf("write default config: %w", err)
			}
			return DefaultConfig()
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return hydrateDefaults(cfg), nil
}

// Save writes cfg back to the config file.
func (l *FileLoader) Save(_ context.Context, cfg domain.Config) error {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".fieldx", "config.yaml")
}

// Backup copies the current config file next to itself and returns the copy's path.
func (l *FileLoader) Backup() (string, error) {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102T150405"))
	if err := os.WriteFile(backup, data, domain.SecureFilePermissions); err != nil {
		return "", err
	}
	return backup, nil
}

// DefaultConfig parses the embedded default configuration.
func DefaultConfig() (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse embedded config: %w", err)
	}
	return hydrateDefaults(cfg), nil
}

func ensureConfigDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, domain.DirectoryPermissions)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if len(cfg.Models) == 0 {
		cfg.Models = domain.DefaultModels()
	}
	if cfg.Preferences.DefaultModel == "" {
		cfg.Preferences.DefaultModel = cfg.Models[0].Name
	}
	if cfg.Preferences.OutputStyle == "" {
		cfg.Preferences.OutputStyle = domain.StyleParagraph
	}
	if cfg.Preferences.HistoryCapacity <= 0 {
		cfg.Preferences.HistoryCapacity = domain.DefaultHistoryCapacity
	}
	if cfg.Preferences.MaxFields <= 0 {
		cfg.Preferences.MaxFields = domain.DefaultMaxFields
	}
	if cfg.Preferences.TimeoutSeconds <= 0 {
		cfg.Preferences.TimeoutSeconds = int(domain.DefaultProviderTimeout.Seconds())
	}
	if cfg.Documents.MaxBytes <= 0 {
		cfg.Documents.MaxBytes = domain.DefaultMaxDocumentBytes
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = filepath.Join(filesystem.UserHomeDir(), ".fieldx", "history", "archive.db")
	}
	cfg.Archive.Path = expandPath(cfg.Archive.Path)
	if cfg.Server.Host == "" {
		cfg.Server.Host = domain.DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = domain.DefaultServerPort
	}
	if cfg.Server.SessionTTL == "" {
		cfg.Server.SessionTTL = domain.DefaultSessionTTL.String()
	}
	if cfg.Server.MaxSessions <= 0 {
		cfg.Server.MaxSessions = domain.DefaultMaxSessions
	}
	if cfg.Server.MaxConcurrentExtractions <= 0 {
		cfg.Server.MaxConcurrentExtractions = domain.DefaultMaxConcurrentExtractions
	}
	if cfg.Server.RateLimitPerMinute <= 0 {
		cfg.Server.RateLimitPerMinute = domain.DefaultRateLimitPerMinute
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = domain.DefaultRateLimitBurst
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = cfg.Documents.MaxBytes
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigStore = (*FileLoader)(nil)
