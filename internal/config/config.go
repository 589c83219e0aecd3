// Package config resolves runtime settings: built-in defaults, then values
// persisted in the settings database, then environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Environment variables
const (
	EnvHome     = "RINGBEARER_HOME"
	EnvVault    = "RINGBEARER_VAULT"
	EnvLogLevel = "RINGBEARER_LOG_LEVEL"
	EnvPassword = "RINGBEARER_PASSWORD"
)

const (
	SettingsFile     = "settings.db"
	DefaultVaultFile = "vault.ring"
	DirPermSecure    = 0700
)

// Persisted setting keys
const (
	KeyVaultPath    = "vault_path"
	KeyLogLevel     = "log_level"
	KeyClipboardTTL = "clipboard_ttl"
	KeyIdleTimeout  = "idle_timeout"
	KeyAtomicWrites = "atomic_writes"
)

// Config is the resolved configuration
type Config struct {
	Home         string
	VaultPath    string
	LogLevel     zerolog.Level
	ClipboardTTL time.Duration // 0 keeps the clipboard
	IdleTimeout  time.Duration // 0 disables shell auto-logout
	AtomicWrites bool
}

// Source provides persisted settings
type Source interface {
	ConfigValues() (map[string]string, error)
}

// Home returns the directory holding settings and the default vault
func Home() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "ringbearer"), nil
}

// EnsureHome creates home with owner-only permissions
func EnsureHome(home string) error {
	if err := os.MkdirAll(home, DirPermSecure); err != nil {
		return fmt.Errorf("failed to create %s: %w", home, err)
	}
	return nil
}

// Defaults returns the built-in configuration for home
func Defaults(home string) Config {
	return Config{
		Home:         home,
		VaultPath:    filepath.Join(home, DefaultVaultFile),
		LogLevel:     zerolog.WarnLevel,
		ClipboardTTL: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		AtomicWrites: true,
	}
}

// Load resolves the configuration. src may be nil; getenv defaults to os.Getenv.
func Load(home string, src Source, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Defaults(home)

	if src != nil {
		values, err := src.ConfigValues()
		if err != nil {
			return cfg, fmt.Errorf("failed to read settings: %w", err)
		}
		for _, key := range sortedKeys(values) {
			if err := cfg.Set(key, values[key]); err != nil {
				return cfg, fmt.Errorf("invalid stored setting: %w", err)
			}
		}
	}

	if v := getenv(EnvVault); v != "" {
		cfg.VaultPath = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		if err := cfg.Set(KeyLogLevel, v); err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}

	return cfg, nil
}

// Keys lists the settable keys in order
func Keys() []string {
	return []string{KeyAtomicWrites, KeyClipboardTTL, KeyIdleTimeout, KeyLogLevel, KeyVaultPath}
}

// Set parses value and assigns it to key
func (c *Config) Set(key, value string) error {
	switch key {
	case KeyVaultPath:
		if value == "" {
			return fmt.Errorf("%s cannot be empty", key)
		}
		c.VaultPath = value
	case KeyLogLevel:
		level, err := zerolog.ParseLevel(value)
		if err != nil || value == "" {
			return fmt.Errorf("invalid %s %q", key, value)
		}
		c.LogLevel = level
	case KeyClipboardTTL, KeyIdleTimeout:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid %s %q: expected a duration like 30s or 5m", key, value)
		}
		if key == KeyClipboardTTL {
			c.ClipboardTTL = d
		} else {
			c.IdleTimeout = d
		}
	case KeyAtomicWrites:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: expected true or false", key, value)
		}
		c.AtomicWrites = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Get returns the value of key formatted as Set accepts it
func (c Config) Get(key string) (string, error) {
	switch key {
	case KeyVaultPath:
		return c.VaultPath, nil
	case KeyLogLevel:
		return c.LogLevel.String(), nil
	case KeyClipboardTTL:
		return c.ClipboardTTL.String(), nil
	case KeyIdleTimeout:
		return c.IdleTimeout.String(), nil
	case KeyAtomicWrites:
		return strconv.FormatBool(c.AtomicWrites), nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// SettingsPath returns the settings database path
func (c Config) SettingsPath() string {
	return filepath.Join(c.Home, SettingsFile)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
