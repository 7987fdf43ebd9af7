// Package config loads runtime configuration from TOML files with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDBFileName = ".pictor.db"
	DefaultBackupDir  = "backups"

	DefaultModel       = "fast-image-2"
	DefaultAspectRatio = "1:1"
	DefaultResolution  = "1024x1024"

	DefaultLogLevel = "info"

	configFileName = ".pictor.toml"

	configDirEnvKey          = "PICTOR_CONFIG_DIR"
	dbPathEnvKey             = "PICTOR_DB"
	trustProjectConfigEnvKey = "PICTOR_TRUST_PROJECT_CONFIG"
)

// GenerationDefaults seeds the settings of newly created projects.
type GenerationDefaults struct {
	Model       string `toml:"model"`
	AspectRatio string `toml:"aspect_ratio"`
	Resolution  string `toml:"resolution"`
}

// BackupConfig defines where exported project archives land.
type BackupConfig struct {
	Dir string `toml:"dir"`
}

// Config defines runtime configuration for pictor.
type Config struct {
	DBPath                   string             `toml:"db_path"`
	LogLevel                 string             `toml:"log_level"`
	Defaults                 GenerationDefaults `toml:"defaults"`
	Backup                   BackupConfig       `toml:"backup"`
	TrustedProjectConfigPath string             `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		DBPath:   "",
		LogLevel: DefaultLogLevel,
		Defaults: GenerationDefaults{
			Model:       DefaultModel,
			AspectRatio: DefaultAspectRatio,
			Resolution:  DefaultResolution,
		},
		Backup: BackupConfig{Dir: DefaultBackupDir},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	}
	return false
}

var allowedKeys = []string{
	"db_path",
	"log_level",
	"defaults.model",
	"defaults.aspect_ratio",
	"defaults.resolution",
	"backup.dir",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "defaults.model":
		return c.Defaults.Model, nil
	case "defaults.aspect_ratio":
		return c.Defaults.AspectRatio, nil
	case "defaults.resolution":
		return c.Defaults.Resolution, nil
	case "backup.dir":
		return c.Backup.Dir, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the working-directory config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := setNestedKey(data, strings.Split(key, "."), strings.TrimSpace(value)); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides. The
// working-directory file is only consulted when explicitly trusted via
// PICTOR_TRUST_PROJECT_CONFIG.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}
	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		cfg.DBPath = dbPath
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeDefaults() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.Defaults.Model) == "" {
		c.Defaults.Model = DefaultModel
	}
	if strings.TrimSpace(c.Defaults.AspectRatio) == "" {
		c.Defaults.AspectRatio = DefaultAspectRatio
	}
	if strings.TrimSpace(c.Defaults.Resolution) == "" {
		c.Defaults.Resolution = DefaultResolution
	}
	if strings.TrimSpace(c.Backup.Dir) == "" {
		c.Backup.Dir = DefaultBackupDir
	}
}
