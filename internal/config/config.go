// Package config resolves the filesystem layout the account manager works
// against: the Codex CLI's active credential file and session logs, plus the
// manager's own accounts and usage-cache directories.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"

	appConfigDirName = "codex-accounts"
	codexDirName     = ".codex"

	activeAuthKey  = "paths.active_auth_file"
	accountsDirKey = "paths.accounts_dir"
	cacheDirKey    = "paths.usage_cache_dir"
	sessionsDirKey = "paths.sessions_dir"
	cacheTTLKey    = "cache.ttl_hours"

	cacheTTLEnvVar = "CODEX_USAGE_CACHE_TTL_HOURS"

	defaultCacheTTLHours = 720

	configFileMode  = 0o600
	configDirMode   = 0o700
	tempFilePattern = ".config-*.toml.tmp"
)

// Paths carries every location the manager reads or writes.
type Paths struct {
	ActiveAuthFile string
	AccountsDir    string
	UsageCacheDir  string
	SessionsDir    string
}

type Config struct {
	Paths    Paths
	CacheTTL time.Duration
}

// Load resolves the configuration from an optional config.toml under the
// user's config directory, environment overrides, and home-derived defaults.
// A missing config file is not an error.
func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	appConfigDir, err := appConfigBaseDir()
	if err != nil {
		return Config{}, err
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(appConfigDir)

	cfg.SetDefault(activeAuthKey, filepath.Join(homeDir, codexDirName, "auth.json"))
	cfg.SetDefault(accountsDirKey, filepath.Join(appConfigDir, "accounts"))
	cfg.SetDefault(cacheDirKey, filepath.Join(appConfigDir, "usage_cache"))
	cfg.SetDefault(sessionsDirKey, filepath.Join(homeDir, codexDirName, "sessions"))
	cfg.SetDefault(cacheTTLKey, defaultCacheTTLHours)

	if err := cfg.BindEnv(cacheTTLKey, cacheTTLEnvVar); err != nil {
		return Config{}, fmt.Errorf("bind cache ttl env: %w", err)
	}

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	ttlHours := cfg.GetInt(cacheTTLKey)
	if ttlHours <= 0 {
		ttlHours = defaultCacheTTLHours
	}

	return Config{
		Paths: Paths{
			ActiveAuthFile: filepath.Clean(cfg.GetString(activeAuthKey)),
			AccountsDir:    filepath.Clean(cfg.GetString(accountsDirKey)),
			UsageCacheDir:  filepath.Clean(cfg.GetString(cacheDirKey)),
			SessionsDir:    filepath.Clean(cfg.GetString(sessionsDirKey)),
		},
		CacheTTL: time.Duration(ttlHours) * time.Hour,
	}, nil
}

func appConfigBaseDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}

	return filepath.Join(base, appConfigDirName), nil
}

type fileSchema struct {
	Paths pathsSchema `toml:"paths"`
	Cache cacheSchema `toml:"cache"`
}

type pathsSchema struct {
	ActiveAuthFile string `toml:"active_auth_file"`
	AccountsDir    string `toml:"accounts_dir"`
	UsageCacheDir  string `toml:"usage_cache_dir"`
	SessionsDir    string `toml:"sessions_dir"`
}

type cacheSchema struct {
	TTLHours int `toml:"ttl_hours"`
}

// WriteDefault materializes the resolved configuration as a config.toml so
// users have a file to edit. Returns the written path. The write is a
// temp-file rename so a crash can't leave a half-written config behind.
func WriteDefault(cfg Config) (string, error) {
	appConfigDir, err := appConfigBaseDir()
	if err != nil {
		return "", err
	}

	path := filepath.Join(appConfigDir, configName+"."+configType)

	data, err := toml.Marshal(fileSchema{
		Paths: pathsSchema{
			ActiveAuthFile: cfg.Paths.ActiveAuthFile,
			AccountsDir:    cfg.Paths.AccountsDir,
			UsageCacheDir:  cfg.Paths.UsageCacheDir,
			SessionsDir:    cfg.Paths.SessionsDir,
		},
		Cache: cacheSchema{TTLHours: int(cfg.CacheTTL / time.Hour)},
	})
	if err != nil {
		return "", fmt.Errorf("encode config file: %w", err)
	}

	if err := os.MkdirAll(appConfigDir, configDirMode); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(appConfigDir, tempFilePattern)
	if err != nil {
		return "", fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("write temp config file: %w", err)
	}

	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return "", fmt.Errorf("chmod temp config file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("close temp config file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return "", fmt.Errorf("replace config file: %w", err)
	}
	cleanup = false

	return path, nil
}
