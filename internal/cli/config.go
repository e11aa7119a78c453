package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir       = "data_dir"
	cfgKeyListen        = "listen"
	cfgKeyStashBackend  = "stash_backend"
	cfgKeyRedisAddr     = "redis_addr"
	cfgKeyRedisPassword = "redis_password"
	cfgKeyRedisDB       = "redis_db"

	defaultListen    = "127.0.0.1:8990"
	defaultRedisAddr = "localhost:6379"
)

// Stash backends selectable via stash_backend.
const (
	stashBackendMemory = "memory"
	stashBackendRedis  = "redis"
)

// defaultConfigYAML is written to config.yaml on first run so the available
// keys are discoverable without documentation.
const defaultConfigYAML = `# Opsdeck configuration

# Where the SQLite database lives (default ~/.local/share/opsdeck)
# data_dir:

# API listen address for 'opsdeck serve'
listen: 127.0.0.1:8990

# Stash backend: memory (per-process) or redis (shared, survives restarts)
stash_backend: memory
# redis_addr: localhost:6379
# redis_password:
# redis_db: 0
`

// Config is the resolved CLI configuration.
type Config struct {
	DataDir       string
	Listen        string
	StashBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// loadConfig reads config.yaml from the config directory using Viper,
// creating the directory and a default config.yaml on first run. Every key
// can be overridden through OPSDECK_* environment variables.
func (c *CLI) loadConfig() (Config, error) {
	dir := c.ConfigDir
	if dir == "" {
		var err error
		dir, err = configDir()
		if err != nil {
			return Config{}, err
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Config{}, fmt.Errorf("create config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(dir); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyListen, defaultListen)
	v.SetDefault(cfgKeyStashBackend, stashBackendMemory)
	v.SetDefault(cfgKeyRedisAddr, defaultRedisAddr)
	v.SetDefault(cfgKeyRedisDB, 0)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix("OPSDECK")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config.yaml is not an error; defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		DataDir:       v.GetString(cfgKeyDataDir),
		Listen:        v.GetString(cfgKeyListen),
		StashBackend:  v.GetString(cfgKeyStashBackend),
		RedisAddr:     v.GetString(cfgKeyRedisAddr),
		RedisPassword: v.GetString(cfgKeyRedisPassword),
		RedisDB:       v.GetInt(cfgKeyRedisDB),
	}
	if cfg.DataDir == "" {
		dataDir, err := defaultDataDir()
		if err != nil {
			return Config{}, err
		}
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// ensureDefaultConfigFile creates a default config.yaml if none exists.
func ensureDefaultConfigFile(dir string) error {
	path := filepath.Join(dir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// configDir returns the config directory using the XDG standard.
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// defaultDataDir returns the data directory using the XDG standard.
func defaultDataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
