// Package config loads hhbridge settings from a YAML file and HHBRIDGE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvConfig names an explicit config file when --config is not given.
const EnvConfig = "HHBRIDGE_CONFIG"

const (
	envPrefix  = "HHBRIDGE"
	configName = "hhbridge"
	homeDir    = ".hhbridge"
)

// Store drivers.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Queue drivers.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// Config holds all hhbridge configuration.
type Config struct {
	ProjectPath    string            `mapstructure:"project_path"    yaml:"project_path"`
	Launcher       []string          `mapstructure:"launcher"        yaml:"launcher"`
	PackageManager string            `mapstructure:"package_manager" yaml:"package_manager"`
	DefaultChainID int64             `mapstructure:"default_chain_id" yaml:"default_chain_id"`
	Store          StoreConfig       `mapstructure:"store"           yaml:"store"`
	Queue          QueueConfig       `mapstructure:"queue"           yaml:"queue"`
	Verify         VerifyConfig      `mapstructure:"verify"          yaml:"verify"`
	RPCOverrides   map[string]string `mapstructure:"rpc_overrides"   yaml:"rpc_overrides,omitempty"` // chain id → RPC URL
	Log            LogConfig         `mapstructure:"log"             yaml:"log"`

	file string
}

// StoreConfig selects the row store.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "file" | "postgres"
	Dir    string `mapstructure:"dir"    yaml:"dir"`
	DSN    string `mapstructure:"dsn"    yaml:"dsn,omitempty"` // Secret: includes the database password
}

// QueueConfig selects the job queue.
type QueueConfig struct {
	Driver    string `mapstructure:"driver"     yaml:"driver"` // "memory" | "redis"
	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr"`
	Name      string `mapstructure:"name"       yaml:"name"`
}

// VerifyConfig bounds queued verification retries.
type VerifyConfig struct {
	RetryDelay  time.Duration `mapstructure:"retry_delay"  yaml:"retry_delay"`
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project_path", "../blockchain")
	v.SetDefault("launcher", []string{"npx", "hardhat"})
	v.SetDefault("package_manager", "npm")
	v.SetDefault("default_chain_id", 1)
	v.SetDefault("store.driver", StoreFile)
	v.SetDefault("store.dir", filepath.Join("~", homeDir, "data"))
	v.SetDefault("store.dsn", "")
	v.SetDefault("queue.driver", QueueMemory)
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.name", "hhbridge:jobs")
	v.SetDefault("verify.retry_delay", "60s")
	v.SetDefault("verify.max_attempts", 5)
	v.SetDefault("rpc_overrides", map[string]string{})
	v.SetDefault("log.level", "info")
}

// Load reads the config file at path, else $HHBRIDGE_CONFIG, else
// hhbridge.yaml in the working directory or ~/.hhbridge. A missing search-path
// file is not an error; a missing explicit file is. Environment variables
// (HHBRIDGE_STORE_DRIVER, ...) override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, homeDir))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.file = v.ConfigFileUsed()
	if len(cfg.Launcher) == 1 {
		cfg.Launcher = strings.Fields(cfg.Launcher[0])
	}
	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	cfg.ProjectPath = expandHome(cfg.ProjectPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers and unusable values.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreFile:
	case StorePostgres:
		if c.Store.DSN == "" {
			return errors.New("config: store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q (want %s or %s)", c.Store.Driver, StoreFile, StorePostgres)
	}
	switch c.Queue.Driver {
	case QueueMemory, QueueRedis:
	default:
		return fmt.Errorf("config: unknown queue.driver %q (want %s or %s)", c.Queue.Driver, QueueMemory, QueueRedis)
	}
	if len(c.Launcher) == 0 {
		return errors.New("config: launcher must not be empty")
	}
	if c.Verify.MaxAttempts <= 0 {
		return fmt.Errorf("config: verify.max_attempts must be positive, got %d", c.Verify.MaxAttempts)
	}
	if c.Verify.RetryDelay < 0 {
		return fmt.Errorf("config: verify.retry_delay must not be negative, got %s", c.Verify.RetryDelay)
	}
	if _, err := c.RPCOverrideMap(); err != nil {
		return err
	}
	return nil
}

// File returns the config file that was read, or "" when none was found.
func (c *Config) File() string {
	return c.file
}

// RPCOverrideMap returns rpc_overrides keyed by numeric chain id.
func (c *Config) RPCOverrideMap() (map[int64]string, error) {
	out := make(map[int64]string, len(c.RPCOverrides))
	for k, url := range c.RPCOverrides {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: rpc_overrides key %q is not a chain id", k)
		}
		out[id] = url
	}
	return out, nil
}

// YAML renders c with the DSN redacted.
func (c *Config) YAML() (string, error) {
	cp := *c
	if cp.Store.DSN != "" {
		cp.Store.DSN = "<redacted>"
	}
	data, err := yaml.Marshal(&cp)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteDefault writes a config file holding the defaults to path. It refuses
// to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
