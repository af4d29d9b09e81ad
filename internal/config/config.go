// Package config loads the hosting process's configuration: logging,
// metrics, and transport listener settings read from a YAML config file,
// with environment variables overriding the keys that file sets and
// defaults filling whatever is left unset. It is a separate
// concern from the build-time SubsystemInfo collaborator in
// subsysinfo.go, which is env-var-only and has no file or CLI layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/nvmemid/internal/bytesize"
)

// Config is the hosting process's static configuration.
//
// Configuration sources (highest to lowest precedence):
//  1. Environment variables (NVMEMI_*), for keys the config file sets
//  2. Configuration file (YAML)
//  3. Default values
//
// The only CLI flag involved is --config, which selects the file. When no
// config file is found, the defaults are used and the environment is not
// consulted.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`
	Subsystem SubsystemConfig `mapstructure:"subsystem" yaml:"subsystem"`
}

// SubsystemConfig controls the topology Bootstrap seeds into a freshly
// constructed in-memory subsystem.
type SubsystemConfig struct {
	NamespaceSize bytesize.ByteSize `mapstructure:"namespace_size" yaml:"namespace_size"`
}

// LoggingConfig controls internal/logger's behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus metrics listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// TransportConfig controls the MCTP-over-socket transport this
// responder listens on.
type TransportConfig struct {
	Network string `mapstructure:"network" yaml:"network"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// Load reads configuration from the given path (or the default
// location if empty), lets NVMEMI_* environment variables override the
// keys it sets, and applies defaults for anything left unset. If no file
// is found it returns GetDefaultConfig() without reading the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// SaveConfig writes cfg to path in YAML form.
func SaveConfig(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NVMEMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func defaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "nvmemid")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nvmemid")
}
