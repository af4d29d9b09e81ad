package config

import "github.com/marmos91/nvmemid/internal/bytesize"

// ApplyDefaults sets default values for any unspecified configuration
// fields, cascading through each subsection.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyTransportDefaults(&cfg.Transport)
	applySubsystemDefaults(&cfg.Subsystem)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":9464"
	}
}

func applyTransportDefaults(cfg *TransportConfig) {
	if cfg.Network == "" {
		cfg.Network = "unix"
	}
	if cfg.Addr == "" {
		cfg.Addr = "/run/nvmemid/mctp.sock"
	}
}

func applySubsystemDefaults(cfg *SubsystemConfig) {
	if cfg.NamespaceSize == 0 {
		cfg.NamespaceSize = 512 * bytesize.MiB
	}
}

// GetDefaultConfig returns a Config with every field at its default,
// used when no config file is found at all.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
