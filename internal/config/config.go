// Package config loads the agent configuration file.
//
// The file is HCL. Every attribute is optional; a missing file yields the
// defaults. String attributes are evaluated with two variables in scope,
// state_dir and config_dir, so paths can be written relative to them:
//
//	context_path = "/mnt/context.sh"
//	state_path   = "${state_dir}/state.db"
//	log_level    = "debug"
//
//	syslog {
//	  host = "10.0.0.1"
//	}
package config

import (
	"fmt"
	"time"

	"github.com/stensonb/cloud-agent/internal/brand"
	"github.com/stensonb/cloud-agent/internal/logging"
)

// DefaultDebounce is the watch debounce interval used when none is set.
const DefaultDebounce = 500 * time.Millisecond

// Config is the agent configuration.
type Config struct {
	ContextPath     string `hcl:"context_path,optional"`
	StatePath       string `hcl:"state_path,optional"`
	MetricsTextfile string `hcl:"metrics_textfile,optional"`
	LogLevel        string `hcl:"log_level,optional"`
	LogJSON         bool   `hcl:"log_json,optional"`
	LegacyComments  bool   `hcl:"legacy_comments,optional"`

	Syslog *SyslogConfig `hcl:"syslog,block"`
	Watch  *WatchConfig  `hcl:"watch,block"`
}

// SyslogConfig mirrors the agent log to a remote syslog server.
type SyslogConfig struct {
	Host     string `hcl:"host"`
	Port     int    `hcl:"port,optional"`
	Protocol string `hcl:"protocol,optional"`
	Tag      string `hcl:"tag,optional"`
}

// WatchConfig tunes the context file watcher.
type WatchConfig struct {
	Debounce string `hcl:"debounce,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ContextPath: brand.ContextPath,
		StatePath:   brand.StatePath(),
		LogLevel:    "info",
	}
}

// applyDefaults fills attributes the file left unset.
func (c *Config) applyDefaults() {
	d := Default()
	if c.ContextPath == "" {
		c.ContextPath = d.ContextPath
	}
	if c.StatePath == "" {
		c.StatePath = d.StatePath
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Syslog != nil {
		sd := logging.DefaultSyslogConfig()
		if c.Syslog.Port == 0 {
			c.Syslog.Port = sd.Port
		}
		if c.Syslog.Protocol == "" {
			c.Syslog.Protocol = sd.Protocol
		}
		if c.Syslog.Tag == "" {
			c.Syslog.Tag = sd.Tag
		}
	}
}

// Level returns the configured log level.
func (c *Config) Level() logging.Level {
	lvl, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.LevelInfo
	}
	return lvl
}

// Debounce returns the watch debounce interval.
func (c *Config) Debounce() time.Duration {
	if c.Watch == nil || c.Watch.Debounce == "" {
		return DefaultDebounce
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return DefaultDebounce
	}
	return d
}

// SyslogSettings converts the syslog block for the logging package.
// ok is false when no remote syslog is configured.
func (c *Config) SyslogSettings() (cfg logging.SyslogConfig, ok bool) {
	if c.Syslog == nil {
		return logging.SyslogConfig{}, false
	}
	cfg = logging.DefaultSyslogConfig()
	cfg.Enabled = true
	cfg.Host = c.Syslog.Host
	cfg.Port = c.Syslog.Port
	cfg.Protocol = c.Syslog.Protocol
	cfg.Tag = c.Syslog.Tag
	return cfg, true
}

// LoggingConfig builds the logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Level()
	lc.JSON = c.LogJSON
	return lc
}

func (c *Config) String() string {
	return fmt.Sprintf("context=%s state=%s level=%s", c.ContextPath, c.StatePath, c.LogLevel)
}
