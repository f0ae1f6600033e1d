package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "focus.yaml"

	EngineHosts  = "hosts"
	EnginePlugin = "plugin"
	EngineLedger = "ledger"

	DefaultDurationMinutes = 25
	DefaultHostsPath       = "/etc/hosts"
	DefaultSinkAddress     = "0.0.0.0"
)

type Config struct {
	DataDir                string `yaml:"-"`
	DBPath                 string `yaml:"db_path" env:"FOCUS_DB_PATH"`
	SocketPath             string `yaml:"socket_path" env:"FOCUS_SOCKET_PATH"`
	PIDPath                string `yaml:"pid_path" env:"FOCUS_PID_PATH"`
	LogPath                string `yaml:"log_path" env:"FOCUS_LOG_PATH"`
	LogLevel               string `yaml:"log_level" env:"FOCUS_LOG_LEVEL"`
	DefaultDurationMinutes int    `yaml:"default_duration_minutes" env:"FOCUS_DEFAULT_DURATION"`
	Engine                 string `yaml:"engine" env:"FOCUS_ENGINE"`
	HostsPath              string `yaml:"hosts_path" env:"FOCUS_HOSTS_PATH"`
	SinkAddress            string `yaml:"sink_address" env:"FOCUS_SINK_ADDRESS"`
	PluginBinary           string `yaml:"plugin_binary" env:"FOCUS_PLUGIN_BINARY"`
}

// New builds defaults for dataDir, then overlays <dataDir>/focus.yaml and
// FOCUS_* environment variables in that order.
func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := defaults(dataDir)
	if err := cfg.loadFile(filepath.Join(dataDir, FileName)); err != nil {
		return Config{}, err
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.resolvePaths()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".focus"
	}
	return filepath.Join(home, ".focus")
}

func defaults(dataDir string) Config {
	return Config{
		DataDir:                dataDir,
		DBPath:                 "focus.db",
		SocketPath:             "focus.sock",
		PIDPath:                "focus.pid",
		LogPath:                "focus.log",
		LogLevel:               "info",
		DefaultDurationMinutes: DefaultDurationMinutes,
		Engine:                 EngineHosts,
		HostsPath:              DefaultHostsPath,
		SinkAddress:            DefaultSinkAddress,
	}
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// resolvePaths anchors relative state paths under the data dir. The hosts
// and plugin paths are left alone: they point outside of focus state.
func (c *Config) resolvePaths() {
	for _, p := range []*string{&c.DBPath, &c.SocketPath, &c.PIDPath, &c.LogPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(c.DataDir, *p)
		}
	}
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
}

func (c Config) Validate() error {
	if c.DefaultDurationMinutes < 1 {
		return fmt.Errorf("default_duration_minutes must be at least 1, got %d", c.DefaultDurationMinutes)
	}
	switch c.Engine {
	case EngineHosts:
		if strings.TrimSpace(c.HostsPath) == "" {
			return fmt.Errorf("hosts_path is required for the hosts engine")
		}
	case EnginePlugin:
		if strings.TrimSpace(c.PluginBinary) == "" {
			return fmt.Errorf("plugin_binary is required for the plugin engine")
		}
	case EngineLedger:
	default:
		return fmt.Errorf("unknown rule engine %q (want %s|%s|%s)", c.Engine, EngineHosts, EnginePlugin, EngineLedger)
	}
	return nil
}
