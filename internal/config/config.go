// Package config provides configuration management for mdreader using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration system supports a YAML file (.mdreader.yml), environment
// variable overrides with the MDREADER_ prefix, defaults for every key, and
// validation. It covers the watch session timings, the loopback server, the
// one-shot output directory, PDF export and logging.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Default values. The debounce window and reconnect delay only need to be
// short enough to feel live and long enough to coalesce a save.
const (
	DefaultDebounce       = 150 * time.Millisecond
	DefaultReconnectDelay = 500 * time.Millisecond
	DefaultHost           = "127.0.0.1"
	DefaultUpgradePath    = "/__ws"
	DefaultPDFTimeout     = 60 * time.Second
)

type Config struct {
	Watch  WatchConfig  `mapstructure:"watch" yaml:"watch" json:"watch"`
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
	PDF    PDFConfig    `mapstructure:"pdf" yaml:"pdf" json:"pdf"`
	Log    LogConfig    `mapstructure:"log" yaml:"log" json:"log"`
}

type WatchConfig struct {
	Debounce       time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay" json:"reconnect_delay"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host" json:"host"`
	Port        int    `mapstructure:"port" yaml:"port" json:"port"`
	UpgradePath string `mapstructure:"upgrade_path" yaml:"upgrade_path" json:"upgrade_path"`
	Open        bool   `mapstructure:"open" yaml:"open" json:"open"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

type PDFConfig struct {
	Browser string        `mapstructure:"browser" yaml:"browser" json:"browser"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Watch: WatchConfig{
			Debounce:       DefaultDebounce,
			ReconnectDelay: DefaultReconnectDelay,
		},
		Server: ServerConfig{
			Host:        DefaultHost,
			Port:        0,
			UpgradePath: DefaultUpgradePath,
			Open:        true,
		},
		Output: OutputConfig{Dir: os.TempDir()},
		PDF:    PDFConfig{Timeout: DefaultPDFTimeout},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers every default on v so that unset keys resolve.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.reconnect_delay", d.Watch.ReconnectDelay)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.upgrade_path", d.Server.UpgradePath)
	v.SetDefault("server.open", d.Server.Open)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("pdf.browser", d.PDF.Browser)
	v.SetDefault("pdf.timeout", d.PDF.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load resolves the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom resolves the configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Override open if --no-open was passed
	if v.IsSet("server.no-open") && v.GetBool("server.no-open") {
		config.Server.Open = false
	}

	if config.Output.Dir == "" {
		config.Output.Dir = os.TempDir()
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
