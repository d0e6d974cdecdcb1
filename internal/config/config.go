package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DataPath         string            `mapstructure:"data_path" yaml:"data_path"`
	CategoryColumn   string            `mapstructure:"category_column" yaml:"category_column"`
	Delimiter        string            `mapstructure:"delimiter" yaml:"delimiter"`
	Sheet            string            `mapstructure:"sheet" yaml:"sheet"`
	ListenAddr       string            `mapstructure:"listen_addr" yaml:"listen_addr"`
	LogLevel         string            `mapstructure:"log_level" yaml:"log_level"`
	ComputeTimeoutMs int               `mapstructure:"compute_timeout_ms" yaml:"compute_timeout_ms"`
	DefaultSelection map[string]string `mapstructure:"default_selection" yaml:"default_selection"`
}

// ComputeTimeout returns the per-view computation budget; zero disables it.
func (c *Global) ComputeTimeout() time.Duration {
	if c.ComputeTimeoutMs <= 0 {
		return 0
	}
	return time.Duration(c.ComputeTimeoutMs) * time.Millisecond
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".churnboard"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.churnboard/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CHURNBOARD")
	v.AutomaticEnv()

	v.SetDefault("data_path", "comcast_telecom_complaints_data.csv")
	v.SetDefault("category_column", "gender")
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet", "")
	v.SetDefault("listen_addr", "127.0.0.1:8050")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("compute_timeout_ms", 2000)
	v.SetDefault("default_selection", map[string]string{})

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DefaultSelection == nil {
		c.DefaultSelection = map[string]string{}
	}
	return &c, nil
}
