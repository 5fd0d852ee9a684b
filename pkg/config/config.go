// Package config loads server and studio settings from defaults, file, env and flags
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LIVETECHNO_PORT
const EnvPrefix = "LIVETECHNO"

// Config holds runtime settings
type Config struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DataDir       string `mapstructure:"data_dir"`
	OpenAIKey     string `mapstructure:"openai_key"`
	OpenAIModel   string `mapstructure:"openai_model"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	Overlap       string `mapstructure:"overlap"`
	StaticDir     string `mapstructure:"static_dir"`
}

// Addr returns host:port for the HTTP listener
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabasePath returns the activity log location
func (c Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name)
}

// Defaults registers default values
func Defaults(v *viper.Viper) {
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 8787)
	v.SetDefault("data_dir", "data")
	v.SetDefault("openai_model", "gpt-4.1-mini")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("openai_key", "")
	v.SetDefault("overlap", "keep")
	v.SetDefault("static_dir", "")
}

// Load reads livetechno.yaml (if present), LIVETECHNO_* variables and the given flags.
// Flag names use dashes, e.g. --data-dir binds data_dir.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	Defaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("livetechno")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("data")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for _, key := range []string{"host", "port", "data_dir", "openai_model", "openai_base_url", "overlap", "static_dir"} {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}
