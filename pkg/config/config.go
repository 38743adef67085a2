// Package config loads pearson-go settings from a YAML file, PEARSON_*
// environment variables and explicit overrides, in increasing precedence.
package config

import (
	"errors"
	"fmt"

	"pearson-go/pkg/pearson"
	"pearson-go/pkg/tablefile"
	"pearson-go/pkg/transform"

	"github.com/spf13/viper"
)

type Config struct {
	TableFile     string `mapstructure:"table_file"`  // custom substitution table; empty means default
	Decode        string `mapstructure:"decode"`      // input decoding applied before hashing
	APIListenAddr string `mapstructure:"api_listen_address"`
	DedupDB       string `mapstructure:"dedup_db"`
	LogDB         string `mapstructure:"log_db"`
	LogConsole    bool   `mapstructure:"log_console"`
	LogLevel      string `mapstructure:"log_level"`
	ConfigFile    string `mapstructure:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		Decode:        transform.NameNone,
		APIListenAddr: ":7780",
		DedupDB:       "dedup.db",
		LogDB:         "pearson.db",
		LogLevel:      "info",
	}
}

// Load reads configuration. When file is empty, pearson.yaml is searched in
// the working directory, /etc/pearson-go and $HOME/.pearson-go; a missing
// file is not an error in that case.
func Load(file string) (*Config, error) {
	return load(viper.New(), file)
}

func load(v *viper.Viper, file string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetDefault("table_file", cfg.TableFile)
	v.SetDefault("decode", cfg.Decode)
	v.SetDefault("api_listen_address", cfg.APIListenAddr)
	v.SetDefault("dedup_db", cfg.DedupDB)
	v.SetDefault("log_db", cfg.LogDB)
	v.SetDefault("log_console", cfg.LogConsole)
	v.SetDefault("log_level", cfg.LogLevel)

	v.SetEnvPrefix("PEARSON")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("pearson")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/pearson-go/")
		v.AddConfigPath("$HOME/.pearson-go")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be expressed through defaults.
func (c *Config) Validate() error {
	if _, err := transform.ParsePipeline(c.Decode); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}

// Table returns the configured substitution table, or the default one.
func (c *Config) Table() (pearson.Table, error) {
	if c.TableFile == "" {
		return pearson.DefaultTable(), nil
	}
	t, err := tablefile.LoadFile(c.TableFile)
	if err != nil {
		return t, fmt.Errorf("config: table_file: %w", err)
	}
	return t, nil
}
