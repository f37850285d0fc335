// Package config loads datadict settings from a YAML file, DATADICT_*
// environment variables and explicit overrides, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/tordrt/datadict/internal/db"
)

const (
	configFileName = "datadict"
	configFileType = "yaml"
	envPrefix      = "DATADICT"
)

// Config is the resolved configuration
type Config struct {
	Database   Database   `mapstructure:"database"`
	Tables     Tables     `mapstructure:"tables"`
	Migrations Migrations `mapstructure:"migrations"`
	Log        Log        `mapstructure:"log"`
}

// Database selects the connection, either as one URL or as parts
type Database struct {
	URL      string            `mapstructure:"url"`
	Driver   string            `mapstructure:"driver"`
	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Name     string            `mapstructure:"name"`
	Params   map[string]string `mapstructure:"params"`
}

// Tables configures physical table naming
type Tables struct {
	Prefix string `mapstructure:"prefix"`
	Suffix string `mapstructure:"suffix"`
}

// Migrations configures the upgrade source and its state table
type Migrations struct {
	// File is a YAML step list; empty means the built-in tracker schema
	File       string `mapstructure:"file"`
	StateTable string `mapstructure:"state_table"`
}

// Log configures logging
type Log struct {
	Verbose bool `mapstructure:"verbose"`
}

var defaults = map[string]any{
	"database.url":           "",
	"database.driver":        "",
	"database.dsn":           "",
	"database.host":          "",
	"database.port":          0,
	"database.user":          "",
	"database.password":      "",
	"database.name":          "",
	"tables.prefix":          "mantis",
	"tables.suffix":          "_table",
	"migrations.file":        "",
	"migrations.state_table": "datadict_state",
	"log.verbose":            false,
}

// Load reads the configuration. With an empty path datadict.yaml is looked
// up in the working directory and in $HOME/.config/datadict, and a missing
// file is not an error. Overrides win over every other source.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "datadict"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Connection returns the driver settings for the configured parts. It is
// only meaningful when URL is empty.
func (d Database) Connection() db.Config {
	return db.Config{
		Driver:   d.Driver,
		DSN:      d.DSN,
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Database: d.Name,
		Params:   d.Params,
	}
}
