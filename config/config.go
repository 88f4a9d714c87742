// Package config loads the configuration of the calctl tool.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/spf13/viper"

	"github.com/qexp/calstore/sqlstore"
)

// StoreConfig is the configuration of the calibration files.
type StoreConfig struct {
	Folder         string `mapstructure:"folder" yaml:"folder"`                     // Folder the calibration files are saved in
	FilePrefix     string `mapstructure:"file_prefix" yaml:"file_prefix"`           // Prefix of the saved file names
	MostRecentOnly bool   `mapstructure:"most_recent_only" yaml:"most_recent_only"` // Only save the latest value of each parameter
	Overwrite      bool   `mapstructure:"overwrite" yaml:"overwrite"`               // Replace existing files when saving
}

// CatalogConfig is the configuration to connect to the SQL catalog.
//
// WARNING: The DSN may carry credentials and should not be logged or set in file configuration.
type CatalogConfig struct {
	Driver          string `mapstructure:"driver" yaml:"driver"`                     // Either "postgres" or "ramsql"
	DSN             string `mapstructure:"dsn" yaml:"dsn"`                           // Secret: the data source name
	ConnectAttempts uint   `mapstructure:"connect_attempts" yaml:"connect_attempts"` // Pings before giving up
	CreateSchema    bool   `mapstructure:"create_schema" yaml:"create_schema"`       // Create missing catalog tables
}

// LogConfig is the configuration of the tool logger.
type LogConfig struct {
	Level    string `mapstructure:"level" yaml:"level"`       // debug, info, warn or error
	Encoding string `mapstructure:"encoding" yaml:"encoding"` // json or console
}

// Config wraps the entire configuration for calctl.
type Config struct {
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// Validate checks the values that have a fixed set of choices.
func (c *Config) Validate() error {
	var errs []error
	if c.Store.Folder == "" {
		errs = append(errs, errors.New("store.folder must not be empty"))
	}
	if !slices.Contains([]string{sqlstore.DriverPostgres, sqlstore.DriverRamSQL}, c.Catalog.Driver) {
		errs = append(errs, fmt.Errorf("unsupported catalog.driver %q", c.Catalog.Driver))
	}
	if c.Catalog.ConnectAttempts == 0 {
		errs = append(errs, errors.New("catalog.connect_attempts must be at least 1"))
	}
	if !slices.Contains([]string{"", "json", "console"}, c.Log.Encoding) {
		errs = append(errs, fmt.Errorf("unsupported log.encoding %q", c.Log.Encoding))
	}

	return errors.Join(errs...)
}

var defaults = map[string]any{
	"store.folder":             ".",
	"catalog.driver":           sqlstore.DriverRamSQL,
	"catalog.dsn":              "calibrations",
	"catalog.connect_attempts": 5,
	"catalog.create_schema":    true,
	"log.level":                "info",
	"log.encoding":             "console",
}

// envBindings maps config keys to the environment variables that can set them. The first
// name is preferred, the second is the short form accepted for convenience.
var envBindings = map[string][]string{
	"store.folder":             {"CALCTL_STORE_FOLDER", "CALCTL_FOLDER"},
	"store.file_prefix":        {"CALCTL_STORE_FILE_PREFIX", "CALCTL_FILE_PREFIX"},
	"store.most_recent_only":   {"CALCTL_STORE_MOST_RECENT_ONLY", "CALCTL_MOST_RECENT_ONLY"},
	"store.overwrite":          {"CALCTL_STORE_OVERWRITE"},
	"catalog.driver":           {"CALCTL_CATALOG_DRIVER"},
	"catalog.dsn":              {"CALCTL_CATALOG_DSN"},
	"catalog.connect_attempts": {"CALCTL_CATALOG_CONNECT_ATTEMPTS"},
	"catalog.create_schema":    {"CALCTL_CATALOG_CREATE_SCHEMA"},
	"log.level":                {"CALCTL_LOG_LEVEL"},
	"log.encoding":             {"CALCTL_LOG_ENCODING"},
}

// Load loads the config from the file path, falling back to env vars and defaults if the file
// does not exist. Env vars that are set override the values of the file. The file format is
// picked from its extension.
func Load(filePath string) (*Config, error) {
	v := newViper()

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", filePath, err)
			}
		}
	}

	return unmarshal(v)
}

// LoadEnv loads the config from the environment variables and defaults.
func LoadEnv() (*Config, error) {
	return Load("")
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		if err := v.BindEnv(slices.Insert(slices.Clone(envs), 0, key)...); err != nil {
			return err
		}
	}

	return nil
}
