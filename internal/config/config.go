package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the service configuration. Only UseStatefulOrderHandlerSQLFunction
// changes how events are applied; it selects the atomic placement procedure
// over the orchestrated upsert.
type Config struct {
	Env                                string        `mapstructure:"env"`
	Debug                              bool          `mapstructure:"debug"`
	Port                               string        `mapstructure:"port"`
	DatabaseDriver                     string        `mapstructure:"database_driver"`
	DatabaseDSN                        string        `mapstructure:"database_dsn"`
	UseStatefulOrderHandlerSQLFunction bool          `mapstructure:"use_stateful_order_handler_sql_function"`
	MarketRefreshInterval              time.Duration `mapstructure:"market_refresh_interval"`
	DispatchWorkers                    int           `mapstructure:"dispatch_workers"`
	JWTSecret                          string        `mapstructure:"jwt_secret"`
	MetricsNamespace                   string        `mapstructure:"metrics_namespace"`
	CORSAllowedOrigins                 []string      `mapstructure:"cors_allowed_origins"`
}

var defaults = map[string]interface{}{
	"env":                                     "development",
	"debug":                                   false,
	"port":                                    "8080",
	"database_driver":                         DriverSQLite,
	"database_dsn":                            "indexer.db",
	"use_stateful_order_handler_sql_function": true,
	"market_refresh_interval":                 5 * time.Second,
	"dispatch_workers":                        8,
	"jwt_secret":                              "klear-secret-key",
	"metrics_namespace":                       "ender",
	"cors_allowed_origins":                    []string{},
	"env_file":                                "",
}

// SetDefaults registers every known key on v so that environment variables
// are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load reads the configuration from v. Priority: flags and explicit values,
// then environment variables named after the upper-cased keys, then the
// optional env_file, then defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("env_file"); path != "" {
		if err := applyEnvFile(v, path); err != nil {
			return nil, err
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("error in config: %w", err)
	}
	return &conf, nil
}

// applyEnvFile registers the KEY=value pairs of a dotenv file as defaults,
// so real environment variables still win.
func applyEnvFile(v *viper.Viper, path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	for key, value := range values {
		v.SetDefault(strings.ToLower(key), value)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("database_dsn is required")
	}
	if c.DispatchWorkers <= 0 {
		return errors.New("dispatch_workers must be positive")
	}
	if c.MarketRefreshInterval <= 0 {
		return errors.New("market_refresh_interval must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
