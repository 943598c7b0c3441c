// Package config loads runtime settings from the environment, an optional
// .env file and an optional settings.toml or settings.yaml.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	AuthOIDC   = "oidc"
	AuthHeader = "header"
)

type Config struct {
	Store struct {
		Driver  string
		Timeout time.Duration
	}
	Mongo struct {
		URI      string
		Database string
	}
	DatabaseDSN string

	HTTP struct {
		Addr         string
		AllowOrigins []string
	}
	Log struct {
		Level  string
		Format string
	}

	RateLimit struct {
		RPS   float64
		Burst int
	}

	Auth struct {
		Mode      string
		ClientID  string
		Secret    string
		JWTSecret string
		State     string
		Host      string
	}
}

func defaults(v *viper.Viper) {
	v.SetDefault("store.driver", DriverMongo)
	v.SetDefault("store.timeout", "10s")
	v.SetDefault("mongodb.database", "vote")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("ratelimit.rps", 50)
	v.SetDefault("ratelimit.burst", 100)
	v.SetDefault("auth.mode", AuthOIDC)
}

// Load reads the configuration. Environment variables use the VOTE_ prefix
// with dots replaced by underscores, so store.driver is VOTE_STORE_DRIVER.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("VOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)

	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.SetConfigName("settings")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	cfg.Store.Driver = strings.ToLower(v.GetString("store.driver"))
	cfg.Store.Timeout = v.GetDuration("store.timeout")
	cfg.Mongo.URI = v.GetString("mongodb.uri")
	cfg.Mongo.Database = v.GetString("mongodb.database")
	cfg.DatabaseDSN = v.GetString("database.dsn")
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.HTTP.AllowOrigins = v.GetStringSlice("http.allow_origins")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.RateLimit.RPS = v.GetFloat64("ratelimit.rps")
	cfg.RateLimit.Burst = v.GetInt("ratelimit.burst")
	cfg.Auth.Mode = strings.ToLower(v.GetString("auth.mode"))
	cfg.Auth.ClientID = v.GetString("oidc.id")
	cfg.Auth.Secret = v.GetString("oidc.secret")
	cfg.Auth.JWTSecret = v.GetString("jwt.secret")
	cfg.Auth.State = v.GetString("state")
	cfg.Auth.Host = strings.TrimSuffix(v.GetString("host"), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongodb.uri is required for the mongo driver"))
		}
		if c.Mongo.Database == "" {
			errs = append(errs, errors.New("mongodb.database must not be empty"))
		}
	case DriverPostgres, DriverMySQL, DriverSQLite:
		if c.DatabaseDSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for the %s driver", c.Store.Driver))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	if c.Store.Timeout <= 0 {
		errs = append(errs, errors.New("store.timeout must be positive"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("ratelimit.rps and ratelimit.burst must be positive"))
	}

	switch c.Auth.Mode {
	case AuthOIDC:
		missing := []string{}
		for key, value := range map[string]string{
			"oidc.id":     c.Auth.ClientID,
			"oidc.secret": c.Auth.Secret,
			"jwt.secret":  c.Auth.JWTSecret,
			"state":       c.Auth.State,
			"host":        c.Auth.Host,
		} {
			if value == "" {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			errs = append(errs, fmt.Errorf("oidc auth requires %s", strings.Join(missing, ", ")))
		}
	case AuthHeader:
	default:
		errs = append(errs, fmt.Errorf("unknown auth.mode %q", c.Auth.Mode))
	}

	return errors.Join(errs...)
}
