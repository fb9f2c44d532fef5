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
	ProfileProduction = "production"
	ProfileTesting    = "testing"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Profile string
	Server  struct {
		Addr string
	}
	Database struct {
		Driver      string
		Path        string
		DSN         string
		MaxConns    int32
		MinConns    int32
		MaxConnLife time.Duration
	}
	Auth struct {
		SessionSecret string
		SessionTTL    time.Duration
		Issuer        string
		CookieSecure  bool
		BcryptCost    int
	}
	Log struct {
		Level string
		Env   string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	_ = godotenv.Load() // optional .env, never overrides the environment

	v := viper.New()
	v.SetEnvPrefix("BLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profile", ProfileProduction)
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/blog.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.maxconns", 10)
	v.SetDefault("database.minconns", 1)
	v.SetDefault("database.maxconnlife", "30m")
	v.SetDefault("auth.sessionsecret", "")
	v.SetDefault("auth.sessionttl", "24h")
	v.SetDefault("auth.issuer", "entryblog")
	v.SetDefault("auth.cookiesecure", false)
	v.SetDefault("auth.bcryptcost", 12)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "production")
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Profile = strings.ToLower(strings.TrimSpace(cfg.Profile))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Profile {
	case ProfileProduction, ProfileTesting:
	default:
		return fmt.Errorf("unknown profile %q", c.Profile)
	}
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Profile == ProfileProduction && strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	return nil
}

// Testing reports whether the in-memory testing profile is active.
func (c Config) Testing() bool {
	return c.Profile == ProfileTesting
}
