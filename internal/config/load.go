package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the configuration reads,
// e.g. WORKTRACK_DATABASE_URL for database.url.
const EnvPrefix = "WORKTRACK"

// Load configuration from a .env file, an optional config.yaml and
// environment variables. Environment variables take precedence over values
// from config files. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// setDefaults registers every key so that AutomaticEnv can override it
// during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.key_prefix", "worktrack")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("smtp.base_url", "")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("retention.completed_task_months", 6)
	v.SetDefault("retention.read_notification_age", "720h")
	v.SetDefault("retention.soft_deleted_age", "2160h")

	jobDefaults(v, "recurring", "1h", "5m", "10s", "")
	jobDefaults(v, "reminder", "30m", "5m", "15s", "")
	jobDefaults(v, "retention", "24h", "30m", "2m", "")
	jobDefaults(v, "report", "168h", "1h", "1m", "0 8 * * MON")
}

func jobDefaults(v *viper.Viper, name, interval, backoff, delay, cron string) {
	prefix := "jobs." + name + "."
	v.SetDefault(prefix+"enabled", true)
	v.SetDefault(prefix+"interval", interval)
	v.SetDefault(prefix+"error_backoff", backoff)
	v.SetDefault(prefix+"startup_delay", delay)
	v.SetDefault(prefix+"tick_timeout", "0s")
	v.SetDefault(prefix+"cron", cron)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
