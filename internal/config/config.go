package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Retention RetentionConfig `mapstructure:"retention" validate:"required"`
	Jobs      JobsConfig      `mapstructure:"jobs" validate:"required"`
}

// ServerConfig contains the realtime/health HTTP server and logging settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
}

// RedisConfig is optional. When URL is empty task numbers and reminder
// claims are kept in Postgres.
type RedisConfig struct {
	URL       string `mapstructure:"url" validate:"omitempty,url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SMTPConfig configures outgoing mail. When Host is empty mail is logged
// instead of sent.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"required_with=Host,omitempty,gt=0,lt=65536"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"required_with=Host,omitempty,email"`
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`
}

// AuthConfig holds the secret used to verify push connection tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// RetentionConfig sets the ages after which the retention sweep acts.
type RetentionConfig struct {
	CompletedTaskMonths int           `mapstructure:"completed_task_months" validate:"gte=1"`
	ReadNotificationAge time.Duration `mapstructure:"read_notification_age" validate:"gt=0"`
	SoftDeletedAge      time.Duration `mapstructure:"soft_deleted_age" validate:"gt=0"`
}

// JobsConfig holds per-job scheduling.
type JobsConfig struct {
	Recurring JobConfig `mapstructure:"recurring"`
	Reminder  JobConfig `mapstructure:"reminder"`
	Retention JobConfig `mapstructure:"retention"`
	Report    JobConfig `mapstructure:"report"`
}

// JobConfig schedules one periodic job. When Cron is set it decides the
// wake-up times and Interval only bounds ErrorBackoff.
type JobConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Interval     time.Duration `mapstructure:"interval" validate:"gt=0"`
	ErrorBackoff time.Duration `mapstructure:"error_backoff" validate:"gt=0,ltfield=Interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay" validate:"gte=0"`
	TickTimeout  time.Duration `mapstructure:"tick_timeout" validate:"gte=0"`
	Cron         string        `mapstructure:"cron"`
}
