package config

import "time"

// DatabaseConfig holds database configuration. With no URL the service runs on
// the in-memory store.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" yaml:"-"`
	MaxConnections  int32         `env:"DATABASE_MAX_CONNECTIONS" yaml:"max_connections" default:"25"`
	MinConnections  int32         `env:"DATABASE_MIN_CONNECTIONS" yaml:"min_connections" default:"2"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" yaml:"conn_max_lifetime" default:"30m"`
	ConnMaxIdleTime time.Duration `env:"DATABASE_CONN_MAX_IDLE_TIME" yaml:"conn_max_idle_time" default:"5m"`
	MigrateOnStart  bool          `env:"DATABASE_MIGRATE_ON_START" yaml:"migrate_on_start" default:"false"`
}

// Enabled reports whether a database URL is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}
