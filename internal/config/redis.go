package config

import "time"

// RedisConfig holds Redis configuration. Redis backs the per-visitor turn
// lock when several replicas run; without it the lock is in-process.
type RedisConfig struct {
	URL        string        `env:"REDIS_URL" yaml:"-"`
	Timeout    time.Duration `env:"REDIS_TIMEOUT" yaml:"timeout" default:"5s"`
	LockTTL    time.Duration `env:"TURN_LOCK_TTL" yaml:"lock_ttl" default:"90s"`
	LockRetry  time.Duration `env:"TURN_LOCK_RETRY" yaml:"lock_retry" default:"50ms"`
	LockPrefix string        `env:"TURN_LOCK_PREFIX" yaml:"lock_prefix" default:"chatbot:turn:"`
}

// Enabled reports whether a Redis URL is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}
