package config

import "time"

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Port int `env:"PORT" yaml:"port" default:"8080"`
	// BasePath is stripped from incoming paths when the API sits behind a shared ingress.
	BasePath       string        `env:"HTTP_BASE_PATH" yaml:"base_path"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" yaml:"request_timeout" default:"60s"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" yaml:"read_timeout" default:"15s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" yaml:"write_timeout" default:"90s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" yaml:"idle_timeout" default:"60s"`
}
