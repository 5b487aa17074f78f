// Package config loads the proxy configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// HTTP configures the inbound listener.
type HTTP struct {
	Addr            string        `default:":8080" envconfig:"ADDR"`
	ShutdownTimeout time.Duration `default:"10s" envconfig:"SHUTDOWN_TIMEOUT"`
}

// Upstream configures the NYT best-sellers endpoint.
type Upstream struct {
	EndpointURL string        `envconfig:"ENDPOINT_URL"`
	APIKey      string        `envconfig:"API_KEY"`
	Timeout     time.Duration `default:"10s" envconfig:"TIMEOUT"`
}

// Redis configures the cache backend connection.
type Redis struct {
	Addr string `default:"localhost:6379" envconfig:"ADDR"`
	DB   int    `default:"0" envconfig:"DB"`
}

// Cache configures the response cache staleness window.
type Cache struct {
	TTL time.Duration `default:"1h" envconfig:"TTL"`
}

// Auth configures the bearer tokens accepted by the auth gate. An empty list
// denies every request.
type Auth struct {
	Tokens []string `envconfig:"TOKENS"`
}

// Log configures logging.
type Log struct {
	Level  string `default:"info" envconfig:"LEVEL"`
	Pretty bool   `default:"false" envconfig:"PRETTY"`
}

// Config is the full proxy configuration, read from NYTPROXY_* variables.
type Config struct {
	HTTP     HTTP
	Upstream Upstream
	Redis    Redis
	Cache    Cache
	Auth     Auth
	Log      Log
}

// Load reads the configuration from the environment with prefix NYTPROXY.
func Load() (Config, error) {
	return LoadWithPrefix("NYTPROXY")
}

// LoadWithPrefix reads the configuration using the given env prefix. Split
// out so tests can use isolated prefixes.
func LoadWithPrefix(prefix string) (Config, error) {
	var c Config

	if err := envconfig.Process(prefix, &c); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}

	if c.Upstream.EndpointURL == "" {
		return Config{}, fmt.Errorf("%s_UPSTREAM_ENDPOINT_URL is required", prefix)
	}
	if c.Upstream.APIKey == "" {
		return Config{}, fmt.Errorf("%s_UPSTREAM_API_KEY is required", prefix)
	}

	return c, nil
}
