package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/raysh454/plateproxy/internal/cli"
	"github.com/raysh454/plateproxy/internal/fetcher"
	"github.com/raysh454/plateproxy/internal/logging"
	"github.com/raysh454/plateproxy/internal/server"
	"github.com/raysh454/plateproxy/internal/webclient"
)

// Environment variables read by ApplyEnv.
const (
	EnvOrigin   = "PROXY_ORIGIN"
	EnvTimeout  = "PROXY_TIMEOUT"
	EnvRetries  = "PROXY_RETRIES"
	EnvBackend  = "PROXY_BACKEND"
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"
)

// Config contains the runtime configuration of the whole process. It is built
// once at startup and only read afterwards.
type Config struct {
	ServerCfg server.Config

	// Fetcher Configuration
	FetcherCfg fetcher.Config

	// WebClient configuration
	WebClientCfg webclient.Config

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultConfig returns a Config populated with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerCfg:    server.DefaultConfig(),
		FetcherCfg:   fetcher.DefaultConfig(),
		WebClientCfg: webclient.DefaultConfig(),
		LogLevel:     "info",
	}
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load builds the configuration from defaults, the optional TOML file at path
// and the environment, in that order of precedence.
func Load(path string, lookup LookupFunc, logger logging.Logger) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg.ApplyEnv(lookup, logger)
	return cfg, nil
}

// fileConfig mirrors the TOML layout. Pointers tell "absent" from zero.
type fileConfig struct {
	Port     *int    `toml:"port"`
	Root     *string `toml:"root"`
	LogLevel *string `toml:"log_level"`

	Fetcher struct {
		Origin         *string `toml:"origin"`
		TimeoutSeconds *int    `toml:"timeout_seconds"`
		RetryAttempts  *int    `toml:"retry_attempts"`
	} `toml:"fetcher"`

	WebClient struct {
		Backend          *string `toml:"backend"`
		IdleAfterSeconds *int    `toml:"idle_after_seconds"`
		Headless         *bool   `toml:"headless"`
	} `toml:"webclient"`
}

// LoadFile overlays the TOML file at path. Unknown keys are an error so typos
// do not go unnoticed.
func (c *Config) LoadFile(path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if fc.Port != nil {
		c.ServerCfg.Port = *fc.Port
	}
	if fc.Root != nil {
		c.ServerCfg.Root = *fc.Root
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.Fetcher.Origin != nil {
		c.FetcherCfg.Origin = *fc.Fetcher.Origin
	}
	if fc.Fetcher.TimeoutSeconds != nil {
		c.FetcherCfg.Timeout = time.Duration(*fc.Fetcher.TimeoutSeconds) * time.Second
	}
	if fc.Fetcher.RetryAttempts != nil {
		c.FetcherCfg.RetryAttempts = max(1, *fc.Fetcher.RetryAttempts)
	}
	if fc.WebClient.Backend != nil {
		c.WebClientCfg.Client = webclient.Client(*fc.WebClient.Backend)
	}
	if fc.WebClient.IdleAfterSeconds != nil {
		c.WebClientCfg.IdleAfter = time.Duration(*fc.WebClient.IdleAfterSeconds) * time.Second
	}
	if fc.WebClient.Headless != nil {
		c.WebClientCfg.Headless = *fc.WebClient.Headless
	}
	return nil
}

// ApplyEnv overlays environment variables. Malformed numbers are ignored with
// a warning and retry counts below 1 are raised to 1.
func (c *Config) ApplyEnv(lookup LookupFunc, logger logging.Logger) {
	if logger == nil {
		logger = logging.Nop()
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	atoi := func(key, v string) (int, bool) {
		n, err := strconv.Atoi(v)
		if err != nil {
			logger.Warn("ignoring malformed environment variable",
				logging.Field{Key: "key", Value: key},
				logging.Field{Key: "value", Value: v})
			return 0, false
		}
		return n, true
	}

	if v, ok := get(EnvOrigin); ok {
		c.FetcherCfg.Origin = v
	}
	if v, ok := get(EnvTimeout); ok {
		if n, ok := atoi(EnvTimeout, v); ok {
			c.FetcherCfg.Timeout = time.Duration(n) * time.Second
		}
	}
	if v, ok := get(EnvRetries); ok {
		if n, ok := atoi(EnvRetries, v); ok {
			c.FetcherCfg.RetryAttempts = max(1, n)
		}
	}
	if v, ok := get(EnvBackend); ok {
		c.WebClientCfg.Client = webclient.Client(v)
	}
	if v, ok := get(EnvPort); ok {
		if n, ok := atoi(EnvPort, v); ok {
			c.ServerCfg.Port = n
		}
	}
	if v, ok := get(EnvLogLevel); ok {
		c.LogLevel = v
	}
}

// ApplyArgs overlays the non-zero command-line overrides.
func (c *Config) ApplyArgs(args *cli.CLIArgs) {
	if args == nil {
		return
	}
	if args.Port != 0 {
		c.ServerCfg.Port = args.Port
	}
	if args.Root != "" {
		c.ServerCfg.Root = args.Root
	}
	if args.Backend != "" {
		c.WebClientCfg.Client = webclient.Client(args.Backend)
	}
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	var errs []error
	if err := c.FetcherCfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.ServerCfg.Port < 1 || c.ServerCfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.ServerCfg.Port))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
