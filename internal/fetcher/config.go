package fetcher

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	DefaultOrigin        = "https://www.patentechile.com/"
	DefaultTimeout       = 20 * time.Second
	DefaultRetryAttempts = 3
	// DefaultBackoff is the base of the linear backoff. It is not read from
	// the environment or the config file.
	DefaultBackoff = time.Second
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	// Origin is the lookup page; the plate is added as the patente parameter.
	Origin string

	// Timeout bounds each attempt, not the whole retry loop.
	Timeout time.Duration

	// RetryAttempts is the total number of attempts, including the first.
	RetryAttempts int

	// Backoff is multiplied by the attempt number before the next attempt.
	Backoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		Origin:        DefaultOrigin,
		Timeout:       DefaultTimeout,
		RetryAttempts: DefaultRetryAttempts,
		Backoff:       DefaultBackoff,
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.Origin); err != nil {
		errs = append(errs, fmt.Errorf("origin: %w", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("origin %q: scheme must be http or https", c.Origin))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry attempts must be at least 1, got %d", c.RetryAttempts))
	}
	if c.Backoff < 0 {
		errs = append(errs, fmt.Errorf("backoff must not be negative, got %s", c.Backoff))
	}
	return errors.Join(errs...)
}
