package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/raysh454/plateproxy/internal/logging"
	"github.com/raysh454/plateproxy/internal/webclient"
)

const unknownError = "unknown error"

// BrowserUserAgent is the desktop Chrome user agent sent with every lookup.
// The lookup site turns away clients that look like bots.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const (
	browserAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	browserAcceptLanguage = "es-CL,es;q=0.9,en;q=0.8"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Module: fetcher
// Looks up one plate on the origin site with bounded retries.
type Fetcher struct {
	cfg    Config
	wc     webclient.WebClient
	logger logging.Logger
	sleep  SleepFunc
}

type Option func(*Fetcher)

// WithSleep replaces the backoff wait. Tests use it to record delays.
func WithSleep(sleep SleepFunc) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// New creates a Fetcher that performs its requests through wc.
func New(cfg Config, wc webclient.WebClient, logger logging.Logger, opts ...Option) (*Fetcher, error) {
	if wc == nil {
		return nil, errors.New("fetcher: webclient is nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	f := &Fetcher{
		cfg:    cfg,
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "fetcher"}),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch looks up plate on the origin. plate must already be trimmed and
// non-empty.
//
// Transport errors and 5xx responses are retried up to RetryAttempts times in
// total, sleeping Backoff*n after the n-th failed attempt. A 4xx response
// ends the loop at once and its status is returned as is. When every attempt
// fails the outcome is a 502 carrying the last error message.
func (f *Fetcher) Fetch(ctx context.Context, plate string) Outcome {
	target, err := TargetURL(f.cfg.Origin, plate)
	if err != nil {
		f.logger.Error("building target url", logging.Field{Key: "origin", Value: f.cfg.Origin}, logging.Field{Key: "error", Value: err})
		return Failure(http.StatusBadGateway, err.Error())
	}

	var lastErr string
	for attempt := 1; attempt <= f.cfg.RetryAttempts; attempt++ {
		html, err := f.attempt(ctx, target)
		if err == nil {
			f.logger.Debug("lookup succeeded",
				logging.Field{Key: "url", Value: target},
				logging.Field{Key: "attempt", Value: attempt})
			return Success(html)
		}

		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			f.logger.Debug("upstream rejected lookup",
				logging.Field{Key: "url", Value: target},
				logging.Field{Key: "status", Value: se.StatusCode})
			return Failure(se.StatusCode, se.Error())
		}

		lastErr = err.Error()
		f.logger.Debug("lookup attempt failed",
			logging.Field{Key: "url", Value: target},
			logging.Field{Key: "attempt", Value: attempt},
			logging.Field{Key: "of", Value: f.cfg.RetryAttempts},
			logging.Field{Key: "error", Value: lastErr})

		if attempt == f.cfg.RetryAttempts {
			break
		}
		if err := f.sleep(ctx, f.cfg.Backoff*time.Duration(attempt)); err != nil {
			break
		}
	}

	if lastErr == "" {
		lastErr = unknownError
	}
	return Failure(http.StatusBadGateway, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, target string) (string, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	resp, err := f.wc.Do(ctx, &webclient.Request{
		Method:  http.MethodGet,
		URL:     target,
		Headers: browserHeaders(f.cfg.Origin),
	})
	if err != nil {
		return "", err
	}
	if err := checkStatus(resp.StatusCode); err != nil {
		return "", err
	}
	return decodeBody(resp.Body, resp.Headers.Get("Content-Type")), nil
}

// TargetURL adds patente=<plate> to origin, keeping any query the origin
// already has.
func TargetURL(origin, plate string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse origin %q: %w", origin, err)
	}
	q := u.Query()
	q.Set("patente", plate)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func browserHeaders(origin string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", BrowserUserAgent)
	h.Set("Accept", browserAccept)
	h.Set("Accept-Language", browserAcceptLanguage)
	h.Set("Referer", origin)
	return h
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
