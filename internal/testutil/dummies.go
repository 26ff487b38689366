// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/plateproxy/internal/logging"
	"github.com/raysh454/plateproxy/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// InfoCount returns how many Info entries were recorded.
func (l *DummyLogger) InfoCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Infos)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// Step scripts one call to DummyWebClient.Do. A non-nil Err is returned as a
// transport error; otherwise a response with Status (default 200), Body and
// Header is returned.
type Step struct {
	Status int
	Body   string
	Header http.Header
	Err    error
}

// DummyWebClient implements webclient.WebClient.
// Calls consume Steps in order; once they run out the last step repeats.
// With no steps it returns body "ok:<url>" with status 200.
type DummyWebClient struct {
	ResponseDelay time.Duration
	Steps         []Step

	mu       sync.Mutex
	calls    int
	Requests []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if req == nil {
		return nil, webclient.ErrNilRequest
	}
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	idx := d.calls
	d.calls++
	d.mu.Unlock()

	if len(d.Steps) == 0 {
		return &webclient.Response{
			Request:    req,
			Body:       []byte("ok:" + req.URL),
			StatusCode: http.StatusOK,
			FetchedAt:  time.Now(),
		}, nil
	}

	if idx >= len(d.Steps) {
		idx = len(d.Steps) - 1
	}
	step := d.Steps[idx]
	if step.Err != nil {
		return nil, step.Err
	}
	status := step.Status
	if status == 0 {
		status = http.StatusOK
	}
	header := step.Header
	if header == nil {
		header = http.Header{}
	}
	return &webclient.Response{
		Request:    req,
		Body:       []byte(step.Body),
		Headers:    header,
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// Calls returns how many times Do was invoked.
func (d *DummyWebClient) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// ─── Sleep recorder ────────────────────────────────────────────────────

// SleepRecorder records backoff delays without waiting.
type SleepRecorder struct {
	mu     sync.Mutex
	Delays []time.Duration
}

func (s *SleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Delays = append(s.Delays, d)
	s.mu.Unlock()
	return ctx.Err()
}
