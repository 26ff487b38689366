package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raysh454/plateproxy/internal/fetcher"
	"github.com/raysh454/plateproxy/internal/logging"
	"github.com/raysh454/plateproxy/internal/server"
	"github.com/raysh454/plateproxy/internal/webclient"
)

const shutdownTimeout = 5 * time.Second

// Application is the runtime state container: the config it was built from
// and the components that share it. Nothing in it changes after
// NewApplication returns.
type Application struct {
	Config *Config
	Logger logging.Logger

	WebClient webclient.WebClient
	Fetcher   *fetcher.Fetcher
	Server    *server.Server

	// ShutdownTimeout is how long in-flight lookups get to finish once Serve
	// is cancelled. Connections still open after it are closed.
	ShutdownTimeout time.Duration
}

// NewApplication validates cfg and builds the webclient, fetcher and server.
func NewApplication(cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("application config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	wcCfg := cfg.WebClientCfg
	if wcCfg.Timeout <= 0 || wcCfg.Timeout > cfg.FetcherCfg.Timeout {
		wcCfg.Timeout = cfg.FetcherCfg.Timeout
	}
	if wcCfg.UserAgent == "" {
		wcCfg.UserAgent = fetcher.BrowserUserAgent
	}
	wc, err := webclient.NewWebClient(wcCfg, logger)
	if err != nil {
		return nil, err
	}

	f, err := fetcher.New(cfg.FetcherCfg, wc, logger)
	if err != nil {
		wc.Close()
		return nil, err
	}

	srv, err := server.NewServer(cfg.ServerCfg, f, logger)
	if err != nil {
		wc.Close()
		return nil, err
	}

	return &Application{
		Config:    cfg,
		Logger:    logger,
		WebClient: wc,
		Fetcher:   f,
		Server:    srv,

		ShutdownTimeout: shutdownTimeout,
	}, nil
}

// Run listens on the configured port and serves until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	addr := a.Config.ServerCfg.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := a.Server.HTTPServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("listening", logging.Field{Key: "addr", Value: ln.Addr().String()})
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.ShutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			a.Logger.Warn("lookups still running at shutdown, closing connections",
				logging.Field{Key: "timeout", Value: a.ShutdownTimeout.String()})
			return httpSrv.Close()
		}
		return err
	})
	return g.Wait()
}

// Close releases the webclient.
func (a *Application) Close() error {
	if a == nil || a.WebClient == nil {
		return nil
	}
	return a.WebClient.Close()
}
