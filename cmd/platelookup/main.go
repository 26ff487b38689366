// Command platelookup looks up one plate and prints the JSON body the proxy
// route would send.
// Usage: go run ./cmd/platelookup [-config file.toml] [-backend nethttp|chromedp] -plate AB1234
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/plateproxy/internal/app"
	"github.com/raysh454/plateproxy/internal/cli"
	"github.com/raysh454/plateproxy/internal/fetcher"
	"github.com/raysh454/plateproxy/internal/logging"
	"github.com/raysh454/plateproxy/internal/server"
	"github.com/raysh454/plateproxy/internal/webclient"
)

func main() {
	args, err := cli.ParseLookupArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	logger := logging.NewStdoutLogger("platelookup")
	logger.SetOutput(os.Stderr)

	cfg, err := app.Load(args.ConfigPath, os.LookupEnv, logger)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	cfg.ApplyArgs(args)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)

	wcCfg := cfg.WebClientCfg
	wcCfg.Timeout = cfg.FetcherCfg.Timeout
	wcCfg.UserAgent = fetcher.BrowserUserAgent
	wc, err := webclient.NewWebClient(wcCfg, logger)
	if err != nil {
		log.Fatalf("Webclient error: %v", err)
	}
	defer wc.Close()

	f, err := fetcher.New(cfg.FetcherCfg, wc, logger)
	if err != nil {
		log.Fatalf("Fetcher error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status, body := server.OutcomeResponse(f.Fetch(ctx, args.Plate))
	out, err := server.EncodeJSON(body)
	if err != nil {
		log.Fatalf("Encode error: %v", err)
	}
	_, _ = os.Stdout.Write(out)

	if status != http.StatusOK {
		wc.Close()
		os.Exit(1)
	}
}
