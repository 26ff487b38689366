// Command plateproxy serves static files and the /api/proxy plate lookup.
// Usage: go run ./cmd/plateproxy [-config file.toml] [-backend nethttp|chromedp] [-root dir] [port]
// Default port: 8000
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/plateproxy/internal/app"
	"github.com/raysh454/plateproxy/internal/cli"
	"github.com/raysh454/plateproxy/internal/logging"
)

func main() {
	args, err := cli.ParseServeArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	logger := logging.NewStdoutLogger("plateproxy")

	cfg, err := app.Load(args.ConfigPath, os.LookupEnv, logger)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	cfg.ApplyArgs(args)

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	logger.SetLevel(level)

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}
	defer application.Close()

	port := cfg.ServerCfg.Port
	fmt.Println("===========================================")
	fmt.Println("   Plate Proxy")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Printf("Serving %s at http://localhost:%d\n", cfg.ServerCfg.Root, port)
	fmt.Printf("Open http://localhost:%d/index.html in your browser\n", port)
	fmt.Printf("Lookups: http://localhost:%d%s?plate=AB1234\n", port, cfg.ServerCfg.ProxyPath)
	fmt.Printf("API docs: http://localhost:%d/swagger/index.html\n", port)
	fmt.Println()
	fmt.Printf("Origin:  %s\n", cfg.FetcherCfg.Origin)
	fmt.Printf("Backend: %s\n", cfg.WebClientCfg.Client)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error("server stopped", logging.Field{Key: "error", Value: err})
		application.Close()
		os.Exit(1)
	}
}
