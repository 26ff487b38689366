// Command demoserver starts a stand-in plate lookup site for trying out
// plateproxy without reaching the real origin.
// Usage: go run ./cmd/demoserver [-charset utf-8|windows-1252] [-omit-charset] [port]
// Default port: 9999
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/plateproxy/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	fs := flag.NewFlagSet("demoserver", flag.ExitOnError)
	fs.StringVar(&cfg.Charset, "charset", cfg.Charset, "Encoding of the results page: utf-8|windows-1252")
	fs.BoolVar(&cfg.OmitCharset, "omit-charset", false, "Leave the charset off the Content-Type header")
	_ = fs.Parse(os.Args[1:])

	// Optional: custom port as the positional argument
	if fs.NArg() > 0 {
		port, err := strconv.Atoi(fs.Arg(0))
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", fs.Arg(0))
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   Plate Proxy Demo Lookup Site")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("This server answers ?patente= lookups with a results table")
	fmt.Println("and can be told to fail so the proxy's retries can be watched.")
	fmt.Println()
	fmt.Println("Point the proxy at it with:")
	fmt.Printf("  PROXY_ORIGIN=http://localhost:%d/ go run ./cmd/plateproxy\n", cfg.Port)
	fmt.Println()
	fmt.Println("Failure modes (POST /demo/fail):")
	fmt.Println("  - status: answer with an HTTP error status")
	fmt.Println("  - drop:   close the connection without a response")
	fmt.Println("  - slow:   delay the answer past the proxy's timeout")
	fmt.Println()

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
