package cli

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CLIArgs are the command-line arguments shared by plateproxy and platelookup.
// Zero values mean "keep what the config file and environment say".
type CLIArgs struct {
	// ConfigPath is an optional TOML file.
	ConfigPath string

	// Port overrides the listen port; 0 means "use config".
	Port int

	// Root overrides the static file directory.
	Root string

	// Backend overrides the webclient backend (nethttp|chromedp).
	Backend string

	// Plate is the plate to look up. Only platelookup uses it.
	Plate string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

func newFlagSet(name string, a *CLIArgs) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&a.ConfigPath, "config", "", "Optional TOML config file")
	fs.StringVar(&a.Backend, "backend", "", "Webclient backend: nethttp|chromedp")
	fs.SetOutput(io.Discard)
	return fs
}

// ParseServeArgs parses plateproxy's arguments. Like python's http.server, a
// single positional argument is taken as the port.
func ParseServeArgs(args []string) (*CLIArgs, error) {
	a := &CLIArgs{RawArgs: args}
	fs := newFlagSet("plateproxy", a)
	fs.IntVar(&a.Port, "port", 0, "Port to listen on (default from config, 8000)")
	fs.StringVar(&a.Root, "root", "", "Directory to serve static files from (default from config, .)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		port, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			return nil, fmt.Errorf("invalid port: %s", fs.Arg(0))
		}
		a.Port = port
	default:
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	if a.Port < 0 || a.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", a.Port)
	}
	return a, nil
}

// ParseLookupArgs parses platelookup's arguments. The plate may be given with
// -plate or as the single positional argument.
func ParseLookupArgs(args []string) (*CLIArgs, error) {
	a := &CLIArgs{RawArgs: args}
	fs := newFlagSet("platelookup", a)
	fs.StringVar(&a.Plate, "plate", "", "Plate to look up (required)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if a.Plate == "" && fs.NArg() == 1 {
		a.Plate = fs.Arg(0)
	}

	a.Plate = strings.TrimSpace(a.Plate)
	if a.Plate == "" {
		return nil, fmt.Errorf("missing required -plate argument")
	}
	return a, nil
}
