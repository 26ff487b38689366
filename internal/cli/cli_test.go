package cli_test

import (
	"testing"

	"github.com/raysh454/plateproxy/internal/cli"
)

func TestParseServeArgs(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		args    []string
		port    int
		root    string
		backend string
		config  string
		wantErr bool
	}{
		{name: "empty", args: nil},
		{name: "flags", args: []string{"-port", "9000", "-root", "site", "-backend", "chromedp", "-config", "p.toml"}, port: 9000, root: "site", backend: "chromedp", config: "p.toml"},
		{name: "positional port", args: []string{"8080"}, port: 8080},
		{name: "bad positional", args: []string{"eighty"}, wantErr: true},
		{name: "too many", args: []string{"8080", "9090"}, wantErr: true},
		{name: "out of range", args: []string{"-port", "70000"}, wantErr: true},
		{name: "unknown flag", args: []string{"-verbose"}, wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := cli.ParseServeArgs(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseServeArgs: %v", err)
			}
			if got.Port != tc.port || got.Root != tc.root || got.Backend != tc.backend || got.ConfigPath != tc.config {
				t.Errorf("unexpected args %+v", got)
			}
		})
	}
}

func TestParseLookupArgs(t *testing.T) {
	t.Parallel()
	got, err := cli.ParseLookupArgs([]string{"-plate", " ab1234 "})
	if err != nil {
		t.Fatalf("ParseLookupArgs: %v", err)
	}
	if got.Plate != "ab1234" {
		t.Errorf("expected trimmed plate, got %q", got.Plate)
	}

	got, err = cli.ParseLookupArgs([]string{"-backend", "chromedp", "CD5678"})
	if err != nil {
		t.Fatalf("ParseLookupArgs: %v", err)
	}
	if got.Plate != "CD5678" || got.Backend != "chromedp" {
		t.Errorf("unexpected args %+v", got)
	}

	if _, err := cli.ParseLookupArgs([]string{"-plate", "   "}); err == nil {
		t.Error("expected error for blank plate")
	}
}
