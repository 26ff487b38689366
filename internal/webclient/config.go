package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config selects and tunes a backend.
type Config struct {
	Client Client

	// Timeout bounds a whole request for the nethttp backend. Zero means 30s.
	Timeout time.Duration

	// IdleAfter is how long the chromedp backend waits with no network
	// activity before reading the document. Zero means 2s.
	IdleAfter time.Duration

	// Headless runs Chrome without a window. Only the chromedp backend reads it.
	Headless bool

	// UserAgent overrides the browser user agent of the chromedp backend.
	UserAgent string
}

// DefaultConfig returns the nethttp backend with its default timeout.
func DefaultConfig() Config {
	return Config{
		Client:    ClientNetHTTP,
		Timeout:   30 * time.Second,
		IdleAfter: 2 * time.Second,
		Headless:  true,
	}
}
