package demoserver

// Config holds configuration for the demo lookup site.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int

	// Charset is the encoding of the results page: "utf-8" (default) or
	// "windows-1252".
	Charset string

	// OmitCharset leaves the charset parameter off the Content-Type header.
	OmitCharset bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:    9999,
		Charset: "utf-8",
	}
}
