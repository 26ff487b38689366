package server

import "fmt"

const DefaultProxyPath = "/api/proxy"

type Config struct {
	// Port is the local HTTP port; the server listens on all interfaces.
	Port int

	// Root is the directory served for every path other than ProxyPath.
	Root string

	// ProxyPath is the only path handled by the plate lookup.
	ProxyPath string
}

func DefaultConfig() Config {
	return Config{
		Port:      8000,
		Root:      ".",
		ProxyPath: DefaultProxyPath,
	}
}

// ListenAddr is the address passed to http.Server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
