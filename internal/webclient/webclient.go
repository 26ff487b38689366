package webclient

import "context"

// WebClient performs outbound requests on behalf of the proxy. Backends are
// selected by name through NewWebClient.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get is a convenience method for simple GET requests
	Get(ctx context.Context, url string) (*Response, error)

	Close() error
}
