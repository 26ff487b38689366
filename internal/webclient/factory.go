package webclient

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/raysh454/plateproxy/internal/logging"
)

// ErrUnknownBackend is returned by NewWebClient for a name nobody registered.
var ErrUnknownBackend = errors.New("unknown webclient backend")

// BackendConstructor builds one backend from cfg.
type BackendConstructor func(cfg Config, logger logging.Logger) (WebClient, error)

// backendSet maps normalized backend names to constructors.
type backendSet struct {
	mu    sync.RWMutex
	ctors map[Client]BackendConstructor
}

var backends = &backendSet{ctors: map[Client]BackendConstructor{}}

// normalize folds case and surrounding space; empty means nethttp.
func (c Client) normalize() Client {
	n := Client(strings.ToLower(strings.TrimSpace(string(c))))
	if n == "" {
		return ClientNetHTTP
	}
	return n
}

func (b *backendSet) put(name Client, ctor BackendConstructor) {
	b.mu.Lock()
	b.ctors[name.normalize()] = ctor
	b.mu.Unlock()
}

func (b *backendSet) get(name Client) (BackendConstructor, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ctor, ok := b.ctors[name.normalize()]
	return ctor, ok
}

func (b *backendSet) names() []string {
	b.mu.RLock()
	out := make([]string, 0, len(b.ctors))
	for name := range b.ctors {
		out = append(out, string(name))
	}
	b.mu.RUnlock()
	slices.Sort(out)
	return out
}

// RegisterBackend makes ctor available under name, replacing any earlier
// constructor of the same name. Blank names and nil constructors are ignored.
func RegisterBackend(name string, ctor BackendConstructor) {
	if strings.TrimSpace(name) == "" || ctor == nil {
		return
	}
	backends.put(Client(name), ctor)
}

// NewWebClient builds the backend named by cfg.Client.
func NewWebClient(cfg Config, logger logging.Logger) (WebClient, error) {
	name := cfg.Client.normalize()
	ctor, ok := backends.get(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownBackend, name, strings.Join(backends.names(), ", "))
	}

	wc, err := ctor(cfg, logger)
	switch {
	case err != nil:
		return nil, fmt.Errorf("webclient %s: %w", name, err)
	case wc == nil:
		return nil, fmt.Errorf("webclient %s: constructor returned nil", name)
	}
	return wc, nil
}

// ListBackends returns the registered backend names, sorted.
func ListBackends() []string {
	return backends.names()
}
