package webclient

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/plateproxy/internal/logging"
)

const (
	defaultIdleAfter = 2 * time.Second
	// upper bound on waiting for idle once the load event fired
	maxIdleWait = 15 * time.Second
)

// ChromedpClient renders pages in a shared headless Chrome, one tab per
// request. It only supports GET. The browser is started on first use.
type ChromedpClient struct {
	idleAfter time.Duration
	logger    logging.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	startOnce     sync.Once
	startErr      error
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromedpClient prepares a Chrome allocator from cfg. No browser process
// is launched until the first Do.
func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	idleAfter := cfg.IdleAfter
	if idleAfter <= 0 {
		idleAfter = defaultIdleAfter
	}

	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	componentLogger := logger.With(logging.Field{Key: "backend", Value: string(ClientChromedp)})
	componentLogger.Debug("created chromedp webclient",
		logging.Field{Key: "idle_after", Value: idleAfter.String()},
		logging.Field{Key: "headless", Value: cfg.Headless})

	return &ChromedpClient{
		idleAfter:   idleAfter,
		logger:      componentLogger,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}, nil
}

func (c *ChromedpClient) start() error {
	c.startOnce.Do(func() {
		c.browserCtx, c.browserCancel = chromedp.NewContext(c.allocCtx)
		if err := chromedp.Run(c.browserCtx); err != nil {
			c.startErr = fmt.Errorf("start browser: %w", err)
		}
	})
	return c.startErr
}

// Do navigates a fresh tab to req.URL and returns the rendered document.
// StatusCode is the main document's HTTP status, or 0 if Chrome did not
// report one.
func (c *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if req.Method != "" && !strings.EqualFold(req.Method, http.MethodGet) {
		return nil, fmt.Errorf("chromedp: method %s not supported", req.Method)
	}
	if err := c.start(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		mu      sync.Mutex
		status  int64
		headers network.Headers
	)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		mu.Lock()
		if status == 0 {
			status = e.Response.Status
			headers = e.Response.Headers
		}
		mu.Unlock()
	})
	idle, arm := watchNetworkIdle(tabCtx, c.idleAfter)

	extra := network.Headers{}
	for k, vs := range req.Headers {
		if len(vs) > 0 {
			extra[k] = strings.Join(vs, ", ")
		}
	}

	c.logger.Debug("navigating", logging.Field{Key: "url", Value: req.URL})
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(extra),
		chromedp.Navigate(req.URL),
	)
	if err != nil {
		return nil, c.ctxErr(ctx, fmt.Errorf("navigate: %w", err))
	}
	arm()

	select {
	case <-idle:
	case <-time.After(maxIdleWait):
		c.logger.Debug("network never went idle", logging.Field{Key: "url", Value: req.URL})
	case <-tabCtx.Done():
		return nil, c.ctxErr(ctx, tabCtx.Err())
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, c.ctxErr(ctx, fmt.Errorf("read document: %w", err))
	}

	mu.Lock()
	defer mu.Unlock()
	return &Response{
		Request:    req,
		Body:       []byte(html),
		Headers:    documentHeaders(headers),
		StatusCode: int(status),
		FetchedAt:  time.Now(),
	}, nil
}

// ctxErr prefers the caller's context error so timeouts read as timeouts.
func (c *ChromedpClient) ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("chromedp: %w", ctx.Err())
	}
	return fmt.Errorf("chromedp: %w", err)
}

// Get is a convenience method for simple GET requests
func (c *ChromedpClient) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (c *ChromedpClient) Close() error {
	if c.browserCancel != nil {
		c.browserCancel()
	}
	c.allocCancel()
	c.logger.Debug("closing chromedp webclient")
	return nil
}

// watchNetworkIdle signals once no request has been in flight for idleAfter.
// The timer only starts after arm is called or the in-flight count drops to 0.
func watchNetworkIdle(ctx context.Context, idleAfter time.Duration) (<-chan struct{}, func()) {
	idleChan := make(chan struct{}, 1)
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() {
					idleChan <- struct{}{}
				})
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				atomic.StoreInt32(&activeReqs, 0)
				startTimer()
			}
		}
	})

	return idleChan, startTimer
}

func toHTTPHeader(h network.Headers) http.Header {
	out := http.Header{}
	for k, v := range h {
		out.Set(k, fmt.Sprint(v))
	}
	return out
}

// documentHeaders returns the main document's response headers with the
// charset of Content-Type replaced by utf-8. OuterHTML is already decoded by
// Chrome, so the charset the site declared no longer describes the body.
func documentHeaders(h network.Headers) http.Header {
	out := toHTTPHeader(h)
	mediaType := "text/html"
	if ct := out.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			mediaType = mt
		}
	}
	out.Set("Content-Type", mime.FormatMediaType(mediaType, map[string]string{"charset": "utf-8"}))
	return out
}
