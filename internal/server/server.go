package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/plateproxy/internal/fetcher"
	"github.com/raysh454/plateproxy/internal/logging"
	_ "github.com/raysh454/plateproxy/internal/server/docs" // swagger spec
)

const plateRequired = "Patente requerida"

// PlateFetcher is the lookup the proxy route delegates to.
type PlateFetcher interface {
	Fetch(ctx context.Context, plate string) fetcher.Outcome
}

// Server serves the plate proxy route and static files for everything else.
type Server struct {
	cfg     Config
	fetcher PlateFetcher
	router  chi.Router
	static  http.Handler
	logger  logging.Logger
}

// NewServer wires the router. f performs the lookups; logger may be nil.
func NewServer(cfg Config, f PlateFetcher, logger logging.Logger) (*Server, error) {
	if f == nil {
		return nil, errors.New("server: fetcher is nil")
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}
	if cfg.ProxyPath == "" {
		cfg.ProxyPath = DefaultProxyPath
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}

	s := &Server{
		cfg:     cfg,
		fetcher: f,
		router:  chi.NewRouter(),
		static:  http.FileServer(http.Dir(cfg.Root)),
		logger:  logger.With(logging.Field{Key: "component", Value: "server"}),
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Options(s.cfg.ProxyPath, s.optionsHandler("GET, OPTIONS"))
	r.Get(s.cfg.ProxyPath, s.handleProxy)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Everything else is a static file.
	r.NotFound(s.static.ServeHTTP)
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusNoContent)
	}
}

// accessLog logs every request except the proxy route, which stays quiet so
// the developer's terminal is not flooded by lookups.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == s.cfg.ProxyPath {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http_request",
			logging.Field{Key: "method", Value: r.Method},
			logging.Field{Key: "path", Value: r.URL.Path},
			logging.Field{Key: "status", Value: ww.Status()},
			logging.Field{Key: "bytes", Value: ww.BytesWritten()},
			logging.Field{Key: "duration", Value: time.Since(start).String()},
			logging.Field{Key: "request_id", Value: RequestIDFromContext(r.Context())})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      0, // a lookup may spend several timeouts retrying
	}
}

// --- JSON helpers ---

// writeJSON sends v with an exact Content-Length and the permissive CORS
// header every proxy response carries.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := EncodeJSON(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// EncodeJSON encodes v without HTML escaping. The result ends in a newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OutcomeResponse maps a fetch outcome to the status and body of the proxy
// route. Failures without a client error status become 502.
func OutcomeResponse(out fetcher.Outcome) (int, any) {
	if out.OK() {
		return http.StatusOK, ProxyResponse{HTML: out.HTML}
	}
	status := out.StatusCode
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	return status, ErrorResponse{Error: out.Message}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

// handleProxy godoc
// @Summary Look up a vehicle plate
// @Description Fetches the lookup page for the plate from the origin site and returns its HTML untouched.
// @Tags proxy
// @Produce json
// @Param plate query string true "Plate to look up" example(AB1234)
// @Success 200 {object} ProxyResponse
// @Failure 400 {object} ErrorResponse "Missing plate, or an upstream 4xx passed through"
// @Failure 502 {object} ErrorResponse "Upstream unreachable or failing after all retries"
// @Router /api/proxy [get]
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	plate := firstPlate(r)
	if plate == "" {
		writeError(w, http.StatusBadRequest, plateRequired)
		return
	}

	status, body := OutcomeResponse(s.fetcher.Fetch(r.Context(), plate))
	writeJSON(w, status, body)
}

// firstPlate returns the first non-empty plate value, trimmed. Empty values
// such as the one in "plate=&plate=AB1234" are skipped.
func firstPlate(r *http.Request) string {
	for _, v := range r.URL.Query()["plate"] {
		if v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
