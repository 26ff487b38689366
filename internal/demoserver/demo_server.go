package demoserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/encoding/charmap"
)

// FailureMode selects how the lookup page misbehaves while a failure plan is
// active.
type FailureMode string

const (
	FailNone   FailureMode = ""
	FailStatus FailureMode = "status" // answer with Status
	FailDrop   FailureMode = "drop"   // close the connection without a response
	FailSlow   FailureMode = "slow"   // wait Delay before answering normally
)

// FailurePlan is the failure injected into the next Remaining lookups.
// Remaining -1 keeps failing until reset.
type FailurePlan struct {
	Mode      FailureMode   `json:"mode"`
	Status    int           `json:"status,omitempty"`
	Delay     time.Duration `json:"delay,omitempty"`
	Remaining int           `json:"remaining"`
}

// State is the JSON document served by /demo/state.
type State struct {
	FailurePlan
	Hits int `json:"hits"`
}

// DemoServer is a stand-in for the plate lookup site. It renders a results
// page for ?patente= and can be told to fail on demand.
type DemoServer struct {
	cfg    Config
	router chi.Router

	mu   sync.Mutex
	plan FailurePlan
	hits int
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config) *DemoServer {
	if cfg.Charset == "" {
		cfg.Charset = "utf-8"
	}
	s := &DemoServer{cfg: cfg, router: chi.NewRouter()}
	s.routes()
	return s
}

func (s *DemoServer) routes() {
	s.router.Get("/", s.lookupHandler)
	s.router.Get("/demo/control", s.controlPanelHandler)
	s.router.Get("/demo/state", s.stateHandler)
	s.router.Post("/demo/fail", s.failHandler)
	s.router.Post("/demo/reset", s.resetHandler)
}

func (s *DemoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start starts the demo server.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo lookup site starting on http://localhost%s\n", addr)
	fmt.Printf("Control panel at http://localhost%s/demo/control\n", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// Fail installs a failure plan, replacing any previous one.
func (s *DemoServer) Fail(plan FailurePlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
}

// Reset clears the failure plan and the hit counter.
func (s *DemoServer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = FailurePlan{}
	s.hits = 0
}

// State returns the current failure plan and hit count.
func (s *DemoServer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{FailurePlan: s.plan, Hits: s.hits}
}

// nextFailure counts a lookup and consumes one failure from the plan.
func (s *DemoServer) nextFailure() FailurePlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++
	if s.plan.Mode == FailNone || s.plan.Remaining == 0 {
		return FailurePlan{}
	}
	current := s.plan
	if s.plan.Remaining > 0 {
		s.plan.Remaining--
		if s.plan.Remaining == 0 {
			s.plan = FailurePlan{}
		}
	}
	return current
}

// lookupHandler serves the results page for ?patente=.
func (s *DemoServer) lookupHandler(w http.ResponseWriter, r *http.Request) {
	switch f := s.nextFailure(); f.Mode {
	case FailStatus:
		code := f.Status
		if code == 0 {
			code = http.StatusServiceUnavailable
		}
		http.Error(w, http.StatusText(code), code)
		return
	case FailDrop:
		panic(http.ErrAbortHandler)
	case FailSlow:
		select {
		case <-time.After(f.Delay):
		case <-r.Context().Done():
			return
		}
	}

	query := strings.TrimSpace(r.URL.Query().Get("patente"))
	page := resultsPage{Query: query, Charset: s.cfg.Charset}
	if query != "" {
		page.Vehicle, page.Found = LookupVehicle(query)
	}

	var buf bytes.Buffer
	if err := resultsTmpl.Execute(&buf, page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	body, err := s.encode(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	contentType := "text/html"
	if !s.cfg.OmitCharset {
		contentType += "; charset=" + s.cfg.Charset
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *DemoServer) encode(utf8Body []byte) ([]byte, error) {
	switch strings.ToLower(s.cfg.Charset) {
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewEncoder().Bytes(utf8Body)
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewEncoder().Bytes(utf8Body)
	default:
		return utf8Body, nil
	}
}

// failHandler installs a failure plan from form values: mode, status, count
// (0 means until reset) and delay_ms.
func (s *DemoServer) failHandler(w http.ResponseWriter, r *http.Request) {
	mode := FailureMode(r.FormValue("mode"))
	switch mode {
	case FailStatus, FailDrop, FailSlow:
	default:
		http.Error(w, "mode must be status, drop or slow", http.StatusBadRequest)
		return
	}

	plan := FailurePlan{Mode: mode, Remaining: 1}
	ints := map[string]*int{"status": &plan.Status, "count": &plan.Remaining}
	for key, dst := range ints {
		v := r.FormValue(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid "+key, http.StatusBadRequest)
			return
		}
		*dst = n
	}
	if plan.Remaining == 0 {
		plan.Remaining = -1
	}
	if mode == FailStatus && plan.Status == 0 {
		plan.Status = http.StatusServiceUnavailable
	}
	if v := r.FormValue("delay_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			http.Error(w, "invalid delay_ms", http.StatusBadRequest)
			return
		}
		plan.Delay = time.Duration(ms) * time.Millisecond
	}

	s.Fail(plan)
	writeState(w, s.State())
}

func (s *DemoServer) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.Reset()
	writeState(w, s.State())
}

func (s *DemoServer) stateHandler(w http.ResponseWriter, r *http.Request) {
	writeState(w, s.State())
}

// controlPanelHandler serves the control panel for failure injection.
func (s *DemoServer) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	st := s.State()
	plates := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		plates = append(plates, v.Plate)
	}

	tmpl := template.Must(template.New("control").Parse(controlPanelHTML))
	data := struct {
		State
		Plates []string
	}{State: st, Plates: plates}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = tmpl.Execute(w, data)
}

func writeState(w http.ResponseWriter, st State) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}
