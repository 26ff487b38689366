package demoserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/raysh454/plateproxy/internal/demoserver"
	"github.com/raysh454/plateproxy/internal/fetcher"
	"github.com/raysh454/plateproxy/internal/testutil"
	"github.com/raysh454/plateproxy/internal/webclient"
)

//
// ───────────────────────────────────────────────
//   Helpers
// ───────────────────────────────────────────────
//

func startDemo(t *testing.T, cfg demoserver.Config) (*demoserver.DemoServer, *httptest.Server) {
	t.Helper()
	ds := demoserver.NewDemoServer(cfg)
	ts := httptest.NewServer(ds)
	t.Cleanup(ts.Close)
	return ds, ts
}

func get(t *testing.T, rawURL string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func lookupFetcher(t *testing.T, origin string, attempts int, timeout time.Duration, sleeps *testutil.SleepRecorder) *fetcher.Fetcher {
	t.Helper()
	wc, err := webclient.NewNetHTTPClient(webclient.Config{Timeout: timeout}, nil, nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	t.Cleanup(func() { _ = wc.Close() })

	cfg := fetcher.Config{Origin: origin, Timeout: timeout, RetryAttempts: attempts, Backoff: time.Second}
	f, err := fetcher.New(cfg, wc, &testutil.DummyLogger{}, fetcher.WithSleep(sleeps.Sleep))
	if err != nil {
		t.Fatalf("fetcher.New: %v", err)
	}
	return f
}

//
// ───────────────────────────────────────────────
//   Results page
// ───────────────────────────────────────────────
//

func TestLookup_RendersResultsTable(t *testing.T) {
	t.Parallel()
	_, ts := startDemo(t, demoserver.DefaultConfig())

	resp, body := get(t, ts.URL+"/?patente=ab-1234")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := map[string]string{}
	doc.Find("#resultados td").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		got[class] = sel.Text()
	})
	want := map[string]string{
		"patente":     "AB1234",
		"marca":       "Toyota",
		"modelo":      "Yaris",
		"anio":        "2015",
		"color":       "Gris",
		"propietario": "José Muñoz Peña",
		"rut":         "12.345.678-5",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results table mismatch (-want +got):\n%s", diff)
	}
}

func TestLookup_UnknownPlate(t *testing.T) {
	t.Parallel()
	_, ts := startDemo(t, demoserver.DefaultConfig())

	_, body := get(t, ts.URL+"/?patente=ZZ9999")
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Find("#resultados").Length() != 0 {
		t.Error("expected no results table")
	}
	if msg := doc.Find(".sin-resultados").Text(); !strings.Contains(msg, "ZZ9999") {
		t.Errorf("expected no-results message naming the plate, got %q", msg)
	}
	if v, _ := doc.Find("input[name=patente]").Attr("value"); v != "ZZ9999" {
		t.Errorf("expected search box to keep the query, got %q", v)
	}
}

func TestLookup_Windows1252(t *testing.T) {
	t.Parallel()
	_, ts := startDemo(t, demoserver.Config{Charset: "windows-1252"})

	resp, body := get(t, ts.URL+"/?patente=AB1234")
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=windows-1252" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !bytes.Contains(body, []byte("Mu\xf1oz")) {
		t.Error("expected ñ encoded as the single byte 0xF1")
	}
}

func TestLookupVehicle_Normalizes(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"AB1234", "ab1234", " ab-12 34 ", "AB.1234"} {
		v, ok := demoserver.LookupVehicle(in)
		if !ok || v.Plate != "AB1234" {
			t.Errorf("LookupVehicle(%q) = %+v, %v", in, v, ok)
		}
	}
	if _, ok := demoserver.LookupVehicle("XX0000"); ok {
		t.Error("expected unknown plate to be missing")
	}
}

//
// ───────────────────────────────────────────────
//   Failure injection
// ───────────────────────────────────────────────
//

func TestFailStatus_CountsDown(t *testing.T) {
	t.Parallel()
	ds, ts := startDemo(t, demoserver.DefaultConfig())

	resp, err := http.PostForm(ts.URL+"/demo/fail", url.Values{"mode": {"status"}, "status": {"500"}, "count": {"2"}})
	if err != nil {
		t.Fatalf("POST /demo/fail: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var codes []int
	for i := 0; i < 3; i++ {
		r, _ := get(t, ts.URL+"/?patente=AB1234")
		codes = append(codes, r.StatusCode)
	}
	if diff := cmp.Diff([]int{500, 500, 200}, codes); diff != "" {
		t.Errorf("status sequence mismatch (-want +got):\n%s", diff)
	}

	st := ds.State()
	if st.Hits != 3 || st.Mode != demoserver.FailNone {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestFail_UntilReset(t *testing.T) {
	t.Parallel()
	ds, ts := startDemo(t, demoserver.DefaultConfig())
	ds.Fail(demoserver.FailurePlan{Mode: demoserver.FailStatus, Status: http.StatusServiceUnavailable, Remaining: -1})

	for i := 0; i < 4; i++ {
		if r, _ := get(t, ts.URL+"/?patente=AB1234"); r.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("request %d: expected 503, got %d", i, r.StatusCode)
		}
	}

	resp, err := http.Post(ts.URL+"/demo/reset", "", nil)
	if err != nil {
		t.Fatalf("POST /demo/reset: %v", err)
	}
	var st demoserver.State
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	resp.Body.Close()
	if st.Hits != 0 || st.Mode != demoserver.FailNone {
		t.Errorf("expected cleared state, got %+v", st)
	}
	if r, _ := get(t, ts.URL+"/?patente=AB1234"); r.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after reset, got %d", r.StatusCode)
	}
}

func TestFail_RejectsBadInput(t *testing.T) {
	t.Parallel()
	_, ts := startDemo(t, demoserver.DefaultConfig())

	for _, form := range []url.Values{
		{"mode": {"explode"}},
		{"mode": {"status"}, "count": {"-1"}},
		{"mode": {"slow"}, "delay_ms": {"soon"}},
	} {
		resp, err := http.PostForm(ts.URL+"/demo/fail", form)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("form %v: expected 400, got %d", form, resp.StatusCode)
		}
	}
}

func TestControlPanel(t *testing.T) {
	t.Parallel()
	_, ts := startDemo(t, demoserver.DefaultConfig())

	_, body := get(t, ts.URL+"/demo/control")
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n := doc.Find("a[href^='/?patente=']").Length(); n != 4 {
		t.Errorf("expected 4 known plate links, got %d", n)
	}
	if doc.Find("form[action='/demo/fail']").Length() != 1 {
		t.Error("expected failure injection form")
	}
}

//
// ───────────────────────────────────────────────
//   Fetcher against the demo site
// ───────────────────────────────────────────────
//

func TestFetcher_RecoversFromInjectedFailures(t *testing.T) {
	t.Parallel()
	ds, ts := startDemo(t, demoserver.DefaultConfig())
	ds.Fail(demoserver.FailurePlan{Mode: demoserver.FailStatus, Status: http.StatusBadGateway, Remaining: 2})

	sleeps := &testutil.SleepRecorder{}
	out := lookupFetcher(t, ts.URL+"/", 3, 2*time.Second, sleeps).Fetch(t.Context(), "AB1234")
	if !out.OK() {
		t.Fatalf("expected success, got %+v", out)
	}
	if !strings.Contains(out.HTML, "Toyota") {
		t.Errorf("expected the results page, got %q", out.HTML)
	}
	if diff := cmp.Diff([]time.Duration{time.Second, 2 * time.Second}, sleeps.Delays); diff != "" {
		t.Errorf("backoff mismatch (-want +got):\n%s", diff)
	}
	if hits := ds.State().Hits; hits != 3 {
		t.Errorf("expected 3 lookups, got %d", hits)
	}
}

func TestFetcher_DroppedConnectionsExhaust(t *testing.T) {
	t.Parallel()
	ds, ts := startDemo(t, demoserver.DefaultConfig())
	ds.Fail(demoserver.FailurePlan{Mode: demoserver.FailDrop, Remaining: -1})

	out := lookupFetcher(t, ts.URL+"/", 2, 2*time.Second, &testutil.SleepRecorder{}).Fetch(t.Context(), "AB1234")
	if out.OK() || out.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 failure, got %+v", out)
	}
	if out.Message == "" {
		t.Error("expected the transport error message")
	}
}

func TestFetcher_SlowAnswerTimesOutThenSucceeds(t *testing.T) {
	t.Parallel()
	ds, ts := startDemo(t, demoserver.DefaultConfig())
	ds.Fail(demoserver.FailurePlan{Mode: demoserver.FailSlow, Delay: 5 * time.Second, Remaining: 1})

	out := lookupFetcher(t, ts.URL+"/", 2, 200*time.Millisecond, &testutil.SleepRecorder{}).Fetch(t.Context(), "CD5678")
	if !out.OK() {
		t.Fatalf("expected success on the second attempt, got %+v", out)
	}
	if !strings.Contains(out.HTML, "Nissan") {
		t.Errorf("expected the results page, got %q", out.HTML)
	}
}

func TestFetcher_DecodesLabelledWindows1252(t *testing.T) {
	t.Parallel()
	_, ts := startDemo(t, demoserver.Config{Charset: "windows-1252"})

	out := lookupFetcher(t, ts.URL+"/", 1, 2*time.Second, &testutil.SleepRecorder{}).Fetch(t.Context(), "BBCL12")
	if !out.OK() {
		t.Fatalf("expected success, got %+v", out)
	}
	if !strings.Contains(out.HTML, "María Ñúñez Soto") {
		t.Errorf("expected decoded owner name, got %q", out.HTML)
	}
}

func TestFetcher_UnlabelledWindows1252IsSubstituted(t *testing.T) {
	t.Parallel()
	_, ts := startDemo(t, demoserver.Config{Charset: "windows-1252", OmitCharset: true})

	out := lookupFetcher(t, ts.URL+"/", 1, 2*time.Second, &testutil.SleepRecorder{}).Fetch(t.Context(), "AB1234")
	if !out.OK() {
		t.Fatalf("expected success, got %+v", out)
	}
	if !strings.Contains(out.HTML, "Jos\uFFFD Mu\uFFFDoz") {
		t.Errorf("expected U+FFFD for undeclared bytes, got %q", out.HTML)
	}
}
