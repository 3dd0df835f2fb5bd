package posview

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/posview/dom"
	"github.com/hazyhaar/posview/internal/metrics"
	"github.com/hazyhaar/posview/viewmode"
)

func newServer(t *testing.T, f fixture) *httptest.Server {
	t.Helper()
	m := metrics.New()
	srv := httptest.NewServer(Handler(MakeEndpoints(f.s, nil), m, nil))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (int, map[string]any, http.Header) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, url, err)
		}
	}
	return resp.StatusCode, out, resp.Header
}

func TestHTTP_Mode(t *testing.T) {
	f := newSession(t, newFakePage(loadFixture(t), "point-of-sale"), "")
	f.s.Start(context.Background())
	waitFor(t, "activation", active(f.s))
	srv := newServer(t, f)

	code, body, hdr := do(t, "GET", srv.URL+"/mode", "")
	if code != 200 || body["mode"] != "grid" || body["active"] != true {
		t.Fatalf("GET /mode: %d %v", code, body)
	}
	if hdr.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	code, body, _ = do(t, "PUT", srv.URL+"/mode", `{"mode":" LIST "}`)
	if code != 200 || body["mode"] != "list" {
		t.Fatalf("PUT /mode: %d %v", code, body)
	}
	if f.s.Mode() != viewmode.List || f.page.marked(dom.MarkItemRow) != 9 {
		t.Fatal("PUT /mode did not apply list")
	}

	code, body, _ = do(t, "POST", srv.URL+"/mode/toggle", "")
	if code != 200 || body["mode"] != "grid" {
		t.Fatalf("POST /mode/toggle: %d %v", code, body)
	}
}

func TestHTTP_Errors(t *testing.T) {
	f := newSession(t, newFakePage(loadFixture(t), "sales-invoice"), "")
	f.s.Start(context.Background())
	srv := newServer(t, f)

	if code, body, _ := do(t, "PUT", srv.URL+"/mode", `{"mode":"tiles"}`); code != 400 {
		t.Fatalf("invalid mode: %d %v", code, body)
	}
	if code, _, _ := do(t, "PUT", srv.URL+"/mode", `not json`); code != 400 {
		t.Fatalf("bad body: %d", code)
	}
	if code, body, _ := do(t, "POST", srv.URL+"/reapply", ""); code != 409 {
		t.Fatalf("reapply off screen: %d %v", code, body)
	}
}

func TestHTTP_StatusAndInspect(t *testing.T) {
	f := newSession(t, newFakePage(loadFixture(t), "point-of-sale"), viewmode.List)
	f.s.Start(context.Background())
	waitFor(t, "activation", active(f.s))
	srv := newServer(t, f)

	code, body, _ := do(t, "GET", srv.URL+"/status", "")
	if code != 200 || body["active"] != true || body["mode"] != "list" {
		t.Fatalf("GET /status: %d %v", code, body)
	}
	last, _ := body["last_pass"].(map[string]any)
	if last["rows"] != float64(9) {
		t.Fatalf("last pass: %v", last)
	}

	code, body, _ = do(t, "GET", srv.URL+"/inspect", "")
	if code != 200 || body["root"] == nil {
		t.Fatalf("GET /inspect: %d %v", code, body)
	}
	if rows, _ := body["rows"].([]any); len(rows) != 9 {
		t.Fatalf("inspect rows: %d", len(rows))
	}
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	f := newSession(t, newFakePage(loadFixture(t), "point-of-sale"), "")
	srv := newServer(t, f)

	if code, body, _ := do(t, "GET", srv.URL+"/healthz", ""); code != 200 || body["status"] != "ok" {
		t.Fatalf("healthz: %d %v", code, body)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || !strings.Contains(string(data), "go_goroutines") {
		t.Fatalf("metrics: %d\n%s", resp.StatusCode, data)
	}
}
