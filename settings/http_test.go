package settings

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRoutes_DomainLifecycle(t *testing.T) {
	h := testEditor(t).Routes()

	if w := do(t, h, "POST", "/api/domains/excluded", `{"domain":"Example.com"}`); w.Code != http.StatusCreated {
		t.Fatalf("add: got %d, body %s", w.Code, w.Body)
	}
	if w := do(t, h, "POST", "/api/domains/excluded", `{"domain":"example.com"}`); w.Code != http.StatusConflict {
		t.Fatalf("duplicate add: got %d, want 409", w.Code)
	}
	if w := do(t, h, "POST", "/api/domains/excluded", `{"domain":"not a domain"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid add: got %d, want 400", w.Code)
	}

	w := do(t, h, "GET", "/api/domains/excluded", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d", w.Code)
	}
	var list struct {
		List    string   `json:"list"`
		Domains []string `json:"domains"`
	}
	json.NewDecoder(w.Body).Decode(&list)
	if list.List != "excludedDomains" || len(list.Domains) != 1 || list.Domains[0] != "example.com" {
		t.Errorf("list: got %+v", list)
	}

	w = do(t, h, "GET", "/api/check?host=www.example.com", "")
	var d Decision
	json.NewDecoder(w.Body).Decode(&d)
	if d.Activate {
		t.Error("check: excluded host must not activate")
	}

	if w := do(t, h, "DELETE", "/api/domains/excluded/example.com", ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", w.Code)
	}
	if w := do(t, h, "DELETE", "/api/domains/excluded/example.com", ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: got %d, want 404", w.Code)
	}
}

func TestRoutes_Mode(t *testing.T) {
	h := testEditor(t).Routes()

	if w := do(t, h, "PUT", "/api/mode", `{"mode":"include"}`); w.Code != http.StatusOK {
		t.Fatalf("set mode: got %d", w.Code)
	}
	if w := do(t, h, "POST", "/api/domains/active", `{"domain":"a.com"}`); w.Code != http.StatusCreated {
		t.Fatalf("add to active: got %d", w.Code)
	}

	w := do(t, h, "GET", "/api/policy", "")
	var snap struct {
		Mode     string   `json:"mode"`
		Included []string `json:"included_domains"`
	}
	json.NewDecoder(w.Body).Decode(&snap)
	if snap.Mode != "include" || len(snap.Included) != 1 {
		t.Errorf("policy: got %+v", snap)
	}
}

func TestRoutes_UnknownList(t *testing.T) {
	h := testEditor(t).Routes()
	if w := do(t, h, "GET", "/api/domains/blocked", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	h := testEditor(t).Routes(BasicAuth("admin", string(hash)))

	if w := do(t, h, "GET", "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health must stay public: got %d", w.Code)
	}
	if w := do(t, h, "GET", "/api/policy", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: got %d, want 401", w.Code)
	}

	req := httptest.NewRequest("GET", "/api/policy", nil)
	req.SetBasicAuth("admin", "wrong")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d, want 401", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/policy", nil)
	req.SetBasicAuth("admin", "s3cret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid credentials: got %d, want 200", w.Code)
	}
}

func TestRoutes_ShieldHeaders(t *testing.T) {
	h := testEditor(t).Routes()
	w := do(t, h, "HEAD", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("HEAD /health: got %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: got %q, want %q", got, "nosniff")
	}
	if w.Header().Get("X-Trace-ID") == "" {
		t.Error("X-Trace-ID missing")
	}
}

func TestRoutes_ErrorsLoggedWithTraceID(t *testing.T) {
	var buf bytes.Buffer
	e := testEditor(t)
	e.logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := e.Routes()

	w := do(t, h, "DELETE", "/api/domains/excluded/absent.com", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("remove absent: got %d, want 404", w.Code)
	}
	trace := w.Header().Get("X-Trace-ID")
	out := buf.String()
	if !strings.Contains(out, "settings: request rejected") {
		t.Errorf("log: missing rejection line in %q", out)
	}
	if trace == "" || !strings.Contains(out, "trace_id="+trace) {
		t.Errorf("log: trace id %q not attached in %q", trace, out)
	}
}
