package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
db_path: /var/lib/vidctl/policy.db
browser:
  remote: ws://127.0.0.1:9222/devtools/browser/abc
  stealth: false
pages:
  - url: https://9gag.com
  - id: insta
    url: https://www.instagram.com/reels/
debounce:
  window: 250ms
overlays:
  - name: promo
    host: example.org
    selector: .promo
sinks:
  - type: stdout
  - type: webhook
    url: http://localhost:9000/reports
http:
  addr: 127.0.0.1:8790
  password_hash: $2a$10$abcdefghijklmnopqrstuv
watch:
  interval: 2s
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vidctl.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DBPath != "/var/lib/vidctl/policy.db" {
		t.Errorf("DBPath: got %q", cfg.DBPath)
	}
	if cfg.Browser.StealthEnabled() {
		t.Error("StealthEnabled: got true, want false")
	}
	if len(cfg.Pages) != 2 {
		t.Fatalf("Pages: got %d, want 2", len(cfg.Pages))
	}
	if cfg.Pages[0].ID != "page-1" {
		t.Errorf("Pages[0].ID: got %q, want %q", cfg.Pages[0].ID, "page-1")
	}
	if cfg.Pages[1].ID != "insta" {
		t.Errorf("Pages[1].ID: got %q, want %q", cfg.Pages[1].ID, "insta")
	}
	if cfg.Debounce.Window != 250*time.Millisecond {
		t.Errorf("Debounce.Window: got %v, want 250ms", cfg.Debounce.Window)
	}
	if cfg.Debounce.MaxBuffer != 1000 {
		t.Errorf("Debounce.MaxBuffer: got %d, want 1000", cfg.Debounce.MaxBuffer)
	}
	if len(cfg.Overlays) != 1 || cfg.Overlays[0].Selector != ".promo" {
		t.Errorf("Overlays: got %+v", cfg.Overlays)
	}
	if cfg.HTTP.Username != "admin" {
		t.Errorf("HTTP.Username: got %q, want %q", cfg.HTTP.Username, "admin")
	}
	if cfg.Watch.Interval != 2*time.Second {
		t.Errorf("Watch.Interval: got %v, want 2s", cfg.Watch.Interval)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath != "vidctl.db" {
		t.Errorf("DBPath: got %q, want %q", cfg.DBPath, "vidctl.db")
	}
	if !cfg.Browser.StealthEnabled() {
		t.Error("StealthEnabled: got false, want true")
	}
	if cfg.Browser.NavigateTimeout != 30*time.Second {
		t.Errorf("NavigateTimeout: got %v", cfg.Browser.NavigateTimeout)
	}
	if cfg.Watch.Interval != time.Second {
		t.Errorf("Watch.Interval: got %v, want 1s", cfg.Watch.Interval)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"page without url":  "pages:\n  - id: a\n",
		"duplicate page id": "pages:\n  - {id: a, url: http://x}\n  - {id: a, url: http://y}\n",
		"page bad scheme":   "pages:\n  - url: javascript:alert(1)\n",
		"webhook no url":    "sinks:\n  - type: webhook\n",
		"unknown sink":      "sinks:\n  - type: nats\n",
		"bad yaml":          "pages: [",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
