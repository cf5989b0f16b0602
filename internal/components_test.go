package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func testComponents(t *testing.T, mutate func(*Config)) (*components, http.Handler) {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Content.Root = filepath.Join(dir, "content")
	cfg.Media.Root = filepath.Join(dir, "public")
	cfg.Session.Path = filepath.Join(dir, "sessions.db")
	cfg.Auth.Mode = AuthModeDisabled
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	comps, err := newComponents(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("newComponents: %v", err)
	}
	t.Cleanup(func() { comps.Close() })

	h, err := comps.httpHandler()
	if err != nil {
		t.Fatalf("httpHandler: %v", err)
	}
	return comps, h
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	_, h := testComponents(t, nil)

	for _, p := range []string{"/health/live", "/health/ready"} {
		w := serve(h, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s = %d", p, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"ok"`) {
			t.Errorf("%s body = %s", p, w.Body.String())
		}
	}
}

func TestReadyWithSessions(t *testing.T) {
	comps, h := testComponents(t, func(c *Config) {
		c.Auth.Mode = AuthModePassword
		c.Auth.Password = "s3cret"
	})
	if comps.sessions == nil || !comps.auth.Enabled() {
		t.Fatal("password mode should open the session store")
	}
	if w := serve(h, httptest.NewRequest(http.MethodGet, "/health/ready", nil)); w.Code != http.StatusOK {
		t.Errorf("ready = %d", w.Code)
	}

	body, _ := json.Marshal(map[string]string{"filename": "a.md"})
	req := httptest.NewRequest(http.MethodPost, "/api/documents", bytes.NewReader(body))
	if w := serve(h, req); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated save = %d, want 401", w.Code)
	}
}

func TestAPIAndMetricsWiring(t *testing.T) {
	_, h := testComponents(t, nil)

	body, _ := json.Marshal(map[string]string{"filename": "a.md", "title": "A", "content": "x"})
	if w := serve(h, httptest.NewRequest(http.MethodPost, "/api/documents", bytes.NewReader(body))); w.Code != http.StatusOK {
		t.Fatalf("save = %d, body = %s", w.Code, w.Body.String())
	}
	if w := serve(h, httptest.NewRequest(http.MethodGet, "/api/documents/a.md", nil)); w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}

	w := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d", w.Code)
	}
	text := w.Body.String()
	if !strings.Contains(text, `route="/api/documents/*"`) {
		t.Errorf("metrics missing route label:\n%s", text)
	}
	if !strings.Contains(text, "go_goroutines") {
		t.Error("metrics missing Go collector")
	}
}

func TestUploadedAssetIsServed(t *testing.T) {
	_, h := testComponents(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "notes.txt")
	_, _ = part.Write([]byte("hello asset"))
	_ = mw.WriteField("folder", "files")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(h, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var res struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}

	w = serve(h, httptest.NewRequest(http.MethodGet, res.URL, nil))
	if w.Code != http.StatusOK || w.Body.String() != "hello asset" {
		t.Errorf("GET %s = %d %q", res.URL, w.Code, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	_, h := testComponents(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/documents", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := serve(h, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/documents", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = serve(h, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow-origin for foreign origin: %q", got)
	}
}
