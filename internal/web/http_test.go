package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/winspan/gfwlist2smartdns/internal/dns"
)

type staticFetcher map[string]string

func (f staticFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	b, ok := f[source]
	if !ok {
		return nil, fmt.Errorf("no such document: %s", source)
	}
	return []byte(b), nil
}

func newTestRouter(t *testing.T, docs staticFetcher) (*chi.Mux, *dns.SyncManager) {
	t.Helper()

	cfg := &dns.Config{}
	cfg.Sources.GFWList = "mem://gfwlist"
	cfg.Sources.GFWListEncoding = dns.EncodingPlain
	cfg.Sources.TLDs = "mem://tlds"
	cfg.Output.File = filepath.Join(t.TempDir(), "gfwlist.conf")

	syncer := dns.NewSyncManager(cfg, docs)
	r := chi.NewRouter()
	BindRoutes(r, syncer, Options{AdminToken: "secret", MetricsPath: "/metrics"})
	return r, syncer
}

func testDocs() staticFetcher {
	return staticFetcher{
		"mem://gfwlist": "||example.com\n||www.example.org\n",
		"mem://tlds":    "com\norg\n",
	}
}

func do(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, testDocs())

	w := do(r, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"ok":true}` {
		t.Errorf("body = %q", body)
	}
}

func TestConfBeforeSync(t *testing.T) {
	r, _ := newTestRouter(t, testDocs())

	w := do(r, http.MethodGet, "/gfwlist.conf", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestSync_Unauthorized(t *testing.T) {
	r, _ := newTestRouter(t, testDocs())

	for _, token := range []string{"", "wrong"} {
		w := do(r, http.MethodPost, "/api/sync", token)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want %d", token, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestSync_NoTokenConfigured(t *testing.T) {
	cfg := &dns.Config{}
	r := chi.NewRouter()
	BindRoutes(r, dns.NewSyncManager(cfg, testDocs()), Options{})

	w := do(r, http.MethodPost, "/api/sync", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	w = do(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("metrics status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSyncAndServeConf(t *testing.T) {
	r, _ := newTestRouter(t, testDocs())

	w := do(r, http.MethodPost, "/api/sync", "secret")
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d, body %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/gfwlist.conf", "")
	if w.Code != http.StatusOK {
		t.Fatalf("conf status = %d", w.Code)
	}
	want := "nameserver /example.com/foreign\nnameserver /example.org/foreign\n"
	if w.Body.String() != want {
		t.Errorf("conf = %q, want %q", w.Body.String(), want)
	}

	w = do(r, http.MethodGet, "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", w.Code)
	}
	var status struct {
		SuccessfulSyncs int64  `json:"successful_syncs"`
		Group           string `json:"group"`
		LastStats       struct {
			Domains int `json:"domains"`
		} `json:"last_stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.SuccessfulSyncs != 1 || status.Group != "foreign" || status.LastStats.Domains != 2 {
		t.Errorf("status = %+v", status)
	}

	w = do(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "gfwlist_sync_total") {
		t.Errorf("metrics status = %d", w.Code)
	}
}

func TestSync_Failure(t *testing.T) {
	docs := testDocs()
	delete(docs, "mem://tlds")
	r, _ := newTestRouter(t, docs)

	w := do(r, http.MethodPost, "/api/sync", "secret")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != false || body["error"] == "" {
		t.Errorf("body = %v", body)
	}
}
