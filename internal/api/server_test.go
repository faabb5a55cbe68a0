package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docflow/internal/config"
	"docflow/internal/providers"
)

func newBareServer() *Server {
	return NewServer(config.Config{}, nil, nil, nil, nil, nil, nil, nil, nil, nil)
}

func TestHealthz(t *testing.T) {
	srv := newBareServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newBareServer()
	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}

func TestSearchRequiresParams(t *testing.T) {
	srv := newBareServer()
	for _, target := range []string{"/search", "/search?project_id=p", "/search?q=x"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", target, rr.Code)
		}
	}
}

func TestSearchRejectsNonIntegerTopK(t *testing.T) {
	srv := newBareServer()
	req := httptest.NewRequest(http.MethodGet, "/search?project_id=p&q=x&top_k=many", nil)
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rr.Code)
	}
}

func TestSearchParamsClampTopK(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{"top_k=7", 7},
		{"top_k=1", 5},
		{"top_k=100", 20},
	}
	for _, c := range cases {
		target := "/search?project_id=p&q=x"
		if c.raw != "" {
			target += "&" + c.raw
		}
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		_, _, topK, ok := searchParams(rr, req)
		if !ok {
			t.Fatalf("%s: params rejected", target)
		}
		if topK != c.want {
			t.Errorf("%s: topK = %d, want %d", target, topK, c.want)
		}
	}
}

func TestAskRejectsUnknownProvider(t *testing.T) {
	manager, err := providers.NewManager(config.Config{LLMProviders: "mock", EmbedProviders: "mock", EmbedDim: 16})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	srv := newBareServer()
	srv.asker = NewAsker(nil, manager)

	body := strings.NewReader(`{"project_id":"p","question":"q","provider":"nope"}`)
	req := httptest.NewRequest(http.MethodPost, "/ask", body)
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rr.Code)
	}
}

func TestGraphRequiresProjectID(t *testing.T) {
	srv := newBareServer()
	req := httptest.NewRequest(http.MethodGet, "/graph", nil)
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rr.Code)
	}
}

func TestAskRejectsBadBody(t *testing.T) {
	srv := newBareServer()
	req := httptest.NewRequest(http.MethodPost, "/ask", nil)
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rr.Code)
	}
}
