package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer secret-key", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer wrong-key", http.StatusUnauthorized},
		{"basic scheme", "Basic secret-key", http.StatusUnauthorized},
		{"bare token", "secret-key", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			requireAuth("secret-key", next).ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if called != (tt.want == http.StatusOK) {
				t.Errorf("next called = %v", called)
			}
		})
	}
}

func TestMutatingRoutesProtected(t *testing.T) {
	f := newFixture("secret")

	routes := []struct{ method, path, body string }{
		{http.MethodPut, "/api/v1/targets", "[]"},
		{http.MethodPost, "/api/v1/snapshots", "{}"},
		{http.MethodPut, "/api/v1/assets/BTC", "{}"},
		{http.MethodPost, "/api/v1/rates/refresh", ""},
		{http.MethodPost, "/api/v1/rates", "{}"},
		{http.MethodDelete, "/api/v1/rates/cache", ""},
		{http.MethodDelete, "/api/v1/rates/cache/BTC", ""},
	}
	for _, r := range routes {
		if w := f.do(r.method, r.path, r.body, ""); w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", r.method, r.path, w.Code)
		}
	}
}

func TestReadRoutesOpen(t *testing.T) {
	f := newFixture("secret")

	for _, path := range []string{"/api/v1/valuation", "/api/v1/allocation", "/api/v1/rebalance", "/api/v1/targets", "/api/v1/snapshots", "/api/v1/assets", "/api/v1/rates/BTC"} {
		if w := f.do(http.MethodGet, path, "", ""); w.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", path, w.Code)
		}
	}
}

func TestNewServerTimeouts(t *testing.T) {
	srv := NewServer("9090", Services{}, "")
	if srv.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", srv.Addr)
	}
	if srv.ReadTimeout == 0 || srv.WriteTimeout == 0 {
		t.Error("server timeouts should be set")
	}
}
