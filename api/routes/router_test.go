package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fitlinehq/fitline-backend/pkg/config"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "router-test-secret", Issuer: "fitline-identity"}
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	return NewRouter(cfg, logg, nil, nil, Services{})
}

func TestHealthzIsPublic(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Fitline-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestV1RequiresAuth(t *testing.T) {
	router := testRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/products"},
		{http.MethodGet, "/v1/cart"},
		{http.MethodPost, "/v1/checkout"},
		{http.MethodGet, "/v1/orders"},
		{http.MethodGet, "/v1/notifications"},
		{http.MethodPost, "/internal/v1/orders/123/advance"},
	}

	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v2/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
