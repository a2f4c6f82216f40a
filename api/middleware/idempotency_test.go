package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/fitlinehq/fitline-backend/pkg/types"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		covered bool
	}{
		{"checkout is critical", http.MethodPost, "/v1/checkout", criticalIdempotencyTTL, true},
		{"cancel is critical", http.MethodPost, "/v1/orders/{orderId}/cancel", criticalIdempotencyTTL, true},
		{"receive is critical", http.MethodPost, "/v1/orders/{orderId}/receive", criticalIdempotencyTTL, true},
		{"repeat is critical", http.MethodPost, "/v1/orders/{orderId}/repeat", criticalIdempotencyTTL, true},
		{"returns is critical", http.MethodPost, "/v1/returns", criticalIdempotencyTTL, true},
		{"cart add gets a day", http.MethodPost, "/v1/cart/items", defaultIdempotencyTTL, true},
		{"measurements put gets a day", http.MethodPut, "/v1/measurements", defaultIdempotencyTTL, true},
		{"reads are uncovered", http.MethodGet, "/v1/orders", 0, false},
		{"cart delete is uncovered", http.MethodDelete, "/v1/cart/items/{itemId}", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ttl, ok := routeTTL(tc.method, tc.pattern)
			if ok != tc.covered {
				t.Fatalf("covered=%v, want %v", ok, tc.covered)
			}
			if ttl != tc.want {
				t.Fatalf("ttl=%v, want %v", ttl, tc.want)
			}
		})
	}
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := requestWithPattern(http.MethodPost, "/v1/checkout", "/v1/checkout", strings.NewReader("{}"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order":"FL-1"}}`))
	}))

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/v1/checkout", "/v1/checkout", strings.NewReader(`{"address_id":null}`))
		req.Header.Set("Idempotency-Key", "abc-123")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d", i, resp.Code)
		}
		if !strings.Contains(resp.Body.String(), "FL-1") {
			t.Fatalf("attempt %d: unexpected body %s", i, resp.Body.String())
		}
	}
	if calls != 1 {
		t.Fatalf("handler should run once, ran %d times", calls)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	first := requestWithPattern(http.MethodPost, "/v1/checkout", "/v1/checkout", strings.NewReader(`{"a":1}`))
	first.Header.Set("Idempotency-Key", "abc-123")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := requestWithPattern(http.MethodPost, "/v1/checkout", "/v1/checkout", strings.NewReader(`{"a":2}`))
	second.Header.Set("Idempotency-Key", "abc-123")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, second)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error.Code != "IDEMPOTENCY_KEY_REUSED" {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}
