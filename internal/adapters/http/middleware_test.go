package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDMiddlewareKeepsValidHeader(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := serve(handler, req)

	if seen != "req-42" || res.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, res.Header().Get(requestIDHeader))
	}
}

func TestRequestIDMiddlewareReplacesUnsafeHeader(t *testing.T) {
	for _, bad := range []string{"has space", strings.Repeat("x", maxRequestIDBytes+1), "tab\tid"} {
		handler := requestIDMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(requestIDHeader, bad)

		got := serve(handler, req).Header().Get(requestIDHeader)
		if got == bad || got == "" {
			t.Fatalf("expected a fresh id for %q, got %q", bad, got)
		}
	}
}

func TestRecoverMiddlewareReturns500(t *testing.T) {
	handler := requestIDMiddleware(recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	res := serve(handler, httptest.NewRequest(http.MethodPost, "/v1/score", nil))
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "request_id") {
		t.Fatalf("expected request id in error body: %s", res.Body.String())
	}
}
