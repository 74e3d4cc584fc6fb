package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"morphire/internal/api"
	"morphire/internal/auth"
)

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:7433")
		if err != nil {
			t.Fatalf("expected loopback to be allowed, got error: %v", err)
		}
		if addr != "127.0.0.1:7433" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		if _, err := ListenAddr("http://0.0.0.0:7433"); err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:7433")
		if err != nil {
			t.Fatalf("expected allow-remote to permit host, got error: %v", err)
		}
		if addr != "0.0.0.0:7433" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("rejects empty", func(t *testing.T) {
		if _, err := ListenAddr(""); err == nil {
			t.Fatal("expected error for empty api url")
		}
	})
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var errResp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v (body %q)", err, w.Body.String())
	}
	return errResp
}

func TestWithAccess(t *testing.T) {
	hash, err := auth.HashPassphrase("correct horse battery")
	if err != nil {
		t.Fatalf("hash passphrase: %v", err)
	}
	gate, err := auth.NewGate(hash)
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	srv := &Server{gate: gate}

	tests := []struct {
		name       string
		path       string
		passphrase string
		wantStatus int
	}{
		{name: "denies missing passphrase", path: "/v1/jobs", wantStatus: http.StatusUnauthorized},
		{name: "denies wrong passphrase", path: "/v1/jobs", passphrase: "nope nope nope", wantStatus: http.StatusUnauthorized},
		{name: "admits correct passphrase", path: "/v1/jobs", passphrase: "correct horse battery", wantStatus: http.StatusNoContent},
		{name: "health is exempt", path: "/health", wantStatus: http.StatusNoContent},
		{name: "info is gated", path: "/v1/info", wantStatus: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := srv.withAccess(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.passphrase != "" {
				req.Header.Set(api.AccessHeader, tc.passphrase)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, w.Code)
			}
			if w.Code == http.StatusUnauthorized {
				if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeUnauthorized {
					t.Fatalf("expected error_code %d, got %d", ErrCodeUnauthorized, errResp.ErrorCode)
				}
			}
		})
	}
}

func TestWithAccessDisabledGate(t *testing.T) {
	srv := &Server{}
	handler := srv.withAccess(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/document", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with no gate, got %d", w.Code)
	}
}

func TestWithIdentity(t *testing.T) {
	srv := &Server{}
	var seen string
	handler := srv.withIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = identityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/document", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("short identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/document", nil)
		req.Header.Set(api.IdentityHeader, "abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeInvalidIdentity {
			t.Fatalf("expected error_code %d, got %d", ErrCodeInvalidIdentity, errResp.ErrorCode)
		}
	})

	t.Run("attaches trimmed identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/document", nil)
		req.Header.Set(api.IdentityHeader, "  SoLwallet-aaaa-1111  ")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
		if seen != "SoLwallet-aaaa-1111" {
			t.Fatalf("unexpected identity in context: %q", seen)
		}
	})

	t.Run("public paths skip identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/info", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})
}

func TestWithRequestID(t *testing.T) {
	srv := &Server{}
	var seen string
	handler := srv.withRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	t.Run("keeps caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(api.RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if seen != "req-123" || w.Header().Get(api.RequestIDHeader) != "req-123" {
			t.Fatalf("expected caller request id to be kept, got ctx=%q header=%q", seen, w.Header().Get(api.RequestIDHeader))
		}
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(api.RequestIDHeader, strings.Repeat("x", 100))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if len(seen) != 36 {
			t.Fatalf("expected generated uuid, got %q", seen)
		}
		if w.Header().Get(api.RequestIDHeader) != seen {
			t.Fatalf("response header %q does not match context id %q", w.Header().Get(api.RequestIDHeader), seen)
		}
	})
}
