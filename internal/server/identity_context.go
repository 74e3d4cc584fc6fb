package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"morphire/internal/api"
	"morphire/internal/identity"
)

type identityContextKey struct{}

func contextWithIdentity(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

func identityFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(identityContextKey{}).(string)
	return id, ok && id != ""
}

// isPublicPath lists routes served without an identity.
func isPublicPath(path string) bool {
	return path == "/health" || path == "/v1/info"
}

// withAccess enforces the passphrase gate on every route but /health.
func (s *Server) withAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || !s.gate.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		if !s.gate.Admit(r.Header.Get(api.AccessHeader)) {
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("access passphrase required")))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withIdentity resolves and validates the caller identity before any
// handler touches the store.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		id := strings.TrimSpace(r.Header.Get(api.IdentityHeader))
		if id == "" {
			s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("%s header is required", api.IdentityHeader)))
			return
		}
		if err := identity.Validate(id); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithIdentity(r.Context(), id)))
	})
}
