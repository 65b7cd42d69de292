package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/platform/httpx"
	"github.com/inkwell-books/inkwell/internal/shared"
)

// Middleware resolves bearer tokens into principals.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Authenticate places the principal in context when a valid bearer token is
// present. A present-but-invalid token is rejected immediately; requests
// without a token pass through and route groups decide what they require.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.Service.ResolvePrincipal(r.Context(), raw)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("token rejected", slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireAuth rejects requests that carry no principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authz.PrincipalFromContext(r.Context()) == nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
