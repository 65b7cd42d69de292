package authz

import (
	"log/slog"
	"net/http"

	"github.com/inkwell-books/inkwell/internal/platform/httpx"
	"github.com/inkwell-books/inkwell/internal/shared"
)

// Middleware wires authorization checks for HTTP handlers. The auth layer
// is expected to have placed a Principal in the request context.
type Middleware struct {
	Logger *slog.Logger
}

// RequirePermission rejects requests whose principal lacks the permission.
func (m Middleware) RequirePermission(tag Permission) func(http.Handler) http.Handler {
	return m.require(HasPermission(tag))
}

// RequireRole rejects requests whose principal's role is outside the set.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return m.require(AnyOfRoles(roles...))
}

func (m Middleware) require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if err := Authorize(*principal, req); err != nil {
				if m.Logger != nil {
					m.Logger.Warn("authorization denied",
						slog.Int64("principal_id", principal.ID),
						slog.String("role", string(principal.Role)),
						slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
