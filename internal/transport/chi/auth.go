package chi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/filesearch/internal/logger"
)

// AnonymousOwner owns every request when authentication is disabled.
const AnonymousOwner = "anonymous"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type ownerKey struct{}

// ContextWithOwner stores the authenticated owner in the context.
func ContextWithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the authenticated owner, or "" if none.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// BearerAuthMiddleware validates Bearer tokens against apiKeys (owner -> key)
// and stores the matching owner in the request context.
// If apiKeys has no usable entry, authentication is disabled and every
// request runs as AnonymousOwner.
func BearerAuthMiddleware(apiKeys map[string]string) func(http.Handler) http.Handler {
	owners := make(map[string]string, len(apiKeys))
	for owner, key := range apiKeys {
		if owner != "" && key != "" {
			owners[key] = owner
		}
	}

	return func(next http.Handler) http.Handler {
		if len(owners) == 0 {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := logpkg.With(ContextWithOwner(r.Context(), AnonymousOwner), zap.String("owner", AnonymousOwner))
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			owner, ok := owners[auth[len(bearerPrefix):]]
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}

			ctx := logpkg.With(ContextWithOwner(r.Context(), owner), zap.String("owner", owner))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
