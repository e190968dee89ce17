package httptransport

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"alumnet/internal/auth/guard"
	identitymodels "alumnet/internal/identity/models"
	dErrors "alumnet/pkg/domain-errors"
	"alumnet/pkg/requestcontext"
)

type identityKey struct{}

// identityFrom returns the authenticated user placed by requireAuth.
func identityFrom(ctx context.Context) *identitymodels.User {
	u, _ := ctx.Value(identityKey{}).(*identitymodels.User)
	return u
}

// requestScope stamps every request with an ID and a fixed timestamp so
// each request observes one consistent time.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithRequestID(r.Context(), uuid.NewString())
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuth resolves the bearer token through the guard and stores the
// verified identity on the request context.
func requireAuth(g *guard.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer, err := bearerToken(r)
			if err != nil {
				writeError(w, err)
				return
			}
			user, err := g.RequireAuthenticated(r.Context(), bearer)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey{}, user)
			ctx = requestcontext.WithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "missing bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "missing bearer token")
	}
	return token, nil
}
