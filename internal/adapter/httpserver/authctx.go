package httpserver

import (
	"context"
	"net/http"

	"github.com/banglahouse/resume-screener-backend/internal/domain"
	obsctx "github.com/banglahouse/resume-screener-backend/internal/observability"
)

// Identity header names set by the upstream gateway, which is trusted to
// have authenticated the caller.
const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

// Anonymous callers resolve to this shared identity with the recruiter role.
const anonymousExternalID = "public-client"

type authUserKey struct{}

// AuthUserFromContext returns the caller attached by AuthContext, or false
// when the middleware did not run.
func AuthUserFromContext(ctx context.Context) (domain.AuthUser, bool) {
	u, ok := ctx.Value(authUserKey{}).(domain.AuthUser)
	return u, ok
}

// AuthContext resolves the caller identity from the gateway headers and
// upserts the user row on first sight. Missing ids and unknown roles fall
// back to defaults rather than rejecting the request.
func AuthContext(users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			externalID := r.Header.Get(headerUserID)
			if externalID == "" {
				externalID = anonymousExternalID
			}
			role := domain.Role(r.Header.Get(headerUserRole))
			if role != domain.RoleRecruiter && role != domain.RoleCandidate {
				role = domain.RoleRecruiter
			}

			user, err := users.UpsertByExternalID(r.Context(), externalID, role)
			if err != nil {
				obsctx.LoggerFromContext(r.Context()).Error("auth context upsert failed", "error", err)
				writeError(w, r, err, nil)
				return
			}

			caller := domain.AuthUser{ID: user.ID, ExternalID: user.ExternalID, Role: user.Role}
			ctx := context.WithValue(r.Context(), authUserKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
