package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

type contextKey string

const (
	SubjectKey contextKey = "subject"
	RolesKey   contextKey = "roles"
)

const RoleAdmin = "admin"

// RequireRole rejects requests without a valid bearer token carrying role,
// and injects the token's subject and roles into the request context.
func (i *TokenIssuer) RequireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenStr == "" {
			http.Error(w, "authorization token is missing", http.StatusUnauthorized)
			return
		}

		claims, err := i.ValidateToken(tokenStr)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		if !lo.Contains(claims.Roles, role) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), SubjectKey, claims.Subject)
		ctx = context.WithValue(ctx, RolesKey, claims.Roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
