// Package middleware holds the HTTP middleware of the REST API.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/toolhost/internal/api/ctxkeys"
	pkgauth "github.com/matiasleandrokruk/toolhost/pkg/auth"
)

// TokenParser validates a bearer token. *pkgauth.Issuer satisfies it.
type TokenParser interface {
	Parse(token string) (*pkgauth.Claims, error)
}

// Auth rejects requests without a valid bearer token and injects the client
// id and permissions from its claims.
//
// Flow:
//  1. Read "Authorization: Bearer <token>"
//  2. Missing or other scheme → 401
//  3. Invalid or expired token → 401
//  4. Inject ctxkeys.ClientID and ctxkeys.Permissions
func Auth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := parser.Parse(tokenString)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			setLoggedClient(r.Context(), claims.ClientID)
			ctx := ctxkeys.WithValue(r.Context(), ctxkeys.ClientID, claims.ClientID)
			ctx = ctxkeys.WithPermissions(ctx, claims.Permissions)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns "" when the header is missing, uses another
// scheme, or carries an empty token.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="toolhost"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
