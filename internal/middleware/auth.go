package middleware

import (
	"net/http"
	"strings"

	"github.com/socialstocks/backend/internal/auth"
)

// TokenValidator validates a bearer token and returns its claims.
// Satisfied by *auth.JWTService.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Auth validates the Authorization header and stores the authenticated
// user ID on the request context. Requests without a token pass through
// anonymously; handlers that need an identity reject those themselves.
// A token that is present but invalid is always a 401, so clients with
// expired sessions learn about it instead of silently degrading.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "Authorization header must use the Bearer scheme")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}
			if claims.Type != auth.TokenTypeAccess {
				unauthorized(w, "Refresh tokens cannot be used for API access")
				return
			}

			ctx := SetUserID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"auth_failed","message":"` + message + `"}}`))
}
