package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gahigi/api/internal/ctxkeys"
	"github.com/gahigi/api/internal/service"
)

// Auth resolves the bearer token, if any, and adds the authenticated user
// to the request context. Requests without a valid token continue
// unauthenticated; RequireAuth decides whether that is acceptable.
func Auth(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signed := bearerToken(r)
			if signed == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authService.VerifySession(signed)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := userService.ByID(claims.UserID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			// Never carry credential material through the context
			user.PasswordHash = nil

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects unauthenticated requests with a JSON 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}

		next.ServeHTTP(w, r)
	}
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
