package auth

import (
	"net/http"
	"strings"

	"github.com/RubachokBoss/coursework-service/internal/models"
	"github.com/RubachokBoss/coursework-service/pkg/utils"
)

// Middleware requires a valid bearer token and stores the caller in the request context.
func Middleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				utils.ErrorResponse(w, http.StatusUnauthorized, "Missing bearer token.")
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				utils.ErrorResponse(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{
				UserID: claims.Sub,
				Role:   models.Role(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role is not role. Must run after Middleware.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				utils.ErrorResponse(w, http.StatusUnauthorized, "Missing bearer token.")
				return
			}
			if p.Role != role {
				utils.ErrorResponse(w, http.StatusForbidden, "Only a "+string(role)+" can do that.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
