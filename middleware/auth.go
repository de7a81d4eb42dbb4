package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jirkaslaboch2/cdkeystore/utils"
)

// AuthMiddleware requires a valid Bearer access token and injects the caller's
// user id and role into the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		claims, err := utils.ValidateAccessToken(tokenStr)
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				utils.WriteError(w, http.StatusUnauthorized, "Session expired, please login again")
				return
			}
			utils.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID := utils.ClaimsUserID(claims)
		if userID == 0 {
			utils.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), utils.UserIDKey, userID)
		ctx = context.WithValue(ctx, utils.UserRoleKey, utils.ClaimsRole(claims))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
