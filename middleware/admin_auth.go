package middleware

import (
	"net/http"
	"strings"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/models"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

// AdminMiddleware is the single authorization gate for the whole admin
// surface: every admin route goes through it, none re-checks on its own. The
// token must carry the admin role and the user row must still be flagged as
// admin (a demoted account's outstanding tokens stop working here).
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := utils.ValidateAccessToken(tokenString)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}

		if utils.ClaimsRole(claims) != utils.RoleAdmin {
			utils.WriteError(w, http.StatusForbidden, "Forbidden: Admin access required")
			return
		}

		userID := utils.ClaimsUserID(claims)
		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: Account not found")
			return
		}
		if !user.IsAdmin {
			utils.WriteError(w, http.StatusForbidden, "Forbidden: Admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
