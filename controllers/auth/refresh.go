package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/models"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshHandler exchanges a valid refresh token for a new access token and a
// rotated refresh token. The old refresh token is revoked.
func RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		utils.WriteError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	rt, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	var user models.User
	if err := database.DB.First(&user, rt.UserID).Error; err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	role := utils.RoleUser
	tokenExpiry := 24 * time.Hour
	if user.IsAdmin {
		role = utils.RoleAdmin
		tokenExpiry = 6 * time.Hour
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, role, tokenExpiry)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	// Rotate: revoke the presented token, hand out a fresh one.
	if err := database.DB.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}
	newRefresh, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to store refresh token")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Token refreshed",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"access_expire": time.Now().Add(tokenExpiry).UTC().Format(time.RFC3339),
			"refresh_token": newRefresh,
		},
	})
}
