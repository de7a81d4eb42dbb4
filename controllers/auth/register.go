package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/middleware"
	"github.com/jirkaslaboch2/cdkeystore/models"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

type RegisterRequest struct {
	Username             string `json:"username" validate:"required,username"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,pwdmin"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// RegisterHandler creates a user account. Username and email must both be
// unused; a conflict leaves the users table unchanged.
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	db := database.DB

	var existing models.User
	err := db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		utils.WriteError(w, http.StatusConflict, "User already exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[register] DB error checking uniqueness: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	newUser := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := db.Create(&newUser).Error; err != nil {
		// Unique indexes back up the pre-check under concurrent registration.
		log.Printf("[register] DB Create user error: %v", err)
		utils.WriteError(w, http.StatusConflict, "User already exists")
		return
	}

	tokenExpiry := 24 * time.Hour
	accessToken, err := utils.GenerateAccessToken(newUser.ID, utils.RoleUser, tokenExpiry)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(newUser.ID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to store refresh token")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Registered successfully",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"access_expire": time.Now().Add(tokenExpiry).UTC().Format(time.RFC3339),
			"refresh_token": refreshToken,
			"user": map[string]interface{}{
				"id":       newUser.ID,
				"username": newUser.Username,
				"email":    newUser.Email,
			},
		},
	})
}
