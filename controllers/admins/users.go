package admins

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/models"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

// GET /admin/users
func ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := database.DB.Order("id ASC").Find(&users).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load users")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    map[string]interface{}{"users": users},
	})
}

// POST /admin/users/{id}/promote
func PromoteUserHandler(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id64, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id64 == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(id64)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if !user.IsAdmin {
		if err := database.DB.Model(&user).Update("is_admin", true).Error; err != nil {
			utils.WriteError(w, http.StatusInternalServerError, "Failed to promote user")
			return
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "User promoted to admin",
		Data:    map[string]interface{}{"id": user.ID, "username": user.Username, "is_admin": true},
	})
}
