package admins

import (
	"net/http"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/models"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

// GET /admin/purchases - the full issued-key ledger
func ListPurchasesHandler(w http.ResponseWriter, r *http.Request) {
	var purchases []models.Purchase
	if err := database.DB.
		Preload("User").
		Preload("Product").
		Preload("Key").
		Order("id DESC").
		Find(&purchases).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load purchases")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    map[string]interface{}{"purchases": purchases},
	})
}
