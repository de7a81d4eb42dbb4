package users

import (
	"net/http"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/models"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

// ListPurchasesHandler GET /users/purchases
//
// The caller's own ledger, including the issued key codes. This is the
// durable record a buyer (or support) falls back on when the delivery mail
// never arrived.
func ListPurchasesHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var purchases []models.Purchase
	if err := database.DB.
		Preload("Product").
		Preload("Key").
		Where("user_id = ?", uid).
		Order("id DESC").
		Find(&purchases).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load purchases")
		return
	}

	items := make([]map[string]interface{}, 0, len(purchases))
	for _, p := range purchases {
		item := map[string]interface{}{
			"id":             p.ID,
			"transaction_id": p.TransactionID,
			"created_at":     p.CreatedAt,
		}
		if p.Product != nil {
			item["product"] = map[string]interface{}{"id": p.Product.ID, "name": p.Product.Name}
		}
		if p.Key != nil {
			item["key"] = p.Key.Code
		}
		items = append(items, item)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    map[string]interface{}{"purchases": items},
	})
}
