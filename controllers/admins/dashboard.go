package admins

import (
	"net/http"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/models"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

// GetDashboardHandler GET /admin/dashboard
func GetDashboardHandler(w http.ResponseWriter, r *http.Request) {
	db := database.DB

	var productCount, userCount, purchaseCount, unusedKeyCount int64
	db.Model(&models.Product{}).Count(&productCount)
	db.Model(&models.User{}).Count(&userCount)
	db.Model(&models.Purchase{}).Count(&purchaseCount)
	db.Model(&models.Key{}).Where("used = ?", false).Count(&unusedKeyCount)

	var products []models.Product
	if err := db.Order("id ASC").Find(&products).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	var recentPurchases []models.Purchase
	if err := db.Preload("User").Preload("Product").Preload("Key").
		Order("id DESC").Limit(20).Find(&recentPurchases).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"counts": map[string]interface{}{
				"products":    productCount,
				"users":       userCount,
				"purchases":   purchaseCount,
				"unused_keys": unusedKeyCount,
			},
			"products":         products,
			"recent_purchases": recentPurchases,
		},
	})
}
