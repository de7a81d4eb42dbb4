package controllers

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

// ProductListHandler GET /products - public catalog
func ProductListHandler(w http.ResponseWriter, r *http.Request) {
	var products []models.Product
	if err := database.DB.Order("id ASC").Find(&products).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    map[string]interface{}{"products": products},
	})
}

// ProductDetailHandler GET /products/{id}
func ProductDetailHandler(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id64, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id64 == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var product models.Product
	if err := database.DB.First(&product, uint(id64)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Product not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    product,
	})
}
