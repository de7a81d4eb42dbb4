package admins

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/models"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

// GET /admin/products
func ListProductsHandler(w http.ResponseWriter, r *http.Request) {
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

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func (req *productRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" {
		return "Product name is required"
	}
	if req.Description == "" {
		return "Description is required"
	}
	if req.Price <= 0 {
		return "Price must be greater than 0"
	}
	return ""
}

// POST /admin/products
//
// New products start with zero stock; stock only moves through key import
// and allocation.
func CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	if msg := req.validate(); msg != "" {
		utils.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       0,
	}
	if err := database.DB.Create(&product).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Product created",
		Data:    product,
	})
}

// PUT /admin/products/{id}
//
// Stock is deliberately not editable here; it stays derived from the key
// pool.
func UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := findProduct(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	if msg := req.validate(); msg != "" {
		utils.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	if err := database.DB.Save(product).Error; err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Product updated",
		Data:    product,
	})
}

// DELETE /admin/products/{id}
//
// Cascades to the product's keys. Purchase rows stay: they record history,
// not ownership.
func DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := findProduct(w, r)
	if !ok {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Key{}).Error; err != nil {
			return err
		}
		return tx.Delete(product).Error
	})
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Product deleted"})
}

func findProduct(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	idStr := mux.Vars(r)["id"]
	id64, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id64 == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product id")
		return nil, false
	}
	var product models.Product
	if err := database.DB.First(&product, uint(id64)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Product not found")
			return nil, false
		}
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return nil, false
	}
	return &product, true
}
