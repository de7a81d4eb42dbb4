package users

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/inventory"
	"github.com/jirkaslaboch2/cdkeystore/middleware"
	"github.com/jirkaslaboch2/cdkeystore/models"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

// Checkout is a two-step hosted-payment flow. Initiate opens a Stripe
// Checkout Session and hands the browser its URL; the server never sees card
// data. Finalize runs when the provider redirects back: it claims a key,
// decrements stock and appends the purchase ledger row in one transaction,
// then delivers the key by mail and parks it for one-time pickup.

// CreateCheckoutHandler POST /checkout/{product_id}
func CreateCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	product, ok := loadProduct(w, r)
	if !ok {
		return
	}

	// Coarse pre-check only; the authoritative claim happens at finalize.
	if product.Stock <= 0 {
		utils.WriteError(w, http.StatusConflict, "Out of stock")
		return
	}

	frontend := os.Getenv("FRONTEND_BASE_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}
	successURL := fmt.Sprintf("%s/checkout/%d/success?session_id={CHECKOUT_SESSION_ID}", frontend, product.ID)
	cancelURL := frontend + "/"

	unitAmount := int64(math.Round(product.Price * 100))
	session, err := utils.CreateCheckoutSession(r.Context(), product.Name, unitAmount, successURL, cancelURL)
	if err != nil {
		log.Printf("[checkout] create session for product %d: %v", product.ID, err)
		utils.WriteError(w, http.StatusBadGateway, "Payment provider unavailable, please try again later")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Checkout session created",
		Data: map[string]interface{}{
			"session_id":   session.ID,
			"checkout_url": session.URL,
		},
	})
}

type FinalizeRequest struct {
	SessionID string `json:"session_id"`
}

// FinalizeCheckoutHandler POST /checkout/{product_id}/finalize
//
// Called by the success page the provider redirects to. The redirect itself
// proves nothing, so unless STRIPE_VERIFY_PAYMENTS=false the session is
// re-fetched from Stripe and must report payment_status "paid" before any
// key is issued.
func FinalizeCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req FinalizeRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		utils.WriteError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	product, ok := loadProduct(w, r)
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, uid).Error; err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Account not found")
		return
	}

	if os.Getenv("STRIPE_VERIFY_PAYMENTS") != "false" {
		session, err := utils.GetCheckoutSession(r.Context(), req.SessionID)
		if err != nil {
			log.Printf("[checkout] verify session %s: %v", req.SessionID, err)
			utils.WriteError(w, http.StatusBadGateway, "Could not verify payment, please contact support")
			return
		}
		if session.PaymentStatus != "paid" {
			utils.WriteError(w, http.StatusPaymentRequired, "Payment not completed")
			return
		}
	}

	// Claim key, decrement stock, append ledger row: one unit of work.
	var issuedKey *models.Key
	var purchase models.Purchase
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		key, err := inventory.Allocate(tx, product.ID)
		if err != nil {
			return err
		}
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock > 0", product.ID).
			Update("stock", gorm.Expr("stock - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Stock and key pool disagree; roll the claim back rather
			// than drive stock negative.
			return inventory.ErrNoKeyAvailable
		}
		purchase = models.Purchase{
			UserID:        user.ID,
			ProductID:     product.ID,
			KeyID:         key.ID,
			TransactionID: utils.GenerateTransactionID(),
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}
		issuedKey = key
		return nil
	})
	if errors.Is(err, inventory.ErrNoKeyAvailable) {
		utils.WriteError(w, http.StatusConflict, "No key available. Please contact support.")
		return
	}
	if err != nil {
		log.Printf("[checkout] finalize for product %d user %d: %v", product.ID, user.ID, err)
		utils.WriteError(w, http.StatusInternalServerError, "Server error")
		return
	}

	// The purchase is committed; the key counts as issued even if delivery
	// fails. The ledger row is the durable record support recovers from.
	emailSent := true
	if err := utils.SendKeyEmail(r.Context(), user.Email, issuedKey.Code, product.Name); err != nil {
		emailSent = false
		log.Printf("[checkout] key email to %s for purchase %d failed: %v", user.Email, purchase.ID, err)
	}

	if err := utils.StoreIssuedKey(r.Context(), user.ID, issuedKey.Code); err != nil {
		log.Printf("[checkout] store issued key for user %d: %v", user.ID, err)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Purchase complete",
		Data: map[string]interface{}{
			"transaction_id": purchase.TransactionID,
			"product":        map[string]interface{}{"id": product.ID, "name": product.Name},
			"email_sent":     emailSent,
		},
	})
}

// GetIssuedKeyHandler GET /checkout/key
//
// Read-once pickup of the just-issued key code for the success popup. The
// second call returns 404.
func GetIssuedKeyHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	code, err := utils.TakeIssuedKey(r.Context(), uid)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "No key available")
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Key retrieved",
		Data:    map[string]interface{}{"key": code},
	})
}

func loadProduct(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	idStr := mux.Vars(r)["product_id"]
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
