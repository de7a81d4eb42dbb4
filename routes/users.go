package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jirkaslaboch2/cdkeystore/controllers/auth"
	"github.com/jirkaslaboch2/cdkeystore/controllers/users"
	"github.com/jirkaslaboch2/cdkeystore/middleware"
)

// UsersRoutes registers the auth and storefront routes on the API subrouter.
func UsersRoutes(api *mux.Router) {
	// Register & login
	api.Handle("/register", http.HandlerFunc(auth.RegisterHandler)).Methods(http.MethodPost)
	api.Handle("/login", http.HandlerFunc(auth.LoginHandler)).Methods(http.MethodPost)
	api.Handle("/refresh", http.HandlerFunc(auth.RefreshHandler)).Methods(http.MethodPost)
	api.Handle("/logout", middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutHandler))).Methods(http.MethodPost)

	// Checkout flow
	api.Handle("/checkout/{product_id:[0-9]+}", middleware.AuthMiddleware(http.HandlerFunc(users.CreateCheckoutHandler))).Methods(http.MethodPost)
	api.Handle("/checkout/{product_id:[0-9]+}/finalize", middleware.AuthMiddleware(http.HandlerFunc(users.FinalizeCheckoutHandler))).Methods(http.MethodPost)
	api.Handle("/checkout/key", middleware.AuthMiddleware(http.HandlerFunc(users.GetIssuedKeyHandler))).Methods(http.MethodGet)

	// Purchase history (support recovery for lost delivery mails)
	api.Handle("/users/purchases", middleware.AuthMiddleware(http.HandlerFunc(users.ListPurchasesHandler))).Methods(http.MethodGet)
}
