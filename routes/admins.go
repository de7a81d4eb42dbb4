package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jirkaslaboch2/cdkeystore/controllers/admins"
	"github.com/jirkaslaboch2/cdkeystore/middleware"
)

// SetAdminRoutes registers the admin surface. AdminMiddleware on the
// subrouter is the only authorization check any of these handlers get or
// need.
func SetAdminRoutes(api *mux.Router) {
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminMiddleware)

	// Dashboard
	adminRouter.Handle("/dashboard", http.HandlerFunc(admins.GetDashboardHandler)).Methods(http.MethodGet)

	// Catalog management
	adminRouter.Handle("/products", http.HandlerFunc(admins.ListProductsHandler)).Methods(http.MethodGet)
	adminRouter.Handle("/products", http.HandlerFunc(admins.CreateProductHandler)).Methods(http.MethodPost)
	adminRouter.Handle("/products/{id:[0-9]+}", http.HandlerFunc(admins.UpdateProductHandler)).Methods(http.MethodPut)
	adminRouter.Handle("/products/{id:[0-9]+}", http.HandlerFunc(admins.DeleteProductHandler)).Methods(http.MethodDelete)

	// Key inventory
	adminRouter.Handle("/products/{id:[0-9]+}/keys", http.HandlerFunc(admins.ImportKeysHandler)).Methods(http.MethodPost)

	// User management
	adminRouter.Handle("/users", http.HandlerFunc(admins.ListUsersHandler)).Methods(http.MethodGet)
	adminRouter.Handle("/users/{id:[0-9]+}/promote", http.HandlerFunc(admins.PromoteUserHandler)).Methods(http.MethodPost)

	// Ledger
	adminRouter.Handle("/purchases", http.HandlerFunc(admins.ListPurchasesHandler)).Methods(http.MethodGet)
}
