package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jirkaslaboch2/cdkeystore/database"
	"github.com/jirkaslaboch2/cdkeystore/models"
	"github.com/jirkaslaboch2/cdkeystore/utils"
)

func setupAdminTest(t *testing.T) (*gorm.DB, http.Handler, *bool) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.RevokedToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	called := false
	handler := AdminMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	return db, handler, &called
}

func TestAdminMiddleware_NoToken(t *testing.T) {
	_, handler, called := setupAdminTest(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/dashboard", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if *called {
		t.Fatal("handler must not run without a token")
	}
}

func TestAdminMiddleware_UserRoleRejected(t *testing.T) {
	db, handler, called := setupAdminTest(t)
	user := models.User{Username: "plain", Email: "plain@example.com", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := utils.GenerateAccessToken(user.ID, utils.RoleUser, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if *called {
		t.Fatal("handler must not run for non-admin")
	}
}

func TestAdminMiddleware_DemotedAdminRejected(t *testing.T) {
	db, handler, called := setupAdminTest(t)
	user := models.User{Username: "exadmin", Email: "ex@example.com", Password: "x", IsAdmin: false}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	// Token still carries the admin role, the user row no longer does.
	token, err := utils.GenerateAccessToken(user.ID, utils.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if *called {
		t.Fatal("handler must not run for demoted admin")
	}
}

func TestAdminMiddleware_AdminAllowed(t *testing.T) {
	db, handler, called := setupAdminTest(t)
	user := models.User{Username: "root", Email: "root@example.com", Password: "x", IsAdmin: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := utils.GenerateAccessToken(user.ID, utils.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !*called {
		t.Fatal("handler should have run for admin")
	}
}

func TestAuthMiddleware_InjectsIdentity(t *testing.T) {
	_, _, _ = setupAdminTest(t)

	var gotID uint
	var gotRole string
	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = utils.GetUserID(r)
		gotRole = utils.GetUserRole(r)
		w.WriteHeader(http.StatusOK)
	}))

	token, err := utils.GenerateAccessToken(42, utils.RoleUser, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/users/purchases", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotID != 42 || gotRole != utils.RoleUser {
		t.Fatalf("context not populated: id=%d role=%q", gotID, gotRole)
	}
}

func TestAuthMiddleware_BadToken(t *testing.T) {
	_, _, _ = setupAdminTest(t)

	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/users/purchases", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
