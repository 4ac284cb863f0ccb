// internal/tests/setup_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bizcore/bizcore-backend/internal/config"
	"github.com/bizcore/bizcore-backend/internal/database"
	"github.com/bizcore/bizcore-backend/internal/handlers"
	"github.com/bizcore/bizcore-backend/internal/middleware"
	"github.com/bizcore/bizcore-backend/internal/services"
	"github.com/bizcore/bizcore-backend/internal/utils"
)

// The suite runs against a throwaway Postgres database and is skipped when
// TEST_DB_HOST is not set. Redis is not required: the wizard falls back to
// the database when no draft cache is configured.
func testConfig() *config.Config {
	cfg := &config.Config{
		Environment: "test",
		Database: config.DatabaseConfig{
			Host:         os.Getenv("TEST_DB_HOST"),
			Port:         getenvDefault("TEST_DB_PORT", "5432"),
			User:         getenvDefault("TEST_DB_USER", "postgres"),
			Password:     os.Getenv("TEST_DB_PASSWORD"),
			Database:     getenvDefault("TEST_DB_NAME", "bizcore_test"),
			SSLMode:      "disable",
			MaxOpenConns: 5,
			MaxIdleConns: 2,
			MaxLifetime:  300,
			LogLevel:     "silent",
		},
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		Tokens: config.TokenConfig{
			SignupGrant:    50,
			PlanCost:       10,
			TopupUnitPrice: 100,
		},
		Payment: config.PaymentConfig{
			Currency:       "ngn",
			GatewayTimeout: 5,
		},
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupTestDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	if cfg.Database.Host == "" {
		t.Skip("TEST_DB_HOST not set, skipping database-backed tests")
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// setupTestRouter registers routes without the shared rate limiters so that
// test traffic is never throttled.
func setupTestRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	notificationService := services.NewNotificationService(db, cfg)
	tokenService := services.NewTokenService(db, cfg)
	authService := services.NewAuthService(db, cfg, tokenService, notificationService)
	paymentService := services.NewPaymentService(db, cfg, tokenService)
	complianceService := services.NewComplianceService(db, cfg, notificationService)
	applicationService := services.NewApplicationService(db, cfg, nil, paymentService, notificationService, complianceService)

	authHandler := handlers.NewAuthHandler(authService)
	applicationHandler := handlers.NewApplicationHandler(applicationService, nil)
	tokenHandler := handlers.NewTokenHandler(tokenService)

	r := gin.New()
	r.Use(middleware.I18nMiddleware())

	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
	}

	applications := r.Group("/applications")
	{
		applications.GET("/entity-types", applicationHandler.GetEntityTypes)

		protected := applications.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.POST("", applicationHandler.CreateApplication)
			protected.GET("", applicationHandler.ListApplications)
			protected.GET("/:id", applicationHandler.GetApplication)
			protected.PUT("/:id/stages/:stage", applicationHandler.SaveStage)
			protected.POST("/:id/advance", applicationHandler.Advance)
			protected.POST("/:id/retreat", applicationHandler.Retreat)
			protected.POST("/:id/jump/:stage", applicationHandler.JumpTo)
			protected.DELETE("/:id", applicationHandler.Abandon)
		}
	}

	tokens := r.Group("/tokens")
	tokens.Use(middleware.AuthRequired())
	{
		tokens.GET("/balance", tokenHandler.GetBalance)
	}

	r.GET("/track/:ref", applicationHandler.Track)

	return r
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	return response
}

func dataField(w *httptest.ResponseRecorder) map[string]interface{} {
	response := decodeBody(w)
	data, _ := response["data"].(map[string]interface{})
	return data
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s%d@example.com", prefix, time.Now().UnixNano())
}

func uniqueUsername(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano()%1_000_000_000)
}
