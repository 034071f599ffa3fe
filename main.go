package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/AKhaldoun/tierlink_backend/config"
	"github.com/AKhaldoun/tierlink_backend/controllers"
	"github.com/AKhaldoun/tierlink_backend/middleware"
	"github.com/AKhaldoun/tierlink_backend/repositories"
	"github.com/AKhaldoun/tierlink_backend/routes"
	"github.com/AKhaldoun/tierlink_backend/services"
	"github.com/AKhaldoun/tierlink_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis
	config.ConnectRedis()
	defer config.CloseRedis()

	// Connect to database
	client := config.ConnectDB()
	db := client.Database(config.GetDatabaseName())

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"*"},
		AllowInlineJS:  false,
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "TierLink Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize repositories
	engineRepo := repositories.NewEngineRepository(db)

	// Initialize services
	rateTable := services.DefaultRateTable()
	ancestryService := services.NewAncestryService(engineRepo)
	commissionService := services.NewCommissionService(engineRepo, engineRepo, rateTable)
	walletService := services.NewWalletService(engineRepo)
	withdrawalService := services.NewWithdrawalService(engineRepo)

	// PAYMENT_TEST_MODE lets plan activation skip the payment reference check
	testMode := os.Getenv("PAYMENT_TEST_MODE") == "true"
	if testMode {
		log.Println("Warning: PAYMENT_TEST_MODE is enabled; payment references are not required")
	}

	// Initialize controllers
	authController := controllers.NewAuthController(client, ancestryService)
	referralController := controllers.NewReferralController(client, rateTable)
	subscriptionController := controllers.NewSubscriptionController(engineRepo, commissionService, wsHub, testMode)
	walletController := controllers.NewWalletController(walletService)
	withdrawalController := controllers.NewWithdrawalController(withdrawalService, wsHub)
	adminController := controllers.NewAdminController(client, withdrawalService, walletService, commissionService, wsHub)

	// Register routes
	routes.RegisterAuthRoutes(e, authController)
	routes.RegisterUserRoutes(e, referralController, subscriptionController, walletController, withdrawalController, wsHub)

	// Register admin routes AFTER general routes to avoid conflicts
	routes.RegisterAdminRoutes(e, adminController, subscriptionController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
