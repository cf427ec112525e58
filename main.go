package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/eventra/eventra_backend/config"
	"github.com/eventra/eventra_backend/controllers"
	"github.com/eventra/eventra_backend/middleware"
	"github.com/eventra/eventra_backend/repositories"
	"github.com/eventra/eventra_backend/routes"
	"github.com/eventra/eventra_backend/services"
	"github.com/eventra/eventra_backend/websocket"
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

	// Initialize Firebase
	config.InitFirebase()

	// Connect to Redis
	config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

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
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Eventra Commission Engine is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Initialize repositories
	txRunner := repositories.NewMongoTxRunner(client)
	configRepo := repositories.NewConfigRepository(client)
	overrideRepo := repositories.NewOverrideRepository(client)
	permissionRepo := repositories.NewPermissionRepository(client)
	progressionRepo := repositories.NewProgressionRepository(client)
	attributionRepo := repositories.NewAttributionRepository(client)
	linkRepo := repositories.NewLinkRepository(client)
	recordRepo := repositories.NewRecordRepository(client)
	batchRepo := repositories.NewBatchRepository(client)
	disputeRepo := repositories.NewDisputeRepository(client)
	userRepo := repositories.NewUserRepository(client)

	// Initialize engine services
	notifier := services.NewNotifier(client, wsHub)
	tracker := services.NewTierTracker(configRepo, progressionRepo)
	resolver := services.NewRateResolver(configRepo, overrideRepo, tracker)
	limits := services.NewLimitEnforcer(recordRepo)
	recorder := services.NewAttributionRecorder(txRunner, permissionRepo, attributionRepo,
		linkRepo, recordRepo, resolver, tracker, limits, notifier)
	ledger := services.NewLedger(txRunner, recordRepo)
	payouts := services.NewPayoutManager(txRunner, recordRepo, batchRepo, userRepo, notifier)
	disputes := services.NewDisputeManager(txRunner, recordRepo, disputeRepo, ledger, notifier)

	// Initialize controllers
	ctrls := &routes.Controllers{
		Auth:         controllers.NewAuthController(client),
		Sales:        controllers.NewSalesController(recorder, attributionRepo),
		Commission:   controllers.NewCommissionController(configRepo, overrideRepo, progressionRepo, tracker),
		Links:        controllers.NewLinkController(linkRepo, permissionRepo),
		Ledger:       controllers.NewLedgerController(ledger),
		Payouts:      controllers.NewPayoutController(payouts),
		Disputes:     controllers.NewDisputeController(disputes),
		Notification: controllers.NewNotificationController(client),
	}

	routes.SetupRoutes(e, client, wsHub, ctrls)

	// Clean expired tokens out of the blacklist
	go middleware.CleanupBlacklist()

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
