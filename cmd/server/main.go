package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"carelog/internal/database"
	"carelog/internal/dispatch"
	"carelog/internal/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// This is our main function - the entry point of our application
func main() {
	// Load .env in development; production sets real environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	clock, err := dispatch.NewSystemClock(os.Getenv("DISPATCH_TIMEZONE"))
	if err != nil {
		log.Fatal("Failed to initialize clock:", err)
	}

	// Wire the dispatcher
	db := database.GetDB()
	store := dispatch.NewGormStore(db)

	var mailer dispatch.FallbackMailer
	if os.Getenv("SENDGRID_API_KEY") != "" {
		mailer = dispatch.NewEmailService()
		log.Println("Caregiver email fallback enabled")
	}

	workers, _ := strconv.Atoi(os.Getenv("DISPATCH_WORKERS"))

	dispatcher := dispatch.NewDispatcher(dispatch.DispatcherConfig{
		Clock:            clock,
		Reminders:        store,
		Patients:         store,
		Memberships:      store,
		Activity:         store,
		OccurrenceLedger: dispatch.NewGormOccurrenceLedger(db),
		AlertLedger:      dispatch.NewGormAlertLedger(db),
		Pusher:           dispatch.NewPushClient(os.Getenv("PUSH_API_BASE_URL"), os.Getenv("PUSH_API_TOKEN")),
		Mailer:           mailer,
		Workers:          workers,
	})

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-Dispatch-Token")
	router.Use(cors.New(corsConfig))

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)

	// Internal routes, called by the external scheduler (shared secret required)
	dispatchHandler := handlers.NewDispatchHandler(dispatcher)
	internal := router.Group("/internal", handlers.DispatchAuthMiddleware())
	{
		internal.POST("/dispatch/reminders", dispatchHandler.TriggerReminders)
		internal.POST("/dispatch/missed-activity", dispatchHandler.TriggerMissedActivity)
		internal.GET("/dispatch/logs", handlers.ListOccurrenceLogs)
		internal.GET("/dispatch/alerts", handlers.ListMissedActivityAlerts)
	}

	// Optional in-process ticker for deployments without an external cron
	if os.Getenv("DISPATCH_INTERNAL_TICKER") == "true" {
		worker := dispatch.NewWorker(dispatcher)
		worker.Start()
		log.Println("Internal dispatch ticker started")
	}

	// Start the server
	fmt.Println("Server starting on port 8080...")
	if err := router.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
