package main

import (
	"log"
	"os"

	"github.com/clamor-dev/clamor/db"
	"github.com/clamor-dev/clamor/internal/auth"
	"github.com/clamor-dev/clamor/internal/events"
	"github.com/clamor-dev/clamor/internal/handlers"
	"github.com/clamor-dev/clamor/internal/notify"
	"github.com/clamor-dev/clamor/internal/revenue"
	"github.com/clamor-dev/clamor/internal/router"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Collaborator sinks consume lifecycle events; delivery failures
	// are their problem, never the request's.
	events.Subscribe(notify.NewWebhookSink().Handle)

	if apiKey := os.Getenv("SENDGRID_API_KEY"); apiKey != "" {
		from := os.Getenv("EMAIL_FROM")
		if from == "" {
			from = "notifications@clamor.dev"
		}
		events.Subscribe(notify.NewEmailSink(apiKey, from).Handle)
	} else {
		log.Println("SENDGRID_API_KEY not set, status-change emails disabled")
	}

	if base := os.Getenv("REVENUE_API_URL"); base != "" {
		handlers.RevenueRegistry = revenue.NewHTTPRegistry(base)
	}

	r := router.NewRouter()

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "3000"
		log.Println("PORT not set, defaulting to 3000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
