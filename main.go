package main

import (
	"context"
	"log"

	"trialstats/adapters/postgres"
	"trialstats/internal/api"
	"trialstats/internal/config"
	"trialstats/internal/container"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	// Create dependency injection container
	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	// The database is optional: it adds the query source and run history
	if appConfig.Database.Enabled() {
		db, err := postgres.Connect(appConfig.Database.URL)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := appContainer.InitWithDatabase(context.Background(), db); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
	} else {
		log.Println("DATABASE_URL not set, serving file inputs without run history")
	}

	analyses, err := appContainer.Analyses()
	if err != nil {
		log.Fatalf("Failed to load analyses: %v", err)
	}
	log.Printf("Loaded %d analysis definitions", len(analyses))

	handler := api.NewAnalysisHandler(appContainer.Service, analyses, appContainer.Hub)
	server := api.NewServer(handler, appContainer.Hub, appConfig.Server.MaxUploadMB)

	log.Printf("🚀 Starting trialstats server on port %s", appConfig.Server.Port)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
