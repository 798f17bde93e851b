package main

import (
	"log"

	"giggle-glide/internal/database"
	"giggle-glide/internal/tags"

	"github.com/joho/godotenv"
)

// Seeds the default tag taxonomy. Safe to re-run: existing tags are kept.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	dbConfig := database.LoadConfig()
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	tagService := tags.NewService(database.DB)
	created, err := tagService.InitializeDefaultTaxonomy()
	if err != nil {
		log.Fatal("Failed to seed tag taxonomy:", err)
	}

	log.Printf("Tag taxonomy seeded: %d new tags created", created)
}
