package main

import (
	"log"

	"giggle-glide/internal/database"
	"giggle-glide/internal/jokes"

	"github.com/joho/godotenv"
)

// Recomputes derived joke ratings from interaction counters. The server
// does this hourly in the background; this command forces an immediate pass.
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

	jokeService := jokes.NewService(database.DB)
	updated, err := jokeService.UpdateJokeRatings()
	if err != nil {
		log.Fatal("Failed to update joke ratings:", err)
	}

	log.Printf("Updated ratings for %d jokes", updated)
}
