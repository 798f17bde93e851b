// Package models contains all data models for the giggle-glide application
package models

import (
	"gorm.io/gorm"
)

// AllModels returns a slice of all model types for database migrations
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&UserStats{},
		&Joke{},
		&JokeInteraction{},
		&Favorite{},
		&Tag{},
		&JokeTag{},
		&UserTagScore{},
		&PersonalizationMetric{},
		&AIUsageRecord{},
		&ModerationRecord{},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
