// Package jokes manages the joke catalog, interactions and favorites
package jokes

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"giggle-glide/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested joke does not exist
var ErrNotFound = errors.New("joke not found")

// Service handles joke storage and engagement tracking
type Service struct {
	db *gorm.DB
}

// NewService creates a new joke service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get returns a joke by id
func (s *Service) Get(jokeID uuid.UUID) (*models.Joke, error) {
	var joke models.Joke
	err := s.db.Where("id = ?", jokeID).First(&joke).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get joke: %w", err)
	}
	return &joke, nil
}

// Create stores a new joke
func (s *Service) Create(joke *models.Joke) error {
	if joke.Language == "" {
		joke.Language = "en"
	}
	if err := s.db.Create(joke).Error; err != nil {
		return fmt.Errorf("failed to create joke: %w", err)
	}
	return nil
}

// derivedRating converts engagement counters into a 0-5 rating,
// rounded to two decimals
func derivedRating(likeCount, viewCount int) float64 {
	if viewCount == 0 {
		return 0
	}
	rating := float64(likeCount) / float64(viewCount) * 5
	return math.Round(rating*100) / 100
}

// MarkSeen records an interaction, updating engagement counters and the
// derived rating when the interaction is new. Repeat interactions of the
// same type are accepted but change nothing. Returns whether the
// interaction was newly recorded.
func (s *Service) MarkSeen(userID, jokeID uuid.UUID, interactionType string) (bool, error) {
	var existing models.JokeInteraction
	err := s.db.Where("user_id = ? AND joke_id = ? AND interaction_type = ?",
		userID, jokeID, interactionType).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up interaction: %w", err)
	}

	interaction := models.JokeInteraction{
		UserID:          userID,
		JokeID:          jokeID,
		InteractionType: interactionType,
	}
	if err := s.db.Create(&interaction).Error; err != nil {
		return false, fmt.Errorf("failed to record interaction: %w", err)
	}

	if err := s.applyEngagement(jokeID, interactionType); err != nil {
		return true, err
	}
	if err := s.updateUserStats(userID, interactionType); err != nil {
		return true, err
	}
	return true, nil
}

// applyEngagement bumps a joke's counters and refreshes its rating
func (s *Service) applyEngagement(jokeID uuid.UUID, interactionType string) error {
	var joke models.Joke
	if err := s.db.Where("id = ?", jokeID).First(&joke).Error; err != nil {
		return fmt.Errorf("failed to get joke for engagement update: %w", err)
	}

	switch interactionType {
	case models.InteractionView:
		joke.ViewCount++
	case models.InteractionLike:
		joke.LikeCount++
	default:
		return nil
	}
	joke.Rating = derivedRating(joke.LikeCount, joke.ViewCount)

	err := s.db.Model(&joke).Updates(map[string]interface{}{
		"view_count": joke.ViewCount,
		"like_count": joke.LikeCount,
		"rating":     joke.Rating,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update joke engagement: %w", err)
	}
	return nil
}

// updateUserStats keeps per-user interaction counters current
func (s *Service) updateUserStats(userID uuid.UUID, interactionType string) error {
	var stats models.UserStats
	err := s.db.Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = models.UserStats{UserID: userID}
	} else if err != nil {
		return fmt.Errorf("failed to get user stats: %w", err)
	}

	switch interactionType {
	case models.InteractionView:
		stats.JokesViewed++
	case models.InteractionLike:
		stats.JokesLiked++
	case models.InteractionSkip:
		stats.JokesSkipped++
	}
	stats.LastActive = time.Now()

	if err := s.db.Save(&stats).Error; err != nil {
		return fmt.Errorf("failed to save user stats: %w", err)
	}
	return nil
}

// SeenJokeIDs returns ids of jokes the user has viewed, liked or skipped
func (s *Service) SeenJokeIDs(userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.Model(&models.JokeInteraction{}).
		Distinct("joke_id").
		Where("user_id = ? AND interaction_type IN ?", userID,
			[]string{models.InteractionView, models.InteractionLike, models.InteractionSkip}).
		Pluck("joke_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get seen jokes: %w", err)
	}
	return ids, nil
}

// GetTrending returns the jokes with the most interactions inside the
// given window, most engaged first
func (s *Service) GetTrending(language string, windowHours, limit int) ([]models.Joke, error) {
	since := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	type trendRow struct {
		JokeID           uuid.UUID
		InteractionCount int
	}

	var rows []trendRow
	err := s.db.Model(&models.JokeInteraction{}).
		Select("joke_interactions.joke_id, count(*) as interaction_count").
		Joins("JOIN jokes ON jokes.id = joke_interactions.joke_id").
		Where("joke_interactions.created_at >= ? AND jokes.language = ?", since, language).
		Group("joke_interactions.joke_id").
		Order("interaction_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get trending jokes: %w", err)
	}

	result := make([]models.Joke, 0, len(rows))
	for _, row := range rows {
		var joke models.Joke
		if err := s.db.Where("id = ?", row.JokeID).First(&joke).Error; err != nil {
			log.Printf("Skipping trending row for missing joke %s: %v", row.JokeID, err)
			continue
		}
		result = append(result, joke)
	}

	// Fill with top-rated jokes when the window is quiet
	if len(result) < limit {
		exclude := make([]uuid.UUID, len(result))
		for i, joke := range result {
			exclude[i] = joke.ID
		}

		var fillers []models.Joke
		query := s.db.Where("language = ?", language).
			Order("rating DESC, view_count DESC").
			Limit(limit - len(result))
		if len(exclude) > 0 {
			query = query.Where("id NOT IN ?", exclude)
		}
		if err := query.Find(&fillers).Error; err != nil {
			return nil, fmt.Errorf("failed to fill trending jokes: %w", err)
		}
		result = append(result, fillers...)
	}

	return result, nil
}

// Search returns jokes matching the query text, best rated first
func (s *Service) Search(query, language string, limit int) ([]models.Joke, error) {
	var result []models.Joke
	err := s.db.Where("language = ? AND text LIKE ?", language, "%"+query+"%").
		Order("rating DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search jokes: %w", err)
	}
	return result, nil
}

// UpdateJokeRatings recomputes the derived rating for every joke with
// views, returning how many rows changed
func (s *Service) UpdateJokeRatings() (int, error) {
	var jokeList []models.Joke
	if err := s.db.Where("view_count > 0").Find(&jokeList).Error; err != nil {
		return 0, fmt.Errorf("failed to load jokes for rating update: %w", err)
	}

	updated := 0
	for _, joke := range jokeList {
		rating := derivedRating(joke.LikeCount, joke.ViewCount)
		if rating == joke.Rating {
			continue
		}
		if err := s.db.Model(&joke).Update("rating", rating).Error; err != nil {
			return updated, fmt.Errorf("failed to update rating for joke %s: %w", joke.ID, err)
		}
		updated++
	}

	return updated, nil
}

// AddFavorite saves a joke for a user. Re-adding is a no-op.
func (s *Service) AddFavorite(userID, jokeID uuid.UUID) (bool, error) {
	var existing models.Favorite
	err := s.db.Where("user_id = ? AND joke_id = ?", userID, jokeID).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up favorite: %w", err)
	}

	favorite := models.Favorite{UserID: userID, JokeID: jokeID}
	if err := s.db.Create(&favorite).Error; err != nil {
		return false, fmt.Errorf("failed to add favorite: %w", err)
	}
	return true, nil
}

// RemoveFavorite unsaves a joke, reporting whether it was saved
func (s *Service) RemoveFavorite(userID, jokeID uuid.UUID) (bool, error) {
	result := s.db.Where("user_id = ? AND joke_id = ?", userID, jokeID).Delete(&models.Favorite{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetFavorites returns a user's saved jokes, most recently saved first
func (s *Service) GetFavorites(userID uuid.UUID, limit int) ([]models.Joke, error) {
	var favorites []models.Favorite
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&favorites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}

	result := make([]models.Joke, 0, len(favorites))
	for _, favorite := range favorites {
		var joke models.Joke
		if err := s.db.Where("id = ?", favorite.JokeID).First(&joke).Error; err != nil {
			continue
		}
		result = append(result, joke)
	}
	return result, nil
}
