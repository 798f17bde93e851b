// Package preferences learns per-user tag affinities from joke feedback
package preferences

import (
	"errors"
	"fmt"
	"log"
	"time"

	"giggle-glide/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Learning parameters. The learning rate decays with interaction count so
// early feedback moves scores quickly and later feedback stabilizes them.
const (
	MaxLearningRate = 0.3

	DeltaLike = 0.3
	DeltaSkip = -0.1
	DeltaView = 0.05

	// Seed score applied to explicitly chosen cold-start tags
	ColdStartSeedScore = 0.5
)

// Service handles preference learning and personalization analytics
type Service struct {
	db *gorm.DB
}

// NewService creates a new preferences service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// DeltaForInteraction maps an interaction type to its preference delta.
// Types that carry no preference signal return 0.
func DeltaForInteraction(interactionType string) float64 {
	switch interactionType {
	case models.InteractionLike:
		return DeltaLike
	case models.InteractionSkip:
		return DeltaSkip
	case models.InteractionView:
		return DeltaView
	default:
		return 0
	}
}

// clamp bounds a score to [-1, 1]
func clamp(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

// UpdateUserTagScore applies one feedback signal to a user's score for a
// tag. The effective learning rate is min(0.3, 1/(n+1)) where n is the
// number of prior signals, and the resulting score stays within [-1, 1].
func (s *Service) UpdateUserTagScore(userID, tagID uuid.UUID, delta, weight float64) (*models.UserTagScore, error) {
	var score models.UserTagScore
	err := s.db.Where("user_id = ? AND tag_id = ?", userID, tagID).First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		score = models.UserTagScore{
			UserID: userID,
			TagID:  tagID,
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user tag score: %w", err)
	}

	alpha := 1.0 / float64(score.InteractionCount+1)
	if alpha > MaxLearningRate {
		alpha = MaxLearningRate
	}

	score.Score = clamp(score.Score + alpha*delta*weight)
	score.InteractionCount++
	score.LastUpdated = time.Now()

	if err := s.db.Save(&score).Error; err != nil {
		return nil, fmt.Errorf("failed to save user tag score: %w", err)
	}
	return &score, nil
}

// UpdateFromInteraction propagates one joke interaction into the user's
// tag scores, weighting each tag by its confidence on the joke. Types
// without a preference delta are a no-op.
func (s *Service) UpdateFromInteraction(userID, jokeID uuid.UUID, interactionType string) error {
	delta := DeltaForInteraction(interactionType)
	if delta == 0 {
		return nil
	}

	var links []models.JokeTag
	if err := s.db.Where("joke_id = ?", jokeID).Find(&links).Error; err != nil {
		return fmt.Errorf("failed to get joke tags: %w", err)
	}

	for _, link := range links {
		if _, err := s.UpdateUserTagScore(userID, link.TagID, delta, link.Confidence); err != nil {
			return err
		}
	}
	return nil
}

// SeedColdStartTags gives a new user a positive starting score for each
// explicitly chosen tag. Tags the user already has a score for are left
// alone so repeated onboarding never clobbers learned preferences.
func (s *Service) SeedColdStartTags(userID uuid.UUID, tagIDs []uuid.UUID) error {
	now := time.Now()
	for _, tagID := range tagIDs {
		var existing models.UserTagScore
		err := s.db.Where("user_id = ? AND tag_id = ?", userID, tagID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check tag score: %w", err)
		}

		score := models.UserTagScore{
			UserID:           userID,
			TagID:            tagID,
			Score:            ColdStartSeedScore,
			InteractionCount: 1,
			LastUpdated:      now,
		}
		if err := s.db.Create(&score).Error; err != nil {
			return fmt.Errorf("failed to seed tag score: %w", err)
		}
	}
	return nil
}

// GetUserTagScores returns all of a user's tag scores, strongest first
func (s *Service) GetUserTagScores(userID uuid.UUID) ([]models.UserTagScore, error) {
	var scores []models.UserTagScore
	err := s.db.Preload("Tag").
		Where("user_id = ?", userID).
		Order("score DESC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user tag scores: %w", err)
	}
	return scores, nil
}

// GetUserTopTags returns the user's highest positively-scored tags,
// optionally restricted to one category
func (s *Service) GetUserTopTags(userID uuid.UUID, category string, limit int) ([]models.UserTagScore, error) {
	query := s.db.Preload("Tag").
		Where("user_id = ? AND score > 0", userID).
		Order("score DESC").
		Limit(limit)

	if category != "" {
		query = query.Joins("JOIN tags ON tags.id = user_tag_scores.tag_id").
			Where("tags.category = ?", category)
	}

	var scores []models.UserTagScore
	if err := query.Find(&scores).Error; err != nil {
		return nil, fmt.Errorf("failed to get top tags: %w", err)
	}
	return scores, nil
}

// PerformanceReport summarizes how well personalization works for a user
type PerformanceReport struct {
	UserID           uuid.UUID `json:"user_id"`
	ViewCount        int       `json:"view_count"`
	LikeCount        int       `json:"like_count"`
	SkipCount        int       `json:"skip_count"`
	ClickThroughRate float64   `json:"click_through_rate"`
	SkipRate         float64   `json:"skip_rate"`
	DiversityScore   float64   `json:"diversity_score"`
	ExplorationRate  float64   `json:"exploration_rate"`
	PeriodDays       int       `json:"period_days"`
}

// CalculateDiversityScore measures how many taxonomy categories the
// user's recent interactions touched, as a fraction of all categories
func (s *Service) CalculateDiversityScore(userID uuid.UUID, periodDays int) (float64, error) {
	since := time.Now().AddDate(0, 0, -periodDays)

	var categories []string
	err := s.db.Model(&models.JokeInteraction{}).
		Distinct("tags.category").
		Joins("JOIN joke_tags ON joke_tags.joke_id = joke_interactions.joke_id").
		Joins("JOIN tags ON tags.id = joke_tags.tag_id").
		Where("joke_interactions.user_id = ? AND joke_interactions.created_at >= ?", userID, since).
		Pluck("tags.category", &categories).Error
	if err != nil {
		return 0, fmt.Errorf("failed to calculate diversity: %w", err)
	}

	return float64(len(categories)) / float64(len(models.TagCategories)), nil
}

// GetRecommendationPerformance computes a user's engagement metrics over
// the last periodDays days
func (s *Service) GetRecommendationPerformance(userID uuid.UUID, periodDays int) (*PerformanceReport, error) {
	since := time.Now().AddDate(0, 0, -periodDays)

	counts := make(map[string]int)
	for _, interactionType := range []string{models.InteractionView, models.InteractionLike, models.InteractionSkip} {
		var count int64
		err := s.db.Model(&models.JokeInteraction{}).
			Where("user_id = ? AND interaction_type = ? AND created_at >= ?", userID, interactionType, since).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count %s interactions: %w", interactionType, err)
		}
		counts[interactionType] = int(count)
	}

	views := counts[models.InteractionView]
	denominator := views
	if denominator < 1 {
		denominator = 1
	}

	report := &PerformanceReport{
		UserID:     userID,
		ViewCount:  views,
		LikeCount:  counts[models.InteractionLike],
		SkipCount:  counts[models.InteractionSkip],
		PeriodDays: periodDays,
	}
	report.ClickThroughRate = float64(report.LikeCount) / float64(denominator)
	report.SkipRate = float64(report.SkipCount) / float64(denominator)

	diversity, err := s.CalculateDiversityScore(userID, periodDays)
	if err != nil {
		return nil, err
	}
	report.DiversityScore = diversity

	// Users who skip often are effectively exploring; cap the estimate
	report.ExplorationRate = report.SkipRate
	if report.ExplorationRate > 0.5 {
		report.ExplorationRate = 0.5
	}

	return report, nil
}

// RecordMetric persists one metric snapshot for later analysis
func (s *Service) RecordMetric(userID uuid.UUID, metricType string, value float64, periodStart, periodEnd time.Time) error {
	metric := models.PersonalizationMetric{
		UserID:      userID,
		MetricType:  metricType,
		Value:       value,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}
	if err := s.db.Create(&metric).Error; err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}
	return nil
}

// RecordPerformanceMetrics computes a user's performance report and
// persists each component metric
func (s *Service) RecordPerformanceMetrics(userID uuid.UUID, periodDays int) error {
	report, err := s.GetRecommendationPerformance(userID, periodDays)
	if err != nil {
		return err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -periodDays)
	metrics := map[string]float64{
		models.MetricClickThroughRate: report.ClickThroughRate,
		models.MetricSkipRate:         report.SkipRate,
		models.MetricDiversityScore:   report.DiversityScore,
		models.MetricExplorationRate:  report.ExplorationRate,
	}
	for metricType, value := range metrics {
		if err := s.RecordMetric(userID, metricType, value, start, end); err != nil {
			return err
		}
	}
	return nil
}

// GetRecentlyActiveUsers returns ids of users with interactions since the
// given time, used by the periodic metric jobs
func (s *Service) GetRecentlyActiveUsers(since time.Time) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	err := s.db.Model(&models.JokeInteraction{}).
		Distinct("user_id").
		Where("created_at >= ?", since).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}
	return userIDs, nil
}

// PurgeOldMetrics deletes metric snapshots older than the retention window
func (s *Service) PurgeOldMetrics(retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.PersonalizationMetric{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge metrics: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("Purged %d metric rows older than %d days", result.RowsAffected, retentionDays)
	}
	return result.RowsAffected, nil
}
