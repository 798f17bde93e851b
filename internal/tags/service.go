// Package tags manages the tag taxonomy and joke↔tag associations
package tags

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"giggle-glide/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested tag does not exist
var ErrNotFound = errors.New("tag not found")

// Service handles tag taxonomy operations
type Service struct {
	db *gorm.DB
}

// NewService creates a new tag service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// TagWithConfidence pairs a tag with its confidence on a specific joke
type TagWithConfidence struct {
	Tag        models.Tag `json:"tag"`
	Confidence float64    `json:"confidence"`
}

// TagUsage pairs a tag with how many jokes reference it
type TagUsage struct {
	Tag        models.Tag `json:"tag"`
	UsageCount int        `json:"usage_count"`
}

// TagCoOccurrence pairs a tag with how often it appears alongside a
// reference tag, normalized by the reference tag's joke count
type TagCoOccurrence struct {
	Tag   models.Tag `json:"tag"`
	Score float64    `json:"score"`
}

// CreateTag creates a tag, returning the existing one when the name is
// already taken rather than erroring
func (s *Service) CreateTag(name, category, value, description string) (*models.Tag, error) {
	var existing models.Tag
	err := s.db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up tag %s: %w", name, err)
	}

	tag := models.Tag{
		Name:        name,
		Category:    category,
		Value:       value,
		Description: description,
	}
	if err := s.db.Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag %s: %w", name, err)
	}

	return &tag, nil
}

// GetTag returns a tag by id
func (s *Service) GetTag(tagID uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.Where("id = ?", tagID).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// GetTagsByCategory returns all tags in a category ordered by name
func (s *Service) GetTagsByCategory(category string) ([]models.Tag, error) {
	var tagList []models.Tag
	err := s.db.Where("category = ?", category).Order("name ASC").Find(&tagList).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tags for category %s: %w", category, err)
	}
	return tagList, nil
}

// GetAllTags returns the full taxonomy ordered by category then name
func (s *Service) GetAllTags() ([]models.Tag, error) {
	var tagList []models.Tag
	if err := s.db.Order("category ASC, name ASC").Find(&tagList).Error; err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	return tagList, nil
}

// FindByValue looks up a tag by its machine-readable slug within a category
func (s *Service) FindByValue(category, value string) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.Where("category = ? AND value = ?", category, value).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tag %s/%s: %w", category, value, err)
	}
	return &tag, nil
}

// GetJokeTags returns a joke's tags with confidences, highest first
func (s *Service) GetJokeTags(jokeID uuid.UUID) ([]TagWithConfidence, error) {
	var links []models.JokeTag
	err := s.db.Preload("Tag").
		Where("joke_id = ?", jokeID).
		Order("confidence DESC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tags for joke %s: %w", jokeID, err)
	}

	result := make([]TagWithConfidence, len(links))
	for i, link := range links {
		result[i] = TagWithConfidence{Tag: link.Tag, Confidence: link.Confidence}
	}
	return result, nil
}

// AddJokeTag associates a tag with a joke. If the association already
// exists its confidence is updated in place.
func (s *Service) AddJokeTag(jokeID, tagID uuid.UUID, confidence float64) (*models.JokeTag, error) {
	var existing models.JokeTag
	err := s.db.Where("joke_id = ? AND tag_id = ?", jokeID, tagID).First(&existing).Error
	if err == nil {
		if existing.Confidence != confidence {
			existing.Confidence = confidence
			if err := s.db.Model(&existing).Update("confidence", confidence).Error; err != nil {
				return nil, fmt.Errorf("failed to update joke tag confidence: %w", err)
			}
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up joke tag: %w", err)
	}

	link := models.JokeTag{
		JokeID:     jokeID,
		TagID:      tagID,
		Confidence: confidence,
	}
	if err := s.db.Create(&link).Error; err != nil {
		return nil, fmt.Errorf("failed to add joke tag: %w", err)
	}
	return &link, nil
}

// RemoveJokeTag removes a tag from a joke, reporting whether it existed
func (s *Service) RemoveJokeTag(jokeID, tagID uuid.UUID) (bool, error) {
	result := s.db.Where("joke_id = ? AND tag_id = ?", jokeID, tagID).Delete(&models.JokeTag{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to remove joke tag: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// InitializeDefaultTaxonomy seeds the default tag set. Safe to call more
// than once since each creation is idempotent.
func (s *Service) InitializeDefaultTaxonomy() (int, error) {
	created := 0
	for _, def := range DefaultTaxonomy() {
		if _, err := s.CreateTag(def.Name, def.Category, def.Value, def.Description); err != nil {
			return created, fmt.Errorf("failed to seed tag %s: %w", def.Name, err)
		}
		created++
	}

	log.Printf("Initialized %d default tags", created)
	return created, nil
}

// GetTagPopularity ranks tags by how many jokes carry them
func (s *Service) GetTagPopularity(limit int) ([]TagUsage, error) {
	type usageRow struct {
		TagID      uuid.UUID
		UsageCount int
	}

	var rows []usageRow
	err := s.db.Model(&models.JokeTag{}).
		Select("tag_id, count(*) as usage_count").
		Group("tag_id").
		Order("usage_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tag popularity: %w", err)
	}

	result := make([]TagUsage, 0, len(rows))
	for _, row := range rows {
		var tag models.Tag
		if err := s.db.Where("id = ?", row.TagID).First(&tag).Error; err != nil {
			log.Printf("Skipping popularity row for missing tag %s: %v", row.TagID, err)
			continue
		}
		result = append(result, TagUsage{Tag: tag, UsageCount: row.UsageCount})
	}

	// Ties broken by name for a stable order
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].UsageCount != result[j].UsageCount {
			return result[i].UsageCount > result[j].UsageCount
		}
		return result[i].Tag.Name < result[j].Tag.Name
	})

	return result, nil
}

// GetSimilarTags finds tags that co-occur with the given tag on the same
// jokes. The score is the co-occurrence count divided by how many jokes
// carry the reference tag.
func (s *Service) GetSimilarTags(tagID uuid.UUID, limit int) ([]TagCoOccurrence, error) {
	var refLinks []models.JokeTag
	if err := s.db.Where("tag_id = ?", tagID).Find(&refLinks).Error; err != nil {
		return nil, fmt.Errorf("failed to get reference tag jokes: %w", err)
	}
	if len(refLinks) == 0 {
		return []TagCoOccurrence{}, nil
	}

	jokeIDs := make([]uuid.UUID, len(refLinks))
	for i, link := range refLinks {
		jokeIDs[i] = link.JokeID
	}

	var coLinks []models.JokeTag
	err := s.db.Preload("Tag").
		Where("joke_id IN ? AND tag_id <> ?", jokeIDs, tagID).
		Find(&coLinks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get co-occurring tags: %w", err)
	}

	counts := make(map[uuid.UUID]int)
	tagByID := make(map[uuid.UUID]models.Tag)
	for _, link := range coLinks {
		counts[link.TagID]++
		tagByID[link.TagID] = link.Tag
	}

	result := make([]TagCoOccurrence, 0, len(counts))
	refJokeCount := float64(len(jokeIDs))
	for id, count := range counts {
		result = append(result, TagCoOccurrence{
			Tag:   tagByID[id],
			Score: float64(count) / refJokeCount,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Tag.Name < result[j].Tag.Name
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
