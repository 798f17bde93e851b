package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Personalization metric types
const (
	MetricClickThroughRate = "click_through_rate"
	MetricSkipRate         = "skip_rate"
	MetricAvgRating        = "avg_rating"
	MetricExplorationRate  = "exploration_rate"
	MetricDiversityScore   = "diversity_score"
)

// PersonalizationMetric is a write-only analytics snapshot recorded
// periodically per user
type PersonalizationMetric struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID `json:"user_id" db:"user_id" gorm:"index;type:uuid;not null"`
	MetricType  string    `json:"metric_type" db:"metric_type" gorm:"not null"`
	Value       float64   `json:"value" db:"value"`
	PeriodStart time.Time `json:"period_start" db:"period_start"`
	PeriodEnd   time.Time `json:"period_end" db:"period_end"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime;index"`
}

// TableName sets the table name for the PersonalizationMetric model
func (PersonalizationMetric) TableName() string {
	return "personalization_metrics"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (m *PersonalizationMetric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// AIUsageRecord tracks tokens and cost per AI generation call
type AIUsageRecord struct {
	ID               uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID           uuid.UUID `json:"user_id" db:"user_id" gorm:"index;type:uuid"`
	GenerationID     uuid.UUID `json:"generation_id" db:"generation_id" gorm:"index;type:uuid;not null"`
	Model            string    `json:"model" db:"model" gorm:"not null"`
	PromptTokens     int       `json:"prompt_tokens" db:"prompt_tokens" gorm:"default:0"`
	CompletionTokens int       `json:"completion_tokens" db:"completion_tokens" gorm:"default:0"`
	EstimatedCost    float64   `json:"estimated_cost" db:"estimated_cost" gorm:"default:0.0"`
	JokesGenerated   int       `json:"jokes_generated" db:"jokes_generated" gorm:"default:0"`
	JokesStored      int       `json:"jokes_stored" db:"jokes_stored" gorm:"default:0"`
	JokesFlagged     int       `json:"jokes_flagged" db:"jokes_flagged" gorm:"default:0"`
	CreatedAt        time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime;index"`
}

// TableName sets the table name for the AIUsageRecord model
func (AIUsageRecord) TableName() string {
	return "ai_usage_records"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (r *AIUsageRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ModerationRecord stores the moderation verdict for a generated joke
type ModerationRecord struct {
	ID                uuid.UUID      `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	JokeID            uuid.UUID      `json:"joke_id" db:"joke_id" gorm:"index;type:uuid;not null"`
	Safe              bool           `json:"safe" db:"safe" gorm:"index;default:true"`
	FlaggedCategories pq.StringArray `json:"flagged_categories" db:"flagged_categories" gorm:"type:text[]"`
	ViolenceScore     float64        `json:"violence_score" db:"violence_score" gorm:"default:0.0"`
	HateScore         float64        `json:"hate_score" db:"hate_score" gorm:"default:0.0"`
	SelfHarmScore     float64        `json:"self_harm_score" db:"self_harm_score" gorm:"default:0.0"`
	SexualScore       float64        `json:"sexual_score" db:"sexual_score" gorm:"default:0.0"`
	ModerationModel   string         `json:"moderation_model" db:"moderation_model"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for the ModerationRecord model
func (ModerationRecord) TableName() string {
	return "moderation_records"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (r *ModerationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
