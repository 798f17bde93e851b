package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Joke sources
const (
	SourceCurated     = "curated"
	SourceExternalAPI = "external_api"
	SourceAIGenerated = "ai_generated"
)

// Interaction types recorded against jokes. Only view, like and skip feed
// the preference learning; share and report are logged for analytics only.
const (
	InteractionView   = "view"
	InteractionLike   = "like"
	InteractionSkip   = "skip"
	InteractionShare  = "share"
	InteractionReport = "report"
)

// Joke represents a single joke and its engagement counters.
// Rating is derived from the like/view ratio and never set directly.
type Joke struct {
	ID       uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Text     string    `json:"text" db:"text" gorm:"type:text;not null"`
	Category string    `json:"category" db:"category" gorm:"index:idx_joke_category_language"`
	Language string    `json:"language" db:"language" gorm:"index:idx_joke_category_language;default:en"`

	// Engagement metrics
	Rating    float64 `json:"rating" db:"rating" gorm:"index;default:0.0"`
	ViewCount int     `json:"view_count" db:"view_count" gorm:"default:0"`
	LikeCount int     `json:"like_count" db:"like_count" gorm:"default:0"`

	// External reference when the joke comes from an outside source
	ExternalID string `json:"external_id" db:"external_id"`
	Source     string `json:"source" db:"source"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`

	// Relationships
	Tags         []JokeTag         `json:"tags,omitempty" gorm:"foreignKey:JokeID;constraint:OnDelete:CASCADE"`
	Interactions []JokeInteraction `json:"interactions,omitempty" gorm:"foreignKey:JokeID;constraint:OnDelete:CASCADE"`
	Favorites    []Favorite        `json:"favorites,omitempty" gorm:"foreignKey:JokeID;constraint:OnDelete:CASCADE"`
}

// TableName sets the table name for the Joke model
func (Joke) TableName() string {
	return "jokes"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (j *Joke) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// JokeInteraction records a single user interaction with a joke.
// At most one row exists per (user, joke, type).
type JokeInteraction struct {
	ID              uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID          uuid.UUID `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_interaction_user_joke_type;type:uuid;not null"`
	JokeID          uuid.UUID `json:"joke_id" db:"joke_id" gorm:"uniqueIndex:idx_interaction_user_joke_type;type:uuid;not null"`
	InteractionType string    `json:"interaction_type" db:"interaction_type" gorm:"uniqueIndex:idx_interaction_user_joke_type;not null"`
	CreatedAt       time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime;index:idx_interaction_created"`
}

// TableName sets the table name for the JokeInteraction model
func (JokeInteraction) TableName() string {
	return "joke_interactions"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (i *JokeInteraction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Favorite marks a joke a user saved for later
type Favorite struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_favorite_user_joke;type:uuid;not null"`
	JokeID    uuid.UUID `json:"joke_id" db:"joke_id" gorm:"uniqueIndex:idx_favorite_user_joke;type:uuid;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for the Favorite model
func (Favorite) TableName() string {
	return "favorites"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
