package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag categories forming the taxonomy
const (
	CategoryStyle  = "style"
	CategoryFormat = "format"
	CategoryTopic  = "topic"
	CategoryTone   = "tone"
)

// TagCategories lists all taxonomy categories in display order
var TagCategories = []string{CategoryStyle, CategoryFormat, CategoryTopic, CategoryTone}

// Tag is a taxonomy label describing a joke's character.
// Tags are immutable once created except for the description.
type Tag struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Name        string    `json:"name" db:"name" gorm:"uniqueIndex;not null"`
	Category    string    `json:"category" db:"category" gorm:"index;not null"`
	Value       string    `json:"value" db:"value" gorm:"not null"` // machine-readable slug
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`

	// Relationships
	JokeTags []JokeTag `json:"joke_tags,omitempty" gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

// TableName sets the table name for the Tag model
func (Tag) TableName() string {
	return "tags"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// JokeTag associates a tag with a joke. Confidence in [0,1] expresses how
// strongly the joke exhibits the tag.
type JokeTag struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	JokeID     uuid.UUID `json:"joke_id" db:"joke_id" gorm:"uniqueIndex:idx_joke_tag;type:uuid;not null"`
	TagID      uuid.UUID `json:"tag_id" db:"tag_id" gorm:"uniqueIndex:idx_joke_tag;type:uuid;not null"`
	Confidence float64   `json:"confidence" db:"confidence" gorm:"default:1.0"`
	CreatedAt  time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`

	// Relationships
	Tag Tag `json:"tag,omitempty" gorm:"foreignKey:TagID"`
}

// TableName sets the table name for the JokeTag model
func (JokeTag) TableName() string {
	return "joke_tags"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (jt *JokeTag) BeforeCreate(tx *gorm.DB) error {
	if jt.ID == uuid.Nil {
		jt.ID = uuid.New()
	}
	return nil
}

// UserTagScore is a user's learned affinity for a tag, always in [-1,1]
type UserTagScore struct {
	ID               uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID           uuid.UUID `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_tag_score;type:uuid;not null"`
	TagID            uuid.UUID `json:"tag_id" db:"tag_id" gorm:"uniqueIndex:idx_user_tag_score;type:uuid;not null"`
	Score            float64   `json:"score" db:"score" gorm:"default:0.0"`
	InteractionCount int       `json:"interaction_count" db:"interaction_count" gorm:"default:0"`
	LastUpdated      time.Time `json:"last_updated" db:"last_updated"`

	// Relationships
	Tag Tag `json:"tag,omitempty" gorm:"foreignKey:TagID"`
}

// TableName sets the table name for the UserTagScore model
func (UserTagScore) TableName() string {
	return "user_tag_scores"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (s *UserTagScore) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
