package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an app user identified by a registered device
type User struct {
	ID       uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Username string    `json:"username" db:"username" gorm:"uniqueIndex;not null"`
	Email    string    `json:"email" db:"email" gorm:"uniqueIndex;not null"`

	// User preferences
	PreferredLanguage    string `json:"preferred_language" db:"preferred_language" gorm:"default:en"`
	DarkMode             bool   `json:"dark_mode" db:"dark_mode" gorm:"default:false"`
	NotificationsEnabled bool   `json:"notifications_enabled" db:"notifications_enabled" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Favorites    []Favorite        `json:"favorites,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Interactions []JokeInteraction `json:"interactions,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	TagScores    []UserTagScore    `json:"tag_scores,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName sets the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserStats holds aggregated interaction counters per user
type UserStats struct {
	ID           uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	UserID       uuid.UUID `json:"user_id" db:"user_id" gorm:"uniqueIndex;type:uuid;not null"`
	JokesViewed  int       `json:"jokes_viewed" db:"jokes_viewed" gorm:"default:0"`
	JokesLiked   int       `json:"jokes_liked" db:"jokes_liked" gorm:"default:0"`
	JokesSkipped int       `json:"jokes_skipped" db:"jokes_skipped" gorm:"default:0"`
	LastActive   time.Time `json:"last_active" db:"last_active"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the UserStats model
func (UserStats) TableName() string {
	return "user_stats"
}

// BeforeCreate assigns an ID when one wasn't set by the caller
func (s *UserStats) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
