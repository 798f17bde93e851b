package jokes

import (
	"math"
	"testing"

	"giggle-glide/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.UserStats{},
		&models.Joke{},
		&models.JokeInteraction{},
		&models.Favorite{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func createTestJoke(t *testing.T, db *gorm.DB, text, language string) *models.Joke {
	joke := &models.Joke{Text: text, Category: "general", Language: language}
	if err := db.Create(joke).Error; err != nil {
		t.Fatalf("Failed to create test joke: %v", err)
	}
	return joke
}

func TestMarkSeenIdempotent(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	joke := createTestJoke(t, db, "joke", "en")

	created, err := service.MarkSeen(userID, joke.ID, models.InteractionView)
	if err != nil {
		t.Fatalf("Failed to mark seen: %v", err)
	}
	if !created {
		t.Error("Expected first interaction to be created")
	}

	created, err = service.MarkSeen(userID, joke.ID, models.InteractionView)
	if err != nil {
		t.Fatalf("Failed on repeat mark seen: %v", err)
	}
	if created {
		t.Error("Expected repeat interaction to be a no-op")
	}

	var count int64
	db.Model(&models.JokeInteraction{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 interaction row, got %d", count)
	}

	updated, err := service.Get(joke.ID)
	if err != nil {
		t.Fatalf("Failed to get joke: %v", err)
	}
	if updated.ViewCount != 1 {
		t.Errorf("Expected view count 1 after repeat, got %d", updated.ViewCount)
	}
}

func TestMarkSeenDerivesRating(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	joke := createTestJoke(t, db, "joke", "en")

	// 3 viewers, 1 like: rating = 1/3*5 = 1.67
	viewers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, userID := range viewers {
		if _, err := service.MarkSeen(userID, joke.ID, models.InteractionView); err != nil {
			t.Fatalf("Failed to mark view: %v", err)
		}
	}
	if _, err := service.MarkSeen(viewers[0], joke.ID, models.InteractionLike); err != nil {
		t.Fatalf("Failed to mark like: %v", err)
	}

	updated, _ := service.Get(joke.ID)
	if updated.ViewCount != 3 || updated.LikeCount != 1 {
		t.Errorf("Unexpected counters: views=%d likes=%d", updated.ViewCount, updated.LikeCount)
	}
	if math.Abs(updated.Rating-1.67) > 1e-9 {
		t.Errorf("Expected rating 1.67, got %f", updated.Rating)
	}
}

func TestMarkSeenUpdatesUserStats(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	first := createTestJoke(t, db, "first", "en")
	second := createTestJoke(t, db, "second", "en")

	service.MarkSeen(userID, first.ID, models.InteractionView)
	service.MarkSeen(userID, first.ID, models.InteractionLike)
	service.MarkSeen(userID, second.ID, models.InteractionView)
	service.MarkSeen(userID, second.ID, models.InteractionSkip)

	var stats models.UserStats
	if err := db.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		t.Fatalf("Failed to get user stats: %v", err)
	}
	if stats.JokesViewed != 2 || stats.JokesLiked != 1 || stats.JokesSkipped != 1 {
		t.Errorf("Unexpected stats: viewed=%d liked=%d skipped=%d",
			stats.JokesViewed, stats.JokesLiked, stats.JokesSkipped)
	}
	if stats.LastActive.IsZero() {
		t.Error("Expected last active to be set")
	}
}

func TestSeenJokeIDs(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	viewed := createTestJoke(t, db, "viewed", "en")
	shared := createTestJoke(t, db, "shared", "en")
	unseen := createTestJoke(t, db, "unseen", "en")
	_ = unseen

	service.MarkSeen(userID, viewed.ID, models.InteractionView)
	service.MarkSeen(userID, viewed.ID, models.InteractionLike)
	service.MarkSeen(userID, shared.ID, models.InteractionShare)

	ids, err := service.SeenJokeIDs(userID)
	if err != nil {
		t.Fatalf("Failed to get seen jokes: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("Expected 1 seen joke, got %d", len(ids))
	}
	if ids[0] != viewed.ID {
		t.Errorf("Expected the viewed joke to be seen")
	}
}

func TestGetTrending(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	hot := createTestJoke(t, db, "hot", "en")
	warm := createTestJoke(t, db, "warm", "en")
	createTestJoke(t, db, "cold", "en")
	foreign := createTestJoke(t, db, "caliente", "es")

	for i := 0; i < 3; i++ {
		service.MarkSeen(uuid.New(), hot.ID, models.InteractionView)
	}
	service.MarkSeen(uuid.New(), warm.ID, models.InteractionView)
	service.MarkSeen(uuid.New(), foreign.ID, models.InteractionView)

	trending, err := service.GetTrending("en", 24, 2)
	if err != nil {
		t.Fatalf("Failed to get trending: %v", err)
	}
	if len(trending) != 2 {
		t.Fatalf("Expected 2 trending jokes, got %d", len(trending))
	}
	if trending[0].ID != hot.ID {
		t.Errorf("Expected most-interacted joke first")
	}
	for _, joke := range trending {
		if joke.Language != "en" {
			t.Errorf("Expected only English jokes, got %s", joke.Language)
		}
	}
}

func TestGetTrendingFillsQuietWindow(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	best := createTestJoke(t, db, "best", "en")
	db.Model(best).Updates(map[string]interface{}{"rating": 4.5, "view_count": 100, "like_count": 90})
	createTestJoke(t, db, "other", "en")

	trending, err := service.GetTrending("en", 24, 2)
	if err != nil {
		t.Fatalf("Failed to get trending: %v", err)
	}
	if len(trending) != 2 {
		t.Fatalf("Expected fallback fill to 2 jokes, got %d", len(trending))
	}
	if trending[0].ID != best.ID {
		t.Errorf("Expected highest-rated joke first in fallback")
	}
}

func TestUpdateJokeRatings(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	stale := createTestJoke(t, db, "stale", "en")
	db.Model(stale).Updates(map[string]interface{}{"view_count": 10, "like_count": 5, "rating": 0.0})

	current := createTestJoke(t, db, "current", "en")
	db.Model(current).Updates(map[string]interface{}{"view_count": 4, "like_count": 2, "rating": 2.5})

	updated, err := service.UpdateJokeRatings()
	if err != nil {
		t.Fatalf("Failed to update ratings: %v", err)
	}
	if updated != 1 {
		t.Errorf("Expected 1 rating update, got %d", updated)
	}

	refreshed, _ := service.Get(stale.ID)
	if math.Abs(refreshed.Rating-2.5) > 1e-9 {
		t.Errorf("Expected rating 2.5, got %f", refreshed.Rating)
	}
}

func TestFavorites(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	joke := createTestJoke(t, db, "keeper", "en")

	added, err := service.AddFavorite(userID, joke.ID)
	if err != nil {
		t.Fatalf("Failed to add favorite: %v", err)
	}
	if !added {
		t.Error("Expected favorite to be added")
	}

	added, err = service.AddFavorite(userID, joke.ID)
	if err != nil {
		t.Fatalf("Failed on repeat add: %v", err)
	}
	if added {
		t.Error("Expected repeat add to be a no-op")
	}

	favorites, err := service.GetFavorites(userID, 10)
	if err != nil {
		t.Fatalf("Failed to get favorites: %v", err)
	}
	if len(favorites) != 1 || favorites[0].ID != joke.ID {
		t.Fatalf("Expected 1 favorite, got %d", len(favorites))
	}

	removed, err := service.RemoveFavorite(userID, joke.ID)
	if err != nil {
		t.Fatalf("Failed to remove favorite: %v", err)
	}
	if !removed {
		t.Error("Expected removal to report true")
	}

	removed, _ = service.RemoveFavorite(userID, joke.ID)
	if removed {
		t.Error("Expected repeat removal to report false")
	}
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	match := createTestJoke(t, db, "Why did the chicken cross the road?", "en")
	db.Model(match).Update("rating", 3.0)
	better := createTestJoke(t, db, "A chicken walks into a library.", "en")
	db.Model(better).Update("rating", 4.0)
	createTestJoke(t, db, "Unrelated pun about cats.", "en")

	results, err := service.Search("chicken", "en", 10)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ID != better.ID {
		t.Errorf("Expected best-rated result first")
	}
}
