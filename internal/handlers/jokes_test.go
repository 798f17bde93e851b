package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"giggle-glide/internal/cache"
	"giggle-glide/internal/jokes"
	"giggle-glide/internal/models"
	"giggle-glide/internal/tags"

	"github.com/gin-gonic/gin"
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
		&models.Tag{},
		&models.JokeTag{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func setupJokeHandler(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	appCache := cache.New(cache.NewMemoryStore(), "test:")
	handler := NewJokeHandler(jokes.NewService(db), tags.NewService(db), appCache)

	router := gin.New()
	router.GET("/api/jokes/trending", handler.GetTrending)

	return router, db
}

func createTestJoke(t *testing.T, db *gorm.DB, text string) *models.Joke {
	joke := &models.Joke{Text: text, Category: "general", Language: "en"}
	if err := db.Create(joke).Error; err != nil {
		t.Fatalf("Failed to create test joke: %v", err)
	}
	return joke
}

func recordInteractions(t *testing.T, db *gorm.DB, jokeID uuid.UUID, count int, at time.Time) {
	for i := 0; i < count; i++ {
		interaction := &models.JokeInteraction{
			UserID:          uuid.New(),
			JokeID:          jokeID,
			InteractionType: "view",
			CreatedAt:       at,
		}
		if err := db.Create(interaction).Error; err != nil {
			t.Fatalf("Failed to create test interaction: %v", err)
		}
	}
}

type trendingResponse struct {
	Jokes    []models.Joke `json:"jokes"`
	CacheHit bool          `json:"cache_hit"`
}

func getTrending(t *testing.T, router *gin.Engine, query string) trendingResponse {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jokes/trending?"+query, nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp trendingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode trending response: %v", err)
	}
	return resp
}

func TestGetTrendingCachesPerWindow(t *testing.T) {
	router, db := setupJokeHandler(t)

	recent := createTestJoke(t, db, "Recent hit")
	older := createTestJoke(t, db, "Older favorite")

	recordInteractions(t, db, recent.ID, 1, time.Now())
	recordInteractions(t, db, older.ID, 3, time.Now().Add(-50*time.Hour))

	day := getTrending(t, router, "window_hours=24&limit=1")
	if day.CacheHit {
		t.Error("Expected first daily request to miss the cache")
	}
	if len(day.Jokes) != 1 || day.Jokes[0].ID != recent.ID {
		t.Fatalf("Expected daily window to surface the recent joke, got %+v", day.Jokes)
	}

	dayAgain := getTrending(t, router, "window_hours=24&limit=1")
	if !dayAgain.CacheHit {
		t.Error("Expected repeated daily request to hit the cache")
	}

	week := getTrending(t, router, "window_hours=168&limit=1")
	if week.CacheHit {
		t.Error("Expected weekly request to miss the daily cache entry")
	}
	if len(week.Jokes) != 1 || week.Jokes[0].ID != older.ID {
		t.Fatalf("Expected weekly window to surface the older joke, got %+v", week.Jokes)
	}
}
