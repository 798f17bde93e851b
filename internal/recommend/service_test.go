package recommend

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"giggle-glide/internal/aijokes"
	"giggle-glide/internal/cache"
	"giggle-glide/internal/jokes"
	"giggle-glide/internal/models"
	"giggle-glide/internal/preferences"
	"giggle-glide/internal/tags"

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
		&models.Tag{},
		&models.JokeTag{},
		&models.UserTagScore{},
		&models.JokeInteraction{},
		&models.Favorite{},
		&models.PersonalizationMetric{},
		&models.ModerationRecord{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

type stubGenerator struct {
	calls int
	jokes []aijokes.GeneratedJoke
	err   error
}

func (g *stubGenerator) GeneratePersonalizedJokes(ctx context.Context, userID uuid.UUID, tagsByCategory map[string][]string, language string, count int) ([]aijokes.GeneratedJoke, error) {
	g.calls++
	return g.jokes, g.err
}

func (g *stubGenerator) GenerateFallbackJokes(ctx context.Context, language string, count int) ([]aijokes.GeneratedJoke, error) {
	g.calls++
	return g.jokes, g.err
}

func newTestService(t *testing.T, generator JokeGenerator) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	cacheSvc := cache.New(cache.NewMemoryStore(), "test:")
	rng := rand.New(rand.NewSource(42))
	service := NewService(db, tags.NewService(db), preferences.NewService(db),
		jokes.NewService(db), cacheSvc, generator, rng)
	return service, db
}

func createRatedJoke(t *testing.T, db *gorm.DB, text string, rating float64, tag *models.Tag, confidence float64) *models.Joke {
	joke := &models.Joke{Text: text, Category: "general", Language: "en", Rating: rating}
	if err := db.Create(joke).Error; err != nil {
		t.Fatalf("Failed to create joke: %v", err)
	}
	if tag != nil {
		if err := db.Create(&models.JokeTag{JokeID: joke.ID, TagID: tag.ID, Confidence: confidence}).Error; err != nil {
			t.Fatalf("Failed to tag joke: %v", err)
		}
	}
	return joke
}

func createTag(t *testing.T, db *gorm.DB, name, category string) *models.Tag {
	tag := &models.Tag{Name: name, Category: category, Value: name}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("Failed to create tag: %v", err)
	}
	return tag
}

func TestEmptyHistoryFallsBackToTrending(t *testing.T) {
	service, db := newTestService(t, nil)
	userID := uuid.New()

	// 5 jokes in store, no preferences, no AI service
	for i := 0; i < 5; i++ {
		joke := createRatedJoke(t, db, "joke", 3.0, nil, 0)
		db.Create(&models.JokeInteraction{UserID: uuid.New(), JokeID: joke.ID, InteractionType: models.InteractionView})
	}

	result := service.GetPersonalizedRecommendations(context.Background(), Request{
		UserID:      userID,
		Limit:       10,
		ExcludeSeen: true,
	})

	if len(result.Recommendations) != 5 {
		t.Fatalf("Expected exactly 5 jokes, got %d", len(result.Recommendations))
	}
	for _, item := range result.Recommendations {
		if item.Strategy != StrategyFallback {
			t.Errorf("Expected strategy %s, got %s", StrategyFallback, item.Strategy)
		}
	}
	if result.StrategyBreakdown[StrategyFallback] != 5 {
		t.Errorf("Expected breakdown to count 5 fallback items")
	}
}

func TestLikePropagatesToTagScores(t *testing.T) {
	service, db := newTestService(t, nil)
	userID := uuid.New()

	observational := createTag(t, db, "observational", models.CategoryStyle)
	work := createTag(t, db, "work", models.CategoryTopic)
	joke := createRatedJoke(t, db, "work joke", 3.0, observational, 0.9)
	db.Create(&models.JokeTag{JokeID: joke.ID, TagID: work.ID, Confidence: 0.8})

	updated, err := service.UpdateUserPreferences(context.Background(), userID, joke.ID, models.InteractionLike, 1.0)
	if err != nil {
		t.Fatalf("Failed to update preferences: %v", err)
	}
	if updated != 2 {
		t.Errorf("Expected 2 tag scores updated, got %d", updated)
	}

	var scores []models.UserTagScore
	db.Where("user_id = ?", userID).Find(&scores)
	if len(scores) != 2 {
		t.Fatalf("Expected 2 tag scores, got %d", len(scores))
	}
	for _, score := range scores {
		if score.Score <= 0 {
			t.Errorf("Expected positive score after like, got %f", score.Score)
		}
		if score.InteractionCount != 1 {
			t.Errorf("Expected interaction count 1, got %d", score.InteractionCount)
		}
	}
}

func TestCollaborativeSignalFromSimilarUser(t *testing.T) {
	service, db := newTestService(t, nil)

	userA := uuid.New()
	userB := uuid.New()
	tagX := createTag(t, db, "puns", models.CategoryStyle)
	tagY := createTag(t, db, "animals", models.CategoryTopic)

	// Closely aligned preference vectors
	db.Create(&models.UserTagScore{UserID: userA, TagID: tagX.ID, Score: 0.8})
	db.Create(&models.UserTagScore{UserID: userA, TagID: tagY.ID, Score: 0.6})
	db.Create(&models.UserTagScore{UserID: userB, TagID: tagX.ID, Score: 0.7})
	db.Create(&models.UserTagScore{UserID: userB, TagID: tagY.ID, Score: 0.5})

	jokeK := createRatedJoke(t, db, "joke K", 3.0, tagX, 1.0)
	db.Create(&models.JokeInteraction{UserID: userB, JokeID: jokeK.ID, InteractionType: models.InteractionLike})

	neighbors, err := service.FindSimilarUsers(userA)
	if err != nil {
		t.Fatalf("Failed to find similar users: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].UserID != userB {
		t.Fatalf("Expected user B as neighbor, got %v", neighbors)
	}
	if neighbors[0].Similarity < SimilarityThreshold {
		t.Errorf("Expected similarity above threshold, got %f", neighbors[0].Similarity)
	}

	scores, err := service.CollaborativeScores(neighbors)
	if err != nil {
		t.Fatalf("Failed to compute collaborative scores: %v", err)
	}
	if scores[jokeK.ID] <= 0 {
		t.Errorf("Expected positive collaborative score for joke K, got %f", scores[jokeK.ID])
	}

	// Neighbor-sourced candidates carry their own strategy label
	candidates, err := service.collaborativeCandidates(Request{UserID: userA, Language: "en"})
	if err != nil {
		t.Fatalf("Failed to load collaborative candidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 collaborative candidate, got %d", len(candidates))
	}
	if candidates[0].Strategy != StrategyCollaborative {
		t.Errorf("Expected strategy %s, got %s", StrategyCollaborative, candidates[0].Strategy)
	}
}

func TestExcludeSeenInvariant(t *testing.T) {
	service, db := newTestService(t, nil)
	userID := uuid.New()

	tag := createTag(t, db, "puns", models.CategoryStyle)
	db.Create(&models.UserTagScore{UserID: userID, TagID: tag.ID, Score: 0.8, InteractionCount: 3})

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 10; i++ {
		joke := createRatedJoke(t, db, "joke", 3.0, tag, 1.0)
		if i < 4 {
			db.Create(&models.JokeInteraction{UserID: userID, JokeID: joke.ID, InteractionType: models.InteractionView})
			seen[joke.ID] = true
		}
	}

	result := service.GetPersonalizedRecommendations(context.Background(), Request{
		UserID:      userID,
		Limit:       6,
		ExcludeSeen: true,
	})

	if len(result.Recommendations) == 0 {
		t.Fatal("Expected recommendations")
	}
	for _, item := range result.Recommendations {
		if seen[item.Joke.ID] {
			t.Errorf("Seen joke %s leaked into recommendations", item.Joke.ID)
		}
	}
}

func TestCacheInvalidatedOnFeedback(t *testing.T) {
	service, db := newTestService(t, nil)
	userID := uuid.New()

	tag := createTag(t, db, "puns", models.CategoryStyle)
	db.Create(&models.UserTagScore{UserID: userID, TagID: tag.ID, Score: 0.8, InteractionCount: 3})
	joke := createRatedJoke(t, db, "joke", 3.0, tag, 1.0)
	createRatedJoke(t, db, "other", 3.0, tag, 1.0)

	req := Request{UserID: userID, Limit: 5}

	first := service.GetPersonalizedRecommendations(context.Background(), req)
	if first.CacheHit {
		t.Error("Expected first call to miss the cache")
	}

	second := service.GetPersonalizedRecommendations(context.Background(), req)
	if !second.CacheHit {
		t.Error("Expected second call to hit the cache")
	}

	if _, err := service.UpdateUserPreferences(context.Background(), userID, joke.ID, models.InteractionLike, 1.0); err != nil {
		t.Fatalf("Failed to submit feedback: %v", err)
	}

	third := service.GetPersonalizedRecommendations(context.Background(), req)
	if third.CacheHit {
		t.Error("Expected feedback to invalidate the cached result")
	}
}

func TestPersonalizedRespectsLimitAndShuffles(t *testing.T) {
	service, db := newTestService(t, nil)
	userID := uuid.New()

	tag := createTag(t, db, "puns", models.CategoryStyle)
	db.Create(&models.UserTagScore{UserID: userID, TagID: tag.ID, Score: 0.8, InteractionCount: 3})
	for i := 0; i < 20; i++ {
		createRatedJoke(t, db, "joke", 3.0, tag, 1.0)
	}

	result := service.GetPersonalizedRecommendations(context.Background(), Request{UserID: userID, Limit: 10})
	if len(result.Recommendations) != 10 {
		t.Fatalf("Expected 10 recommendations, got %d", len(result.Recommendations))
	}

	// 10% exploration at limit 10 leaves one explore slot
	if result.StrategyBreakdown[StrategyPersonalized] != 9 {
		t.Errorf("Expected 9 personalized items, got %d", result.StrategyBreakdown[StrategyPersonalized])
	}
	if result.StrategyBreakdown[StrategyExplore] != 1 {
		t.Errorf("Expected 1 explore item, got %d", result.StrategyBreakdown[StrategyExplore])
	}
}

func TestInvalidInteractionRejected(t *testing.T) {
	service, db := newTestService(t, nil)
	joke := createRatedJoke(t, db, "joke", 3.0, nil, 0)

	_, err := service.UpdateUserPreferences(context.Background(), uuid.New(), joke.ID, "applaud", 1.0)
	if !errors.Is(err, ErrInvalidInteraction) {
		t.Errorf("Expected ErrInvalidInteraction, got %v", err)
	}

	_, err = service.UpdateUserPreferences(context.Background(), uuid.New(), uuid.New(), models.InteractionLike, 1.0)
	if !errors.Is(err, jokes.ErrNotFound) {
		t.Errorf("Expected joke not found, got %v", err)
	}
}

func TestGenerationCooldown(t *testing.T) {
	generator := &stubGenerator{
		jokes: []aijokes.GeneratedJoke{
			{Text: "generated joke", Confidence: 0.7},
		},
	}
	service, _ := newTestService(t, generator)
	userID := uuid.New()

	// Empty store: fallback must reach for the generator
	first := service.GetFallbackRecommendations(context.Background(), userID, 3, "en")
	if generator.calls != 1 {
		t.Fatalf("Expected 1 generation call, got %d", generator.calls)
	}
	if first.StrategyBreakdown[StrategyAIGenerated] != 1 {
		t.Errorf("Expected 1 AI-generated item, got %d", first.StrategyBreakdown[StrategyAIGenerated])
	}

	// Within the cooldown window the generator must not be called again
	service.GetFallbackRecommendations(context.Background(), userID, 3, "en")
	if generator.calls != 1 {
		t.Errorf("Expected cooldown to block the second call, got %d calls", generator.calls)
	}

	// A different user is not affected by the first user's cooldown
	service.GetFallbackRecommendations(context.Background(), uuid.New(), 3, "en")
	if generator.calls != 2 {
		t.Errorf("Expected a fresh user to generate, got %d calls", generator.calls)
	}
}

func TestGenerationErrorDegradesToTrending(t *testing.T) {
	generator := &stubGenerator{err: errors.New("api down")}
	service, db := newTestService(t, generator)

	joke := createRatedJoke(t, db, "trending", 4.0, nil, 0)
	db.Create(&models.JokeInteraction{UserID: uuid.New(), JokeID: joke.ID, InteractionType: models.InteractionView})

	result := service.GetFallbackRecommendations(context.Background(), uuid.New(), 5, "en")
	if len(result.Recommendations) != 1 {
		t.Fatalf("Expected the trending joke despite generation failure, got %d items", len(result.Recommendations))
	}
	if result.Recommendations[0].Strategy != StrategyFallback {
		t.Errorf("Expected fallback strategy, got %s", result.Recommendations[0].Strategy)
	}
}

func TestGeneratedJokesAreStoredWithTags(t *testing.T) {
	generator := &stubGenerator{
		jokes: []aijokes.GeneratedJoke{
			{
				Text:       "a pun about cats",
				Confidence: 0.7,
				Tags: []aijokes.GeneratedTag{
					{Category: models.CategoryStyle, Value: "puns", Confidence: 0.9},
					{Category: models.CategoryTopic, Value: "animals", Confidence: 0.8},
				},
				Moderation: &aijokes.Verdict{Safe: true, FlaggedCategories: []string{}},
			},
		},
	}
	service, db := newTestService(t, generator)

	result := service.GetFallbackRecommendations(context.Background(), uuid.New(), 1, "en")
	if result.StrategyBreakdown[StrategyAIGenerated] != 1 {
		t.Fatalf("Expected 1 stored AI joke, got breakdown %v", result.StrategyBreakdown)
	}

	stored := result.Recommendations[0].Joke
	if stored.Source != models.SourceAIGenerated {
		t.Errorf("Expected source %s, got %s", models.SourceAIGenerated, stored.Source)
	}
	if stored.Category != "animals" {
		t.Errorf("Expected topic tag to set the category, got %s", stored.Category)
	}

	var linkCount int64
	db.Model(&models.JokeTag{}).Where("joke_id = ?", stored.ID).Count(&linkCount)
	if linkCount != 2 {
		t.Errorf("Expected 2 tag links on the stored joke, got %d", linkCount)
	}

	var record models.ModerationRecord
	if err := db.Where("joke_id = ?", stored.ID).First(&record).Error; err != nil {
		t.Fatalf("Expected a moderation record for the stored joke: %v", err)
	}
	if !record.Safe {
		t.Error("Expected the stored moderation record to be marked safe")
	}
}

func TestHandleColdStartUser(t *testing.T) {
	service, db := newTestService(t, nil)
	userID := uuid.New()

	puns := createTag(t, db, "puns", models.CategoryStyle)
	createTag(t, db, "animals", models.CategoryTopic)
	for i := 0; i < 6; i++ {
		joke := createRatedJoke(t, db, "joke", 3.0, puns, 1.0)
		db.Create(&models.JokeInteraction{UserID: uuid.New(), JokeID: joke.ID, InteractionType: models.InteractionView})
	}

	result, err := service.HandleColdStartUser(context.Background(), userID, map[string][]string{
		models.CategoryStyle: {"puns"},
		models.CategoryTopic: {"animals", "no-such-tag"},
	}, "en", 5)
	if err != nil {
		t.Fatalf("Failed cold start: %v", err)
	}

	if len(result.Recommendations) != 5 {
		t.Fatalf("Expected 5 recommendations, got %d", len(result.Recommendations))
	}
	for _, item := range result.Recommendations {
		if item.Strategy != StrategyExplore {
			t.Errorf("Expected explore strategy, got %s", item.Strategy)
		}
		if item.Score < 0.4 || item.Score > 0.6 {
			t.Errorf("Expected score in [0.4, 0.6], got %f", item.Score)
		}
	}

	// Known seed tags got the initial score; the unknown value was skipped
	var scores []models.UserTagScore
	db.Where("user_id = ?", userID).Find(&scores)
	if len(scores) != 2 {
		t.Fatalf("Expected 2 seeded scores, got %d", len(scores))
	}
	for _, score := range scores {
		if score.Score != 0.5 {
			t.Errorf("Expected seed score 0.5, got %f", score.Score)
		}
	}
}

func TestHandleColdStartUserRepeated(t *testing.T) {
	service, db := newTestService(t, nil)
	userID := uuid.New()

	tag := createTag(t, db, "observational", models.CategoryStyle)
	for i := 0; i < 4; i++ {
		createRatedJoke(t, db, "joke", 3.0, tag, 1.0)
	}
	prefs := map[string][]string{models.CategoryStyle: {"observational"}}

	if _, err := service.HandleColdStartUser(context.Background(), userID, prefs, "en", 3); err != nil {
		t.Fatalf("Failed first cold start: %v", err)
	}

	// A nudged score must survive re-onboarding with the same picks
	db.Model(&models.UserTagScore{}).
		Where("user_id = ? AND tag_id = ?", userID, tag.ID).
		Update("score", 0.72)

	result, err := service.HandleColdStartUser(context.Background(), userID, prefs, "en", 3)
	if err != nil {
		t.Fatalf("Failed repeated cold start: %v", err)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("Expected recommendations from repeated cold start")
	}

	var scores []models.UserTagScore
	db.Where("user_id = ?", userID).Find(&scores)
	if len(scores) != 1 {
		t.Fatalf("Expected a single score row after re-onboarding, got %d", len(scores))
	}
	if scores[0].Score != 0.72 {
		t.Errorf("Expected learned score 0.72 to be preserved, got %f", scores[0].Score)
	}
}

func TestExplanation(t *testing.T) {
	service, db := newTestService(t, nil)
	userID := uuid.New()

	puns := createTag(t, db, "puns", models.CategoryStyle)
	animals := createTag(t, db, "animals", models.CategoryTopic)
	joke := createRatedJoke(t, db, "cat pun", 3.0, puns, 0.9)
	db.Create(&models.JokeTag{JokeID: joke.ID, TagID: animals.ID, Confidence: 0.5})

	db.Create(&models.UserTagScore{UserID: userID, TagID: puns.ID, Score: 0.8})

	explanation, err := service.GetRecommendationExplanation(userID, joke.ID)
	if err != nil {
		t.Fatalf("Failed to explain: %v", err)
	}
	if len(explanation.MatchingTags) != 1 {
		t.Fatalf("Expected 1 matching tag, got %d", len(explanation.MatchingTags))
	}
	match := explanation.MatchingTags[0]
	if match.Name != "puns" || match.UserScore != 0.8 {
		t.Errorf("Unexpected matching tag: %+v", match)
	}
	if explanation.Score <= 0 {
		t.Errorf("Expected positive exploitation score, got %f", explanation.Score)
	}
}

func TestAnalyzeUserPreferences(t *testing.T) {
	service, db := newTestService(t, nil)
	userID := uuid.New()

	puns := createTag(t, db, "puns", models.CategoryStyle)
	dark := createTag(t, db, "dark", models.CategoryStyle)
	db.Create(&models.UserTagScore{UserID: userID, TagID: puns.ID, Score: 0.8, InteractionCount: 4})
	db.Create(&models.UserTagScore{UserID: userID, TagID: dark.ID, Score: -0.3, InteractionCount: 2})

	joke := createRatedJoke(t, db, "joke", 3.0, puns, 1.0)
	db.Create(&models.JokeInteraction{UserID: userID, JokeID: joke.ID, InteractionType: models.InteractionLike})

	analysis, err := service.AnalyzeUserPreferences(userID)
	if err != nil {
		t.Fatalf("Failed to analyze: %v", err)
	}
	if analysis.ScoredTags != 2 {
		t.Errorf("Expected 2 scored tags, got %d", analysis.ScoredTags)
	}
	if analysis.TotalInteractions != 1 {
		t.Errorf("Expected 1 interaction, got %d", analysis.TotalInteractions)
	}

	styleTop := analysis.TopTagsByCategory[models.CategoryStyle]
	if len(styleTop) != 1 || styleTop[0].Name != "puns" {
		t.Errorf("Expected only the positive style tag in top tags, got %v", styleTop)
	}
	if analysis.Performance == nil {
		t.Error("Expected a performance report")
	}
}
