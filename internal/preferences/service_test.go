package preferences

import (
	"math"
	"testing"
	"time"

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
		&models.Joke{},
		&models.Tag{},
		&models.JokeTag{},
		&models.UserTagScore{},
		&models.JokeInteraction{},
		&models.PersonalizationMetric{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func createTestTag(t *testing.T, db *gorm.DB, name, category string) *models.Tag {
	tag := &models.Tag{Name: name, Category: category, Value: name}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("Failed to create test tag: %v", err)
	}
	return tag
}

func TestDeltaForInteraction(t *testing.T) {
	cases := []struct {
		interactionType string
		want            float64
	}{
		{models.InteractionLike, 0.3},
		{models.InteractionSkip, -0.1},
		{models.InteractionView, 0.05},
		{models.InteractionShare, 0},
		{models.InteractionReport, 0},
		{"unknown", 0},
	}
	for _, tc := range cases {
		if got := DeltaForInteraction(tc.interactionType); got != tc.want {
			t.Errorf("DeltaForInteraction(%s) = %f, want %f", tc.interactionType, got, tc.want)
		}
	}
}

func TestUpdateUserTagScoreLearning(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	tag := createTestTag(t, db, "puns", models.CategoryStyle)

	// First signal uses the capped learning rate: 0.3 * 0.3 * 1.0
	score, err := service.UpdateUserTagScore(userID, tag.ID, DeltaLike, 1.0)
	if err != nil {
		t.Fatalf("Failed to update score: %v", err)
	}
	if math.Abs(score.Score-0.09) > 1e-9 {
		t.Errorf("Expected score 0.09 after first like, got %f", score.Score)
	}
	if score.InteractionCount != 1 {
		t.Errorf("Expected interaction count 1, got %d", score.InteractionCount)
	}
}

func TestLearningRateDecays(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	tag := createTestTag(t, db, "puns", models.CategoryStyle)

	var scores []float64
	for i := 0; i < 8; i++ {
		s, err := service.UpdateUserTagScore(userID, tag.ID, DeltaLike, 1.0)
		if err != nil {
			t.Fatalf("Failed to update score: %v", err)
		}
		scores = append(scores, s.Score)
	}

	earlyStep := scores[1] - scores[0]
	lateStep := scores[7] - scores[6]
	if earlyStep <= lateStep {
		t.Errorf("Expected early step %f to exceed late step %f", earlyStep, lateStep)
	}
}

func TestScoreStaysBounded(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	tag := createTestTag(t, db, "puns", models.CategoryStyle)

	for i := 0; i < 100; i++ {
		s, err := service.UpdateUserTagScore(userID, tag.ID, DeltaLike, 1.0)
		if err != nil {
			t.Fatalf("Failed to update score: %v", err)
		}
		if s.Score < -1 || s.Score > 1 {
			t.Fatalf("Score %f out of bounds at iteration %d", s.Score, i)
		}
	}

	for i := 0; i < 200; i++ {
		s, err := service.UpdateUserTagScore(userID, tag.ID, DeltaSkip, 1.0)
		if err != nil {
			t.Fatalf("Failed to update score: %v", err)
		}
		if s.Score < -1 || s.Score > 1 {
			t.Fatalf("Score %f out of bounds at negative iteration %d", s.Score, i)
		}
	}
}

func TestUpdateFromInteraction(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	joke := &models.Joke{Text: "joke", Category: "programming", Language: "en"}
	if err := db.Create(joke).Error; err != nil {
		t.Fatalf("Failed to create joke: %v", err)
	}

	strong := createTestTag(t, db, "puns", models.CategoryStyle)
	weak := createTestTag(t, db, "nerdy", models.CategoryTone)
	db.Create(&models.JokeTag{JokeID: joke.ID, TagID: strong.ID, Confidence: 1.0})
	db.Create(&models.JokeTag{JokeID: joke.ID, TagID: weak.ID, Confidence: 0.5})

	if err := service.UpdateFromInteraction(userID, joke.ID, models.InteractionLike); err != nil {
		t.Fatalf("Failed to update from interaction: %v", err)
	}

	scores, err := service.GetUserTagScores(userID)
	if err != nil {
		t.Fatalf("Failed to get scores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("Expected 2 scores, got %d", len(scores))
	}

	// Higher-confidence tag moved more
	if scores[0].TagID != strong.ID {
		t.Errorf("Expected strong tag ranked first")
	}
	if math.Abs(scores[0].Score-0.09) > 1e-9 {
		t.Errorf("Expected strong tag score 0.09, got %f", scores[0].Score)
	}
	if math.Abs(scores[1].Score-0.045) > 1e-9 {
		t.Errorf("Expected weak tag score 0.045, got %f", scores[1].Score)
	}

	// Share carries no signal
	if err := service.UpdateFromInteraction(userID, joke.ID, models.InteractionShare); err != nil {
		t.Fatalf("Failed on share interaction: %v", err)
	}
	scores, _ = service.GetUserTagScores(userID)
	if scores[0].InteractionCount != 1 {
		t.Errorf("Expected share to leave interaction count at 1, got %d", scores[0].InteractionCount)
	}
}

func TestGetUserTopTags(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	liked := createTestTag(t, db, "puns", models.CategoryStyle)
	disliked := createTestTag(t, db, "dark", models.CategoryStyle)
	topic := createTestTag(t, db, "animals", models.CategoryTopic)

	db.Create(&models.UserTagScore{UserID: userID, TagID: liked.ID, Score: 0.8, InteractionCount: 5})
	db.Create(&models.UserTagScore{UserID: userID, TagID: disliked.ID, Score: -0.4, InteractionCount: 3})
	db.Create(&models.UserTagScore{UserID: userID, TagID: topic.ID, Score: 0.3, InteractionCount: 2})

	top, err := service.GetUserTopTags(userID, "", 10)
	if err != nil {
		t.Fatalf("Failed to get top tags: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 positive tags, got %d", len(top))
	}
	if top[0].TagID != liked.ID {
		t.Errorf("Expected strongest tag first")
	}

	styleOnly, err := service.GetUserTopTags(userID, models.CategoryStyle, 10)
	if err != nil {
		t.Fatalf("Failed to get style tags: %v", err)
	}
	if len(styleOnly) != 1 || styleOnly[0].TagID != liked.ID {
		t.Errorf("Expected only the liked style tag, got %d results", len(styleOnly))
	}
}

func TestSeedColdStartTags(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	first := createTestTag(t, db, "puns", models.CategoryStyle)
	second := createTestTag(t, db, "animals", models.CategoryTopic)

	if err := service.SeedColdStartTags(userID, []uuid.UUID{first.ID, second.ID}); err != nil {
		t.Fatalf("Failed to seed tags: %v", err)
	}

	scores, err := service.GetUserTagScores(userID)
	if err != nil {
		t.Fatalf("Failed to get scores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("Expected 2 seeded scores, got %d", len(scores))
	}
	for _, s := range scores {
		if s.Score != ColdStartSeedScore {
			t.Errorf("Expected seed score %f, got %f", ColdStartSeedScore, s.Score)
		}
	}

	// Re-seeding after learning must not duplicate rows or reset scores
	if _, err := service.UpdateUserTagScore(userID, first.ID, DeltaLike, 1.0); err != nil {
		t.Fatalf("Failed to update score: %v", err)
	}
	var learned models.UserTagScore
	db.Where("user_id = ? AND tag_id = ?", userID, first.ID).First(&learned)

	if err := service.SeedColdStartTags(userID, []uuid.UUID{first.ID, second.ID}); err != nil {
		t.Fatalf("Failed to re-seed tags: %v", err)
	}

	scores, err = service.GetUserTagScores(userID)
	if err != nil {
		t.Fatalf("Failed to get scores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("Expected 2 scores after re-seeding, got %d", len(scores))
	}
	var after models.UserTagScore
	db.Where("user_id = ? AND tag_id = ?", userID, first.ID).First(&after)
	if after.Score != learned.Score {
		t.Errorf("Expected learned score %f to survive re-seeding, got %f", learned.Score, after.Score)
	}
	if after.InteractionCount != learned.InteractionCount {
		t.Errorf("Expected interaction count %d to survive re-seeding, got %d", learned.InteractionCount, after.InteractionCount)
	}
}

func TestGetRecommendationPerformance(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	for i := 0; i < 10; i++ {
		joke := &models.Joke{Text: "joke", Language: "en"}
		db.Create(joke)
		db.Create(&models.JokeInteraction{UserID: userID, JokeID: joke.ID, InteractionType: models.InteractionView})
		if i < 4 {
			db.Create(&models.JokeInteraction{UserID: userID, JokeID: joke.ID, InteractionType: models.InteractionLike})
		}
		if i >= 8 {
			db.Create(&models.JokeInteraction{UserID: userID, JokeID: joke.ID, InteractionType: models.InteractionSkip})
		}
	}

	report, err := service.GetRecommendationPerformance(userID, 7)
	if err != nil {
		t.Fatalf("Failed to get performance: %v", err)
	}
	if report.ViewCount != 10 || report.LikeCount != 4 || report.SkipCount != 2 {
		t.Errorf("Unexpected counts: views=%d likes=%d skips=%d", report.ViewCount, report.LikeCount, report.SkipCount)
	}
	if math.Abs(report.ClickThroughRate-0.4) > 1e-9 {
		t.Errorf("Expected CTR 0.4, got %f", report.ClickThroughRate)
	}
	if math.Abs(report.SkipRate-0.2) > 1e-9 {
		t.Errorf("Expected skip rate 0.2, got %f", report.SkipRate)
	}
	if report.ExplorationRate > 0.5 {
		t.Errorf("Expected exploration capped at 0.5, got %f", report.ExplorationRate)
	}
}

func TestPerformanceWithNoViews(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	report, err := service.GetRecommendationPerformance(uuid.New(), 7)
	if err != nil {
		t.Fatalf("Failed to get performance for empty user: %v", err)
	}
	if report.ClickThroughRate != 0 || report.SkipRate != 0 {
		t.Errorf("Expected zero rates for user with no history")
	}
}

func TestPurgeOldMetrics(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db)

	userID := uuid.New()
	old := models.PersonalizationMetric{
		UserID:     userID,
		MetricType: models.MetricSkipRate,
		Value:      0.1,
	}
	db.Create(&old)
	db.Model(&old).Update("created_at", time.Now().AddDate(0, 0, -120))

	fresh := models.PersonalizationMetric{
		UserID:     userID,
		MetricType: models.MetricSkipRate,
		Value:      0.2,
	}
	db.Create(&fresh)

	purged, err := service.PurgeOldMetrics(90)
	if err != nil {
		t.Fatalf("Failed to purge metrics: %v", err)
	}
	if purged != 1 {
		t.Errorf("Expected 1 purged metric, got %d", purged)
	}

	var count int64
	db.Model(&models.PersonalizationMetric{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 remaining metric, got %d", count)
	}
}
