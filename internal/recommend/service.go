// Package recommend implements the personalized joke recommendation
// engine: content-based scoring over learned tag preferences, blended
// with collaborative filtering, an epsilon-greedy exploration split and
// a trending/AI-generation fallback chain.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"giggle-glide/internal/aijokes"
	"giggle-glide/internal/cache"
	"giggle-glide/internal/jokes"
	"giggle-glide/internal/models"
	"giggle-glide/internal/preferences"
	"giggle-glide/internal/tags"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tuning parameters for the recommendation pipeline
const (
	// Fraction of result slots reserved for exploration
	DefaultExplorationRate = 0.1

	// Candidates must carry at least one tag at this confidence
	MinTagConfidence = 0.5

	// Candidates must have at least this derived rating
	MinCandidateRating = 2.0

	// Hard cap on content candidates regardless of limit
	MaxCandidates = 50

	// How many jokes a single candidate query may touch
	CandidateScanLimit = 200

	// Cap on collaborative candidates
	CollabCandidateLimit = 20

	// Uniform noise added to exploration scores
	ExplorationNoise = 0.2

	// Per-user spacing between AI generation calls
	GenerationCooldown = 5 * time.Minute

	TrendingWindowHours  = 24
	ColdStartWindowHours = 7 * 24

	DefaultLimit          = 10
	DefaultColdStartLimit = 10
)

// Strategies attached to returned recommendations
const (
	StrategyPersonalized  = "personalized"
	StrategyCollaborative = "collaborative"
	StrategyExplore       = "explore"
	StrategyFallback      = "fallback"
	StrategyAIGenerated   = "ai_generated"
)

// ErrInvalidInteraction is returned for unknown interaction types
var ErrInvalidInteraction = errors.New("invalid interaction type")

// Recommendation is one ranked joke with the strategy that produced it
type Recommendation struct {
	Joke     models.Joke `json:"joke"`
	Score    float64     `json:"score"`
	Strategy string      `json:"strategy"`
}

// Performance summarizes how the request was served and how well
// personalization has been working recently
type Performance struct {
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	ClickThroughRate float64 `json:"click_through_rate"`
	DiversityScore   float64 `json:"diversity_score"`
}

// Result is a full recommendation response
type Result struct {
	Recommendations   []Recommendation `json:"recommendations"`
	CacheHit          bool             `json:"cache_hit"`
	StrategyBreakdown map[string]int   `json:"strategy_breakdown"`
	Performance       *Performance     `json:"performance,omitempty"`
}

// JokeGenerator produces new jokes when the catalog runs dry. A nil
// generator disables the AI fallback tier.
type JokeGenerator interface {
	GeneratePersonalizedJokes(ctx context.Context, userID uuid.UUID, tagsByCategory map[string][]string, language string, count int) ([]aijokes.GeneratedJoke, error)
	GenerateFallbackJokes(ctx context.Context, language string, count int) ([]aijokes.GeneratedJoke, error)
}

// Request carries the parameters of one recommendation call
type Request struct {
	UserID           uuid.UUID
	Limit            int
	Language         string
	ExcludeSeen      bool
	UseCollaborative bool
}

func (r Request) withDefaults() Request {
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if r.Language == "" {
		r.Language = "en"
	}
	return r
}

// Service orchestrates scoring, ranking and fallbacks
type Service struct {
	db        *gorm.DB
	tags      *tags.Service
	prefs     *preferences.Service
	jokes     *jokes.Service
	cache     *cache.Cache
	generator JokeGenerator

	explorationRate float64

	rngMu sync.Mutex
	rng   *rand.Rand

	cooldownMu     sync.Mutex
	lastGeneration map[uuid.UUID]time.Time
}

// NewService wires the recommendation engine. generator may be nil when
// AI generation is not configured; rng may be nil to use a time-seeded
// source (tests pass a fixed seed for determinism).
func NewService(db *gorm.DB, tagSvc *tags.Service, prefSvc *preferences.Service, jokeSvc *jokes.Service, cacheSvc *cache.Cache, generator JokeGenerator, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		db:              db,
		tags:            tagSvc,
		prefs:           prefSvc,
		jokes:           jokeSvc,
		cache:           cacheSvc,
		generator:       generator,
		explorationRate: DefaultExplorationRate,
		rng:             rng,
		lastGeneration:  make(map[uuid.UUID]time.Time),
	}
}

// GetPersonalizedRecommendations serves a ranked joke list for a user.
// Storage failures inside the pipeline degrade to the fallback path; the
// method never returns an error.
func (s *Service) GetPersonalizedRecommendations(ctx context.Context, req Request) *Result {
	req = req.withDefaults()
	start := time.Now()

	contextHash := cache.ContextHash(map[string]interface{}{
		"limit":         req.Limit,
		"language":      req.Language,
		"exclude_seen":  req.ExcludeSeen,
		"collaborative": req.UseCollaborative,
	})

	var cached Result
	if s.cache.GetRecommendations(ctx, req.UserID, contextHash, &cached) {
		cached.CacheHit = true
		return &cached
	}

	result, err := s.personalized(req)
	if err != nil {
		log.Printf("Personalized recommendations unavailable for user %s (%v), falling back", req.UserID, err)
		return s.GetFallbackRecommendations(ctx, req.UserID, req.Limit, req.Language)
	}

	result.Performance = s.performance(req.UserID, start)
	s.cache.SetRecommendations(ctx, req.UserID, contextHash, result)
	return result
}

// personalized runs the scoring pipeline. Any error from it sends the
// caller down the fallback path.
func (s *Service) personalized(req Request) (*Result, error) {
	prefs, err := s.preferenceVector(req.UserID)
	if err != nil {
		return nil, err
	}
	if len(prefs) == 0 {
		return nil, fmt.Errorf("no preference history")
	}

	candidates, err := s.contentCandidates(req, prefs)
	if err != nil {
		return nil, err
	}

	if req.UseCollaborative {
		collab, err := s.collaborativeCandidates(req)
		if err != nil {
			return nil, err
		}
		candidates = mergeCandidates(candidates, collab)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no eligible candidates")
	}

	picked := s.epsilonGreedy(candidates, req.Limit)
	return &Result{
		Recommendations:   picked,
		StrategyBreakdown: breakdown(picked),
	}, nil
}

// contentCandidates loads and scores unseen, language-matched jokes that
// clear the rating and tag-confidence floors
func (s *Service) contentCandidates(req Request, prefs map[uuid.UUID]float64) ([]Recommendation, error) {
	query := s.db.Preload("Tags.Tag").
		Joins("JOIN joke_tags ON joke_tags.joke_id = jokes.id AND joke_tags.confidence >= ?", MinTagConfidence).
		Where("jokes.language = ? AND jokes.rating >= ?", req.Language, MinCandidateRating).
		Group("jokes.id").
		Limit(CandidateScanLimit)

	if req.ExcludeSeen {
		seen, err := s.jokes.SeenJokeIDs(req.UserID)
		if err != nil {
			return nil, err
		}
		if len(seen) > 0 {
			query = query.Where("jokes.id NOT IN ?", seen)
		}
	}

	var pool []models.Joke
	if err := query.Find(&pool).Error; err != nil {
		return nil, fmt.Errorf("failed to load content candidates: %w", err)
	}

	candidates := make([]Recommendation, len(pool))
	for i, joke := range pool {
		candidates[i] = Recommendation{
			Joke:     joke,
			Score:    ExploitationScore(prefs, joke.Tags),
			Strategy: StrategyPersonalized,
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	maxPool := req.Limit * 2
	if maxPool > MaxCandidates {
		maxPool = MaxCandidates
	}
	if len(candidates) > maxPool {
		candidates = candidates[:maxPool]
	}
	return candidates, nil
}

// collaborativeCandidates scores jokes that the user's nearest preference
// neighbors engaged with, under the same eligibility constraints
func (s *Service) collaborativeCandidates(req Request) ([]Recommendation, error) {
	neighbors, err := s.FindSimilarUsers(req.UserID)
	if err != nil {
		return nil, err
	}
	scores, err := s.CollaborativeScores(neighbors)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return []Recommendation{}, nil
	}

	jokeIDs := make([]uuid.UUID, 0, len(scores))
	for jokeID := range scores {
		jokeIDs = append(jokeIDs, jokeID)
	}

	query := s.db.Preload("Tags.Tag").
		Joins("JOIN joke_tags ON joke_tags.joke_id = jokes.id AND joke_tags.confidence >= ?", MinTagConfidence).
		Where("jokes.id IN ? AND jokes.language = ? AND jokes.rating >= ?", jokeIDs, req.Language, MinCandidateRating).
		Group("jokes.id")

	if req.ExcludeSeen {
		seen, err := s.jokes.SeenJokeIDs(req.UserID)
		if err != nil {
			return nil, err
		}
		if len(seen) > 0 {
			query = query.Where("jokes.id NOT IN ?", seen)
		}
	}

	var pool []models.Joke
	if err := query.Find(&pool).Error; err != nil {
		return nil, fmt.Errorf("failed to load collaborative candidates: %w", err)
	}

	candidates := make([]Recommendation, len(pool))
	for i, joke := range pool {
		candidates[i] = Recommendation{
			Joke:     joke,
			Score:    scores[joke.ID],
			Strategy: StrategyCollaborative,
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > CollabCandidateLimit {
		candidates = candidates[:CollabCandidateLimit]
	}
	return candidates, nil
}

// mergeCandidates combines two candidate lists, keeping the first
// occurrence of each joke
func mergeCandidates(lists ...[]Recommendation) []Recommendation {
	seen := make(map[uuid.UUID]bool)
	var merged []Recommendation
	for _, list := range lists {
		for _, item := range list {
			if seen[item.Joke.ID] {
				continue
			}
			seen[item.Joke.ID] = true
			merged = append(merged, item)
		}
	}
	return merged
}

// epsilonGreedy fills limit slots: most from the diversified top of the
// candidate list, the rest drawn at random from the remaining pool with
// noise added so exploration picks are not purely score-driven. The final
// order is shuffled.
func (s *Service) epsilonGreedy(candidates []Recommendation, limit int) []Recommendation {
	exploitCount := int(float64(limit) * (1 - s.explorationRate))

	diversified := Diversify(candidates, limit)
	if exploitCount > len(diversified) {
		exploitCount = len(diversified)
	}
	exploit := make([]Recommendation, exploitCount)
	copy(exploit, diversified[:exploitCount])

	taken := make(map[uuid.UUID]bool, exploitCount)
	for _, item := range exploit {
		taken[item.Joke.ID] = true
	}
	var rest []Recommendation
	for _, item := range candidates {
		if !taken[item.Joke.ID] {
			rest = append(rest, item)
		}
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	s.rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	result := exploit
	for _, item := range rest {
		if len(result) >= limit {
			break
		}
		item.Score += s.rng.Float64()*2*ExplorationNoise - ExplorationNoise
		item.Strategy = StrategyExplore
		result = append(result, item)
	}

	s.rng.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})
	return result
}

// GetFallbackRecommendations serves trending jokes, topped up with AI
// generation when supply runs short and the user is outside the
// generation cooldown. Never returns an error: a degraded list always
// beats a failure.
func (s *Service) GetFallbackRecommendations(ctx context.Context, userID uuid.UUID, limit int, language string) *Result {
	start := time.Now()
	if limit <= 0 {
		limit = DefaultLimit
	}
	if language == "" {
		language = "en"
	}

	var items []Recommendation
	trending, err := s.jokes.GetTrending(language, TrendingWindowHours, limit)
	if err != nil {
		log.Printf("Failed to load trending jokes for fallback: %v", err)
	}
	for _, joke := range trending {
		items = append(items, Recommendation{
			Joke:     joke,
			Score:    joke.Rating / 5,
			Strategy: StrategyFallback,
		})
	}

	missing := limit - len(items)
	if missing > 0 && s.generator != nil && s.tryAcquireGeneration(userID) {
		items = append(items, s.generateJokes(ctx, userID, language, missing)...)
	}

	return &Result{
		Recommendations:   items,
		StrategyBreakdown: breakdown(items),
		Performance:       s.performance(userID, start),
	}
}

// tryAcquireGeneration enforces the per-user AI generation cooldown
func (s *Service) tryAcquireGeneration(userID uuid.UUID) bool {
	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()

	if last, ok := s.lastGeneration[userID]; ok && time.Since(last) < GenerationCooldown {
		return false
	}
	s.lastGeneration[userID] = time.Now()
	return true
}

// generateJokes asks the generator for new material and stores whatever
// passes moderation. Generation errors degrade to an empty contribution.
func (s *Service) generateJokes(ctx context.Context, userID uuid.UUID, language string, count int) []Recommendation {
	tagsByCategory := make(map[string][]string)
	if userID != uuid.Nil {
		top, err := s.prefs.GetUserTopTags(userID, "", 10)
		if err != nil {
			log.Printf("Failed to load top tags for generation: %v", err)
		}
		for _, score := range top {
			tagsByCategory[score.Tag.Category] = append(tagsByCategory[score.Tag.Category], score.Tag.Value)
		}
	}

	var generated []aijokes.GeneratedJoke
	var err error
	if len(tagsByCategory) > 0 {
		generated, err = s.generator.GeneratePersonalizedJokes(ctx, userID, tagsByCategory, language, count)
	} else {
		generated, err = s.generator.GenerateFallbackJokes(ctx, language, count)
	}
	if err != nil {
		log.Printf("AI generation failed: %v", err)
		return nil
	}

	var items []Recommendation
	for _, genJoke := range generated {
		joke, err := s.storeGeneratedJoke(genJoke, language)
		if err != nil {
			log.Printf("Failed to store generated joke: %v", err)
			continue
		}
		items = append(items, Recommendation{
			Joke:     *joke,
			Score:    genJoke.Confidence,
			Strategy: StrategyAIGenerated,
		})
	}
	return items
}

// storeGeneratedJoke persists a generated joke, its tags and its
// moderation verdict
func (s *Service) storeGeneratedJoke(genJoke aijokes.GeneratedJoke, language string) (*models.Joke, error) {
	category := "general"
	for _, genTag := range genJoke.Tags {
		if genTag.Category == models.CategoryTopic {
			category = genTag.Value
			break
		}
	}

	joke := &models.Joke{
		Text:     genJoke.Text,
		Category: category,
		Language: language,
		Source:   models.SourceAIGenerated,
	}
	if err := s.jokes.Create(joke); err != nil {
		return nil, err
	}

	for _, genTag := range genJoke.Tags {
		tag, err := s.tags.FindByValue(genTag.Category, genTag.Value)
		if errors.Is(err, tags.ErrNotFound) {
			tag, err = s.tags.CreateTag(genTag.Value, genTag.Category, genTag.Value, "")
		}
		if err != nil {
			log.Printf("Skipping unknown generated tag %s/%s: %v", genTag.Category, genTag.Value, err)
			continue
		}
		if _, err := s.tags.AddJokeTag(joke.ID, tag.ID, genTag.Confidence); err != nil {
			log.Printf("Failed to tag generated joke: %v", err)
		}
	}

	if genJoke.Moderation != nil {
		record := models.ModerationRecord{
			JokeID:            joke.ID,
			Safe:              genJoke.Moderation.Safe,
			FlaggedCategories: genJoke.Moderation.FlaggedCategories,
			ViolenceScore:     genJoke.Moderation.ViolenceScore,
			HateScore:         genJoke.Moderation.HateScore,
			SelfHarmScore:     genJoke.Moderation.SelfHarmScore,
			SexualScore:       genJoke.Moderation.SexualScore,
			ModerationModel:   genJoke.Moderation.Model,
		}
		if err := s.db.Create(&record).Error; err != nil {
			log.Printf("Failed to store moderation record: %v", err)
		}
	}

	return joke, nil
}

// HandleColdStartUser serves a first recommendation list for a user with
// no history, optionally seeding preferences from explicitly chosen tags
func (s *Service) HandleColdStartUser(ctx context.Context, userID uuid.UUID, initialPreferences map[string][]string, language string, limit int) (*Result, error) {
	start := time.Now()
	if limit <= 0 {
		limit = DefaultColdStartLimit
	}
	if language == "" {
		language = "en"
	}

	if len(initialPreferences) > 0 {
		var tagIDs []uuid.UUID
		for category, values := range initialPreferences {
			for _, value := range values {
				tag, err := s.tags.FindByValue(category, value)
				if err != nil {
					log.Printf("Skipping unknown cold-start tag %s/%s", category, value)
					continue
				}
				tagIDs = append(tagIDs, tag.ID)
			}
		}
		if err := s.prefs.SeedColdStartTags(userID, tagIDs); err != nil {
			log.Printf("Cold start seeding failed for user %s, serving fallback: %v", userID, err)
			return s.GetFallbackRecommendations(ctx, userID, limit, language), nil
		}
	}

	trending, err := s.jokes.GetTrending(language, ColdStartWindowHours, limit*2)
	if err != nil {
		log.Printf("Cold start trending lookup failed for user %s, serving fallback: %v", userID, err)
		return s.GetFallbackRecommendations(ctx, userID, limit, language), nil
	}
	pool, err := s.attachTags(trending)
	if err != nil {
		log.Printf("Cold start tag load failed for user %s, serving fallback: %v", userID, err)
		return s.GetFallbackRecommendations(ctx, userID, limit, language), nil
	}

	items := make([]Recommendation, len(pool))
	for i, joke := range pool {
		items[i] = Recommendation{
			Joke:     joke,
			Score:    0.5 + s.noise(0.1),
			Strategy: StrategyExplore,
		}
	}
	items = Diversify(items, limit)

	return &Result{
		Recommendations:   items,
		StrategyBreakdown: breakdown(items),
		Performance:       s.performance(userID, start),
	}, nil
}

// attachTags reloads jokes with their tag relations, preserving order
func (s *Service) attachTags(jokeList []models.Joke) ([]models.Joke, error) {
	if len(jokeList) == 0 {
		return jokeList, nil
	}

	ids := make([]uuid.UUID, len(jokeList))
	for i, joke := range jokeList {
		ids[i] = joke.ID
	}

	var loaded []models.Joke
	if err := s.db.Preload("Tags.Tag").Where("id IN ?", ids).Find(&loaded).Error; err != nil {
		return nil, fmt.Errorf("failed to load joke tags: %w", err)
	}

	byID := make(map[uuid.UUID]models.Joke, len(loaded))
	for _, joke := range loaded {
		byID[joke.ID] = joke
	}

	result := make([]models.Joke, 0, len(jokeList))
	for _, joke := range jokeList {
		if withTags, ok := byID[joke.ID]; ok {
			result = append(result, withTags)
		}
	}
	return result, nil
}

// UpdateUserPreferences applies one piece of feedback: the joke's tags
// move the user's scores, the interaction is recorded, and the user's
// cache entries are invalidated. Returns the number of tag scores
// updated.
func (s *Service) UpdateUserPreferences(ctx context.Context, userID, jokeID uuid.UUID, interactionType string, feedbackStrength float64) (int, error) {
	if !validInteraction(interactionType) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidInteraction, interactionType)
	}
	if feedbackStrength <= 0 {
		feedbackStrength = 1.0
	}

	if _, err := s.jokes.Get(jokeID); err != nil {
		return 0, err
	}

	links, err := s.tags.GetJokeTags(jokeID)
	if err != nil {
		return 0, err
	}

	updated := 0
	delta := preferences.DeltaForInteraction(interactionType)
	if delta != 0 {
		for _, link := range links {
			if _, err := s.prefs.UpdateUserTagScore(userID, link.Tag.ID, delta, feedbackStrength*link.Confidence); err != nil {
				return updated, err
			}
			updated++
		}
	}

	if _, err := s.jokes.MarkSeen(userID, jokeID, interactionType); err != nil {
		return updated, err
	}

	s.cache.InvalidateUser(ctx, userID)
	return updated, nil
}

func validInteraction(interactionType string) bool {
	switch interactionType {
	case models.InteractionView, models.InteractionLike, models.InteractionSkip,
		models.InteractionShare, models.InteractionReport:
		return true
	}
	return false
}

// TagAffinity is one entry in a preference analysis
type TagAffinity struct {
	Name             string  `json:"name"`
	Value            string  `json:"value"`
	Score            float64 `json:"score"`
	InteractionCount int     `json:"interaction_count"`
}

// PreferenceAnalysis describes what the engine has learned about a user
type PreferenceAnalysis struct {
	UserID            uuid.UUID                      `json:"user_id"`
	TotalInteractions int                            `json:"total_interactions"`
	ScoredTags        int                            `json:"scored_tags"`
	TopTagsByCategory map[string][]TagAffinity       `json:"top_tags_by_category"`
	Performance       *preferences.PerformanceReport `json:"performance"`
}

// AnalyzeUserPreferences summarizes a user's learned profile
func (s *Service) AnalyzeUserPreferences(userID uuid.UUID) (*PreferenceAnalysis, error) {
	scores, err := s.prefs.GetUserTagScores(userID)
	if err != nil {
		return nil, err
	}

	analysis := &PreferenceAnalysis{
		UserID:            userID,
		ScoredTags:        len(scores),
		TopTagsByCategory: make(map[string][]TagAffinity),
	}

	for _, category := range models.TagCategories {
		top, err := s.prefs.GetUserTopTags(userID, category, 5)
		if err != nil {
			return nil, err
		}
		affinities := make([]TagAffinity, len(top))
		for i, score := range top {
			affinities[i] = TagAffinity{
				Name:             score.Tag.Name,
				Value:            score.Tag.Value,
				Score:            score.Score,
				InteractionCount: score.InteractionCount,
			}
		}
		analysis.TopTagsByCategory[category] = affinities
	}

	var interactionCount int64
	err = s.db.Model(&models.JokeInteraction{}).Where("user_id = ?", userID).Count(&interactionCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}
	analysis.TotalInteractions = int(interactionCount)

	performance, err := s.prefs.GetRecommendationPerformance(userID, 7)
	if err != nil {
		return nil, err
	}
	analysis.Performance = performance

	return analysis, nil
}

// TagContribution explains how one tag moved a joke's score
type TagContribution struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	UserScore    float64 `json:"user_score"`
	Contribution float64 `json:"contribution"`
}

// Explanation describes why a joke scored the way it did for a user
type Explanation struct {
	JokeID       uuid.UUID         `json:"joke_id"`
	Score        float64           `json:"score"`
	MatchingTags []TagContribution `json:"matching_tags"`
}

// GetRecommendationExplanation breaks a joke's exploitation score down
// into per-tag contributions
func (s *Service) GetRecommendationExplanation(userID, jokeID uuid.UUID) (*Explanation, error) {
	joke, err := s.jokes.Get(jokeID)
	if err != nil {
		return nil, err
	}

	var links []models.JokeTag
	err = s.db.Preload("Tag").Where("joke_id = ?", joke.ID).Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load joke tags: %w", err)
	}

	prefs, err := s.preferenceVector(userID)
	if err != nil {
		return nil, err
	}

	explanation := &Explanation{
		JokeID: jokeID,
		Score:  ExploitationScore(prefs, links),
	}
	for _, link := range links {
		userScore, ok := prefs[link.TagID]
		if !ok {
			continue
		}
		explanation.MatchingTags = append(explanation.MatchingTags, TagContribution{
			Name:         link.Tag.Name,
			Category:     link.Tag.Category,
			Confidence:   link.Confidence,
			UserScore:    userScore,
			Contribution: userScore * link.Confidence,
		})
	}
	sort.SliceStable(explanation.MatchingTags, func(i, j int) bool {
		return explanation.MatchingTags[i].Contribution > explanation.MatchingTags[j].Contribution
	})

	return explanation, nil
}

// performance builds the metrics block for a result; failures degrade to
// timing only
func (s *Service) performance(userID uuid.UUID, start time.Time) *Performance {
	perf := &Performance{
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	}
	report, err := s.prefs.GetRecommendationPerformance(userID, 7)
	if err != nil {
		log.Printf("Failed to load performance metrics: %v", err)
		return perf
	}
	perf.ClickThroughRate = report.ClickThroughRate
	perf.DiversityScore = report.DiversityScore
	return perf
}

// noise returns a uniform random value in [-bound, +bound]
func (s *Service) noise(bound float64) float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()*2*bound - bound
}

// breakdown counts recommendations per strategy
func breakdown(items []Recommendation) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Strategy]++
	}
	return counts
}
