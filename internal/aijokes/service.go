// Package aijokes generates jokes through an OpenAI-compatible API and
// moderates them before they reach storage
package aijokes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"giggle-glide/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNoAPIKey is returned by NewServiceFromEnv when generation is not
// configured
var ErrNoAPIKey = errors.New("no API key configured")

// ErrBudgetExceeded is returned when the daily or monthly spend budget
// has been used up
var ErrBudgetExceeded = errors.New("generation budget exceeded")

const (
	defaultBaseURL         = "https://api.openai.com/v1"
	defaultModel           = "gpt-4o-mini"
	defaultModerationModel = "omni-moderation-latest"
)

// GeneratedTag is a tag the model assigned to a joke it wrote
type GeneratedTag struct {
	Category   string  `json:"category"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// GeneratedJoke is one model-written joke that passed moderation
type GeneratedJoke struct {
	Text          string         `json:"text"`
	Tags          []GeneratedTag `json:"tags"`
	Confidence    float64        `json:"confidence"`
	EstimatedCost float64        `json:"estimated_cost"`
	Moderation    *Verdict       `json:"moderation,omitempty"`
}

// Verdict is a moderation result for one piece of text
type Verdict struct {
	Safe              bool     `json:"safe"`
	FlaggedCategories []string `json:"flagged_categories"`
	ViolenceScore     float64  `json:"violence_score"`
	HateScore         float64  `json:"hate_score"`
	SelfHarmScore     float64  `json:"self_harm_score"`
	SexualScore       float64  `json:"sexual_score"`
	Model             string   `json:"model"`
}

// Config holds generation settings
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	ModerationModel string

	// Spend limits in USD; zero disables a limit
	DailyBudget   float64
	MonthlyBudget float64
}

// Service calls the generation and moderation endpoints and records usage
type Service struct {
	config     Config
	httpClient *http.Client
	db         *gorm.DB
	costs      *CostTracker
}

// NewService creates a generation service. db may be nil to skip usage
// persistence.
func NewService(config Config, db *gorm.DB) *Service {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.ModerationModel == "" {
		config.ModerationModel = defaultModerationModel
	}

	return &Service{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		db:    db,
		costs: NewCostTrackerWithBudgets(config.DailyBudget, config.MonthlyBudget),
	}
}

// NewServiceFromEnv builds a service from OPENAI_API_KEY and related
// environment variables
func NewServiceFromEnv(db *gorm.DB) (*Service, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	config := Config{
		APIKey:          apiKey,
		BaseURL:         os.Getenv("OPENAI_BASE_URL"),
		Model:           os.Getenv("OPENAI_MODEL"),
		ModerationModel: os.Getenv("OPENAI_MODERATION_MODEL"),
		DailyBudget:     envFloat("OPENAI_DAILY_BUDGET"),
		MonthlyBudget:   envFloat("OPENAI_MONTHLY_BUDGET"),
	}
	return NewService(config, db), nil
}

func envFloat(key string) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return 0
	}
	return v
}

// Costs exposes the accumulated spend tracker
func (s *Service) Costs() *CostTracker {
	return s.costs
}

// GeneratePersonalizedJokes writes jokes aimed at a user's tag
// preferences. Only jokes that pass moderation are returned.
func (s *Service) GeneratePersonalizedJokes(ctx context.Context, userID uuid.UUID, tagsByCategory map[string][]string, language string, count int) ([]GeneratedJoke, error) {
	prompt := buildPersonalizedPrompt(tagsByCategory, language, count)
	return s.generate(ctx, userID, prompt)
}

// GenerateFallbackJokes writes generic safe jokes with no personalization
func (s *Service) GenerateFallbackJokes(ctx context.Context, language string, count int) ([]GeneratedJoke, error) {
	prompt := buildFallbackPrompt(language, count)
	return s.generate(ctx, uuid.Nil, prompt)
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// jokePayload is the JSON shape the system prompt asks the model for
type jokePayload struct {
	Jokes []struct {
		Text       string         `json:"text"`
		Tags       []GeneratedTag `json:"tags"`
		Confidence float64        `json:"confidence"`
	} `json:"jokes"`
}

func (s *Service) generate(ctx context.Context, userID uuid.UUID, prompt string) ([]GeneratedJoke, error) {
	if !s.costs.WithinBudget() {
		return nil, ErrBudgetExceeded
	}

	reqBody := chatRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
		Temperature:    0.9,
	}

	var response chatResponse
	if err := s.post(ctx, "/chat/completions", reqBody, &response); err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("generation returned no choices")
	}

	cost := s.costs.Record(s.config.Model, response.Usage.PromptTokens, response.Usage.CompletionTokens)

	var payload jokePayload
	if err := json.Unmarshal([]byte(response.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse generated jokes: %w", err)
	}

	generated := len(payload.Jokes)
	perJokeCost := 0.0
	if generated > 0 {
		perJokeCost = cost / float64(generated)
	}

	flagged := 0
	result := make([]GeneratedJoke, 0, generated)
	for _, raw := range payload.Jokes {
		if raw.Text == "" {
			continue
		}

		verdict, err := s.ModerateContent(ctx, raw.Text)
		if err != nil {
			return nil, fmt.Errorf("moderation failed: %w", err)
		}
		if !verdict.Safe {
			flagged++
			log.Printf("Dropping flagged generated joke (categories: %v)", verdict.FlaggedCategories)
			continue
		}

		result = append(result, GeneratedJoke{
			Text:          raw.Text,
			Tags:          raw.Tags,
			Confidence:    raw.Confidence,
			EstimatedCost: perJokeCost,
			Moderation:    verdict,
		})
	}

	s.recordUsage(userID, response.Usage.PromptTokens, response.Usage.CompletionTokens,
		cost, generated, len(result), flagged)

	return result, nil
}

// recordUsage persists one generation call's usage when a db is attached
func (s *Service) recordUsage(userID uuid.UUID, promptTokens, completionTokens int, cost float64, generated, stored, flagged int) {
	if s.db == nil {
		return
	}

	record := models.AIUsageRecord{
		UserID:           userID,
		GenerationID:     uuid.New(),
		Model:            s.config.Model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		EstimatedCost:    cost,
		JokesGenerated:   generated,
		JokesStored:      stored,
		JokesFlagged:     flagged,
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Printf("Failed to record AI usage: %v", err)
	}
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool               `json:"flagged"`
		Categories map[string]bool    `json:"categories"`
		Scores     map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// ModerateContent checks one piece of text against the moderation endpoint
func (s *Service) ModerateContent(ctx context.Context, text string) (*Verdict, error) {
	reqBody := map[string]string{
		"model": s.config.ModerationModel,
		"input": text,
	}

	var response moderationResponse
	if err := s.post(ctx, "/moderations", reqBody, &response); err != nil {
		return nil, err
	}
	if len(response.Results) == 0 {
		return nil, fmt.Errorf("moderation returned no results")
	}

	result := response.Results[0]
	verdict := &Verdict{
		Safe:              !result.Flagged,
		FlaggedCategories: []string{},
		ViolenceScore:     result.Scores["violence"],
		HateScore:         result.Scores["hate"],
		SelfHarmScore:     result.Scores["self-harm"],
		SexualScore:       result.Scores["sexual"],
		Model:             s.config.ModerationModel,
	}
	for category, hit := range result.Categories {
		if hit {
			verdict.FlaggedCategories = append(verdict.FlaggedCategories, category)
		}
	}
	return verdict, nil
}

// post sends a JSON request to the API and decodes the JSON response
func (s *Service) post(ctx context.Context, path string, body, dest interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s failed: %s: %s", path, resp.Status, string(respBody))
	}

	return json.Unmarshal(respBody, dest)
}
