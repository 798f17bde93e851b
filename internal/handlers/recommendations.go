package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"giggle-glide/internal/auth"
	"giggle-glide/internal/cache"
	"giggle-glide/internal/jokes"
	"giggle-glide/internal/recommend"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RecommendationHandler handles HTTP requests for the personalization API
type RecommendationHandler struct {
	recommender *recommend.Service
	cache       *cache.Cache
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommender *recommend.Service, cacheSvc *cache.Cache) *RecommendationHandler {
	return &RecommendationHandler{
		recommender: recommender,
		cache:       cacheSvc,
	}
}

// recommendationsRequest is the optional body of a POST recommendations
// call; absent fields fall back to the query-parameter defaults
type recommendationsRequest struct {
	Limit            *int   `json:"limit"`
	Language         string `json:"language"`
	ExcludeSeen      *bool  `json:"exclude_seen"`
	UseCollaborative *bool  `json:"collaborative"`
}

// GetRecommendations handles GET and POST /api/personalization/recommendations
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	language := c.DefaultQuery("language", "en")
	excludeSeen := c.DefaultQuery("exclude_seen", "true") != "false"
	useCollaborative := c.DefaultQuery("collaborative", "true") != "false"

	if c.Request.Method == http.MethodPost {
		var req recommendationsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		if req.Limit != nil {
			limit = *req.Limit
		}
		if req.Language != "" {
			language = req.Language
		}
		if req.ExcludeSeen != nil {
			excludeSeen = *req.ExcludeSeen
		}
		if req.UseCollaborative != nil {
			useCollaborative = *req.UseCollaborative
		}
	}

	if limit > 50 {
		limit = 50
	}
	if limit < 1 {
		limit = 10
	}

	result := h.recommender.GetPersonalizedRecommendations(c.Request.Context(), recommend.Request{
		UserID:           userID,
		Limit:            limit,
		Language:         language,
		ExcludeSeen:      excludeSeen,
		UseCollaborative: useCollaborative,
	})

	c.JSON(http.StatusOK, result)
}

// feedbackRequest is the body of a feedback submission
type feedbackRequest struct {
	JokeID           uuid.UUID `json:"joke_id" binding:"required"`
	InteractionType  string    `json:"interaction_type" binding:"required"`
	FeedbackStrength float64   `json:"feedback_strength"`
}

// SubmitFeedback handles POST /api/personalization/feedback
func (h *RecommendationHandler) SubmitFeedback(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	updated, err := h.recommender.UpdateUserPreferences(c.Request.Context(), userID, req.JokeID, req.InteractionType, req.FeedbackStrength)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrInvalidInteraction):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown interaction type"})
		case errors.Is(err, jokes.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Joke not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "recorded",
		"tags_updated": updated,
	})
}

// GetPreferenceAnalysis handles GET /api/personalization/preferences/analysis
func (h *RecommendationHandler) GetPreferenceAnalysis(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	analysis, err := h.recommender.AnalyzeUserPreferences(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze preferences", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// GetMetrics handles GET /api/personalization/metrics
func (h *RecommendationHandler) GetMetrics(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	analysis, err := h.recommender.AnalyzeUserPreferences(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute metrics", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":            userID,
		"total_interactions": analysis.TotalInteractions,
		"performance":        analysis.Performance,
	})
}

// GetExplanation handles GET /api/personalization/explanation/:jokeId
func (h *RecommendationHandler) GetExplanation(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	jokeID, err := uuid.Parse(c.Param("jokeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid joke ID"})
		return
	}

	explanation, err := h.recommender.GetRecommendationExplanation(userID, jokeID)
	if err != nil {
		if errors.Is(err, jokes.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Joke not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to explain recommendation", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, explanation)
}

// coldStartRequest carries the optional tag picks of a brand-new user
type coldStartRequest struct {
	Preferences map[string][]string `json:"preferences"`
	Language    string              `json:"language"`
	Limit       int                 `json:"limit"`
}

// ColdStart handles POST /api/personalization/cold-start
func (h *RecommendationHandler) ColdStart(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	var req coldStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.recommender.HandleColdStartUser(c.Request.Context(), userID, req.Preferences, req.Language, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize preferences", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// InvalidateCache handles DELETE /api/personalization/cache
func (h *RecommendationHandler) InvalidateCache(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	deleted := h.cache.InvalidateUser(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"entries_deleted": deleted})
}
