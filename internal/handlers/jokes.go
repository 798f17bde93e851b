package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"giggle-glide/internal/auth"
	"giggle-glide/internal/cache"
	"giggle-glide/internal/jokes"
	"giggle-glide/internal/models"
	"giggle-glide/internal/tags"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JokeHandler handles HTTP requests for the joke catalog
type JokeHandler struct {
	jokeService *jokes.Service
	tagService  *tags.Service
	cache       *cache.Cache
}

// NewJokeHandler creates a new joke handler
func NewJokeHandler(jokeService *jokes.Service, tagService *tags.Service, cacheSvc *cache.Cache) *JokeHandler {
	return &JokeHandler{
		jokeService: jokeService,
		tagService:  tagService,
		cache:       cacheSvc,
	}
}

// GetJoke handles GET /api/jokes/:jokeId
func (h *JokeHandler) GetJoke(c *gin.Context) {
	jokeID, err := uuid.Parse(c.Param("jokeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid joke ID"})
		return
	}

	joke, err := h.jokeService.Get(jokeID)
	if err != nil {
		if errors.Is(err, jokes.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Joke not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve joke", "details": err.Error()})
		return
	}

	tagged, err := h.tagService.GetJokeTags(jokeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve joke tags", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"joke": joke, "tags": tagged})
}

// GetTrending handles GET /api/jokes/trending. The id list is cached per
// (language, window) so bursts of traffic share one trending computation.
func (h *JokeHandler) GetTrending(c *gin.Context) {
	language := c.DefaultQuery("language", "en")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}
	windowHours, _ := strconv.Atoi(c.DefaultQuery("window_hours", "24"))
	if windowHours < 1 || windowHours > 24*30 {
		windowHours = 24
	}

	label := language + ":" + strconv.Itoa(windowHours)
	if ids, ok := h.cache.GetHotJokes(c.Request.Context(), label); ok && len(ids) >= limit {
		result := make([]models.Joke, 0, limit)
		for _, id := range ids[:limit] {
			if joke, err := h.jokeService.Get(id); err == nil {
				result = append(result, *joke)
			}
		}
		if len(result) == limit {
			c.JSON(http.StatusOK, gin.H{"jokes": result, "cache_hit": true})
			return
		}
	}

	trending, err := h.jokeService.GetTrending(language, windowHours, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve trending jokes", "details": err.Error()})
		return
	}

	ids := make([]uuid.UUID, len(trending))
	for i, joke := range trending {
		ids[i] = joke.ID
	}
	h.cache.SetHotJokes(c.Request.Context(), label, ids)

	c.JSON(http.StatusOK, gin.H{"jokes": trending, "cache_hit": false})
}

// SearchJokes handles GET /api/jokes/search
func (h *JokeHandler) SearchJokes(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q required"})
		return
	}

	language := c.DefaultQuery("language", "en")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	results, err := h.jokeService.Search(query, language, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jokes": results, "count": len(results)})
}

// createJokeRequest is the body for manual joke submission
type createJokeRequest struct {
	Text     string `json:"text" binding:"required"`
	Category string `json:"category"`
	Language string `json:"language"`
}

// CreateJoke handles POST /api/jokes
func (h *JokeHandler) CreateJoke(c *gin.Context) {
	var req createJokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	joke := &models.Joke{
		Text:     req.Text,
		Category: req.Category,
		Language: req.Language,
		Source:   models.SourceCurated,
	}
	if err := h.jokeService.Create(joke); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create joke", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, joke)
}

// AddFavorite handles POST /api/jokes/:jokeId/favorite
func (h *JokeHandler) AddFavorite(c *gin.Context) {
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

	added, err := h.jokeService.AddFavorite(userID, jokeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save favorite", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorited": true, "newly_added": added})
}

// RemoveFavorite handles DELETE /api/jokes/:jokeId/favorite
func (h *JokeHandler) RemoveFavorite(c *gin.Context) {
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

	removed, err := h.jokeService.RemoveFavorite(userID, jokeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite", "details": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Favorite not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorited": false})
}

// GetFavorites handles GET /api/jokes/favorites
func (h *JokeHandler) GetFavorites(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	favorites, err := h.jokeService.GetFavorites(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve favorites", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jokes": favorites, "count": len(favorites)})
}
