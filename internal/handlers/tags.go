package handlers

import (
	"net/http"
	"strconv"

	"giggle-glide/internal/cache"
	"giggle-glide/internal/models"
	"giggle-glide/internal/tags"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TagHandler handles HTTP requests for the tag taxonomy
type TagHandler struct {
	tagService *tags.Service
	cache      *cache.Cache
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagService *tags.Service, cacheSvc *cache.Cache) *TagHandler {
	return &TagHandler{
		tagService: tagService,
		cache:      cacheSvc,
	}
}

// GetTags handles GET /api/personalization/tags. An optional category
// query filters to one taxonomy category; results are served from cache
// when possible.
func (h *TagHandler) GetTags(c *gin.Context) {
	category := c.Query("category")
	cacheKey := category
	if cacheKey == "" {
		cacheKey = "all"
	}

	var cached []models.Tag
	if h.cache.GetTags(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, gin.H{"tags": cached, "cache_hit": true})
		return
	}

	var tagList []models.Tag
	var err error
	if category != "" {
		tagList, err = h.tagService.GetTagsByCategory(category)
	} else {
		tagList, err = h.tagService.GetAllTags()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tags", "details": err.Error()})
		return
	}

	h.cache.SetTags(c.Request.Context(), cacheKey, tagList)
	c.JSON(http.StatusOK, gin.H{"tags": tagList, "cache_hit": false})
}

// GetTagPopularity handles GET /api/personalization/tags/popularity
func (h *TagHandler) GetTagPopularity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	usage, err := h.tagService.GetTagPopularity(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank tags", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": usage})
}

// GetSimilarTags handles GET /api/personalization/tags/:tagId/similar
func (h *TagHandler) GetSimilarTags(c *gin.Context) {
	tagID, err := uuid.Parse(c.Param("tagId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	similar, err := h.tagService.GetSimilarTags(tagID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find similar tags", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": similar})
}

// tagJokeRequest attaches a tag to a joke
type tagJokeRequest struct {
	TagID      uuid.UUID `json:"tag_id" binding:"required"`
	Confidence float64   `json:"confidence"`
}

// TagJoke handles POST /api/personalization/jokes/:jokeId/tags
func (h *TagHandler) TagJoke(c *gin.Context) {
	jokeID, err := uuid.Parse(c.Param("jokeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid joke ID"})
		return
	}

	var req tagJokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Confidence <= 0 || req.Confidence > 1 {
		req.Confidence = 1.0
	}

	link, err := h.tagService.AddJokeTag(jokeID, req.TagID, req.Confidence)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to tag joke", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, link)
}

// UntagJoke handles DELETE /api/personalization/jokes/:jokeId/tags/:tagId
func (h *TagHandler) UntagJoke(c *gin.Context) {
	jokeID, err := uuid.Parse(c.Param("jokeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid joke ID"})
		return
	}
	tagID, err := uuid.Parse(c.Param("tagId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag ID"})
		return
	}

	removed, err := h.tagService.RemoveJokeTag(jokeID, tagID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to untag joke", "details": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag link not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
