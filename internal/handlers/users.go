package handlers

import (
	"errors"
	"net/http"

	"giggle-glide/internal/auth"
	"giggle-glide/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler handles registration and profile requests
type UserHandler struct {
	db     *gorm.DB
	tokens *auth.Manager
}

// NewUserHandler creates a new user handler
func NewUserHandler(db *gorm.DB, tokens *auth.Manager) *UserHandler {
	return &UserHandler{db: db, tokens: tokens}
}

// registerRequest is the body of a registration call
type registerRequest struct {
	Username          string `json:"username" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	PreferredLanguage string `json:"preferred_language"`
}

// Register handles POST /api/users/register: creates the user and issues
// a bearer token. Registering an existing username re-issues a token for
// that user.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var user models.User
	err := h.db.Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Username:          req.Username,
			Email:             req.Email,
			PreferredLanguage: req.PreferredLanguage,
		}
		if user.PreferredLanguage == "" {
			user.PreferredLanguage = "en"
		}
		if err := h.db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "details": err.Error()})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user", "details": err.Error()})
		return
	}

	token, err := h.tokens.IssueToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// GetProfile handles GET /api/users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	var user models.User
	if err := h.db.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var stats models.UserStats
	if err := h.db.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		stats = models.UserStats{UserID: userID}
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "stats": stats})
}

// settingsRequest carries updatable profile settings
type settingsRequest struct {
	PreferredLanguage    *string `json:"preferred_language"`
	DarkMode             *bool   `json:"dark_mode"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
}

// UpdateSettings handles PATCH /api/users/me
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User authentication required"})
		return
	}

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	updates := make(map[string]interface{})
	if req.PreferredLanguage != nil {
		updates["preferred_language"] = *req.PreferredLanguage
	}
	if req.DarkMode != nil {
		updates["dark_mode"] = *req.DarkMode
	}
	if req.NotificationsEnabled != nil {
		updates["notifications_enabled"] = *req.NotificationsEnabled
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No settings provided"})
		return
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
