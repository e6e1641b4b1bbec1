package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/cache"
)

// PresenceHandler answers whether a user has been active recently.
type PresenceHandler struct {
	redis *cache.RedisClient
}

// NewPresenceHandler creates a new PresenceHandler instance
func NewPresenceHandler(redis *cache.RedisClient) *PresenceHandler {
	return &PresenceHandler{redis: redis}
}

func (h *PresenceHandler) GetPresence(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	online, err := h.redis.IsOnline(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "online": online})
}
