package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/cache"
)

// TrackPresence refreshes the actor's expiring presence key on every
// authenticated request. Failures are ignored; presence is best-effort.
func TrackPresence(redis *cache.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorID, ok := GetActorID(c); ok && redis != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = redis.MarkOnline(ctx, actorID)
			}()
		}
		c.Next()
	}
}
