package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const actorKey = "actor_id"

// ActorHeader carries the authenticated user's id. Authentication itself
// happens upstream (gateway); this service only needs the identity.
const ActorHeader = "X-User-ID"

// RequireActor rejects requests that carry no usable actor identity.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(ActorHeader))
		if err != nil || id == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + ActorHeader + " header"})
			return
		}
		c.Set(actorKey, id)
		c.Next()
	}
}

// GetActorID returns the actor id set by RequireActor.
func GetActorID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
