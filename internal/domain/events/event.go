package events

import (
	"time"

	"github.com/google/uuid"
)

// Board event types published on structural or content mutations.
const (
	BoardEventColumnCreated = "column_created"
	BoardEventColumnMoved   = "column_moved"
	BoardEventColumnDeleted = "column_deleted"
	BoardEventTaskCreated   = "task_created"
	BoardEventTaskUpdated   = "task_updated"
	BoardEventTaskMoved     = "task_moved"
	BoardEventTaskArchived  = "task_archived"
	BoardEventTaskDeleted   = "task_deleted"
	BoardEventCommentAdded  = "comment_added"
)

// BoardEvent represents a board-related event. Consumers (cache
// invalidation, live board views) subscribe via Redis.
type BoardEvent struct {
	EventType string      `json:"event_type"`
	ProjectID uuid.UUID   `json:"project_id"`
	EntityID  uuid.UUID   `json:"entity_id"`
	ActorID   uuid.UUID   `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Details   interface{} `json:"details,omitempty"`
}
