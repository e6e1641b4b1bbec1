package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Action is the kind of change a history entry records.
type Action string

const (
	ActionCreated            Action = "created"
	ActionTitleChanged       Action = "title_changed"
	ActionDescriptionChanged Action = "description_changed"
	ActionMoved              Action = "moved"
	ActionAssigned           Action = "assigned"
	ActionDueDateChanged     Action = "due_date_changed"
	ActionPriorityChanged    Action = "priority_changed"
	ActionCommented          Action = "commented"
	ActionTagAdded           Action = "tag_added"
	ActionTagRemoved         Action = "tag_removed"
	ActionDeleted            Action = "deleted"
)

// IsValid validates the action kind.
func (a Action) IsValid() bool {
	switch a {
	case ActionCreated, ActionTitleChanged, ActionDescriptionChanged,
		ActionMoved, ActionAssigned, ActionDueDateChanged,
		ActionPriorityChanged, ActionCommented, ActionTagAdded,
		ActionTagRemoved, ActionDeleted:
		return true
	}
	return false
}

// Entry is one immutable record in a task's audit trail. Rows are only ever
// inserted; there is no update or delete path through the repository. The
// snapshot is an opaque before/after payload attached by the caller; the
// recorder persists it without interpretation.
type Entry struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	TaskID      uuid.UUID      `json:"task_id" gorm:"type:uuid;not null;index:idx_history_task_created,priority:1"`
	ActorID     uuid.UUID      `json:"actor_id" gorm:"type:uuid;not null"`
	Action      Action         `json:"action" gorm:"type:varchar(32);not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	Snapshot    datatypes.JSON `json:"snapshot,omitempty"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null;index:idx_history_task_created,priority:2,sort:desc"`
}

// TableName specifies the table name for history entries
func (Entry) TableName() string {
	return "task_history"
}

// BeforeCreate is called before appending a history entry
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}
