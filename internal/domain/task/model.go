package task

import (
	"time"

	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// IsValid validates the task priority
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return true
	}
	return false
}

type TagList []string

// Value implements the driver.Valuer interface for TagList
func (t TagList) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "[]", nil
	}
	return json.Marshal(t)
}

// Scan implements the sql.Scanner interface for TagList
func (t *TagList) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("failed to unmarshal TagList value: %v", value)
	}
}

// Task is one card on a project's board. Position is dense within its
// column: live tasks always occupy exactly 1..N there.
type Task struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primary_key"`
	ProjectID   uuid.UUID    `json:"project_id" gorm:"type:uuid;not null;index:idx_task_project"`
	ColumnID    uuid.UUID    `json:"column_id" gorm:"type:uuid;not null;index:idx_task_column_position,priority:1"`
	Position    int          `json:"position" gorm:"not null;index:idx_task_column_position,priority:2"`
	Title       string       `json:"title" gorm:"type:varchar(255);not null"`
	Description string       `json:"description" gorm:"type:text"`
	Priority    TaskPriority `json:"priority" gorm:"type:varchar(16);not null;default:'medium';index:idx_task_priority"`
	Tags        TagList      `json:"tags" gorm:"type:jsonb"`
	CreatorID   uuid.UUID    `json:"creator_id" gorm:"type:uuid;not null;index:idx_task_creator"`
	AssigneeID  *uuid.UUID   `json:"assignee_id,omitempty" gorm:"type:uuid;index:idx_task_assignee"`
	DueDate     *time.Time   `json:"due_date,omitempty" gorm:"index:idx_task_due"`
	Archived    bool         `json:"archived" gorm:"not null;default:false"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName specifies the table name for the Task model
func (Task) TableName() string {
	return "tasks"
}

// BeforeCreate is called before inserting a new task
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Priority == "" {
		t.Priority = TaskPriorityMedium
	}
	return nil
}

type CreateTaskInput struct {
	ProjectID   uuid.UUID    `json:"project_id"`
	ColumnID    uuid.UUID    `json:"column_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
	Tags        TagList      `json:"tags,omitempty"`
	AssigneeID  *uuid.UUID   `json:"assignee_id,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	// Position 0 appends at the end of the column.
	Position int `json:"position,omitempty"`
}

type UpdateTaskInput struct {
	Title         *string       `json:"title,omitempty"`
	Description   *string       `json:"description,omitempty"`
	Priority      *TaskPriority `json:"priority,omitempty"`
	Tags          *TagList      `json:"tags,omitempty"`
	AssigneeID    *uuid.UUID    `json:"assignee_id,omitempty"`
	ClearAssignee bool          `json:"clear_assignee,omitempty"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	ClearDueDate  bool          `json:"clear_due_date,omitempty"`
}

type MoveTaskInput struct {
	ColumnID uuid.UUID `json:"column_id"`
	// Position 0 appends at the end of the target column.
	Position int `json:"position,omitempty"`
}

type TaskFilter struct {
	ColumnID   *uuid.UUID
	AssigneeID *uuid.UUID
	CreatorID  *uuid.UUID
	Priority   *TaskPriority
	Tag        string
	DueBefore  *time.Time
	DueAfter   *time.Time
	Archived   *bool
	Search     string
	Page       int
	PageSize   int
}
