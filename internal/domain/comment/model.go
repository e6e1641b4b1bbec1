package comment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is one note on a task. Deletion leaves a tombstone so the audit
// trail's commented entries keep a referent.
type Comment struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	TaskID    uuid.UUID      `json:"task_id" gorm:"type:uuid;not null;index:idx_comment_task"`
	AuthorID  uuid.UUID      `json:"author_id" gorm:"type:uuid;not null"`
	Body      string         `json:"body" gorm:"type:text;not null"`
	Edited    bool           `json:"edited" gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the Comment model
func (Comment) TableName() string {
	return "task_comments"
}

// BeforeCreate is called before inserting a new comment
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CreateCommentInput struct {
	TaskID uuid.UUID `json:"task_id"`
	Body   string    `json:"body"`
}
