package column

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is one ordered lane of a project's board. Position is dense within
// the project: live columns always occupy exactly 1..N.
type Column struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index:idx_column_project_position,priority:1"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Color     string    `json:"color,omitempty" gorm:"type:varchar(32)"`
	Position  int       `json:"position" gorm:"not null;index:idx_column_project_position,priority:2"`
	Active    bool      `json:"active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Column model
func (Column) TableName() string {
	return "columns"
}

// BeforeCreate is called before inserting a new column
func (c *Column) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CreateColumnInput struct {
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	// Position 0 appends at the end.
	Position int `json:"position,omitempty"`
}

type UpdateColumnInput struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}
