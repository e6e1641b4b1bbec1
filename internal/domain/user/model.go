package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the account row referenced by memberships, assignees and history
// actors. Authentication and sessions are handled outside this service.
type User struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	Email     string         `json:"email" gorm:"type:varchar(255);unique;not null"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Active    bool           `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is called before inserting a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
