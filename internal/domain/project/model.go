package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/policy"
)

type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusReadOnly ProjectStatus = "readonly"
	ProjectStatusArchived ProjectStatus = "archived"
)

// IsValid validates the project status
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusReadOnly, ProjectStatusArchived:
		return true
	}
	return false
}

// Mutable reports whether destructive task operations are still allowed.
func (s ProjectStatus) Mutable() bool {
	return s == ProjectStatusActive
}

type Project struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Status      ProjectStatus  `json:"status" gorm:"type:varchar(16);not null;default:'active';index:idx_project_status"`
	OwnerID     uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index:idx_project_owner"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Members []Member `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
}

// TableName specifies the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// BeforeCreate is called before inserting a new project
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProjectStatusActive
	}
	return nil
}

// Member is one (project, user, role) row. Unique per (project, user).
type Member struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primary_key"`
	ProjectID uuid.UUID   `json:"project_id" gorm:"type:uuid;not null;uniqueIndex:idx_member_project_user,priority:1"`
	UserID    uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_member_project_user,priority:2"`
	Role      policy.Role `json:"role" gorm:"type:varchar(16);not null"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName specifies the table name for project members
func (Member) TableName() string {
	return "project_members"
}

// BeforeCreate is called before inserting a membership row
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// PolicyMembers converts the loaded membership rows into the shape the
// policy resolver takes.
func (p *Project) PolicyMembers() []policy.Member {
	out := make([]policy.Member, 0, len(p.Members))
	for _, m := range p.Members {
		out = append(out, policy.Member{UserID: m.UserID, Role: m.Role})
	}
	return out
}

type CreateProjectInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id"`
}

type UpdateProjectInput struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
}

type ProjectFilter struct {
	OwnerID  *uuid.UUID
	MemberID *uuid.UUID
	Status   *ProjectStatus
	Page     int
	PageSize int
}
