package project

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/column"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/policy"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/connection"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// Repository defines the persistence operations for projects and their
// memberships.
type Repository interface {
	// Create persists the project, its owner membership and the default
	// columns in one transaction.
	Create(ctx context.Context, p *Project, ownerMember *Member, defaultColumns []string) error
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindAll(ctx context.Context, filter ProjectFilter) ([]Project, int64, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindMember(ctx context.Context, projectID, userID uuid.UUID) (*Member, error)
	AddMember(ctx context.Context, m *Member) error
	UpdateMember(ctx context.Context, m *Member) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	CountAdmins(ctx context.Context, projectID uuid.UUID) (int64, error)
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Project, ownerMember *Member, defaultColumns []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		ownerMember.ProjectID = p.ID
		if err := tx.Create(ownerMember).Error; err != nil {
			return err
		}
		for i, name := range defaultColumns {
			col := &column.Column{
				ProjectID: p.ID,
				Name:      name,
				Position:  i + 1,
				Active:    true,
			}
			if err := tx.Create(col).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return faults.Transient(err, "create project")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	var p Project
	result := r.db.WithContext(ctx).Preload("Members").First(&p, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("project %s not found", id)
		}
		return nil, faults.Transient(result.Error, "find project")
	}
	return &p, nil
}

func (r *repository) FindAll(ctx context.Context, filter ProjectFilter) ([]Project, int64, error) {
	var projects []Project
	var total int64

	query := r.db.WithContext(ctx).Model(&Project{})

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.MemberID != nil {
		query = query.Where(
			"id IN (?)",
			r.db.WithContext(ctx).Model(&Member{}).Select("project_id").Where("user_id = ?", filter.MemberID),
		)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, faults.Transient(err, "count projects")
	}

	if filter.PageSize > 0 {
		query = query.Offset(filter.Page * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, 0, faults.Transient(err, "list projects")
	}
	return projects, total, nil
}

func (r *repository) Update(ctx context.Context, p *Project) error {
	result := r.db.WithContext(ctx).Model(&Project{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"status":      p.Status,
	})
	if result.Error != nil {
		return faults.Transient(result.Error, "update project")
	}
	if result.RowsAffected == 0 {
		return faults.NotFound("project %s not found", p.ID)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Project{}, "id = ?", id)
	if result.Error != nil {
		return faults.Transient(result.Error, "delete project")
	}
	if result.RowsAffected == 0 {
		return faults.NotFound("project %s not found", id)
	}
	return nil
}

func (r *repository) FindMember(ctx context.Context, projectID, userID uuid.UUID) (*Member, error) {
	var m Member
	result := r.db.WithContext(ctx).First(&m, "project_id = ? AND user_id = ?", projectID, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("user %s is not a member of project %s", userID, projectID)
		}
		return nil, faults.Transient(result.Error, "find member")
	}
	return &m, nil
}

func (r *repository) AddMember(ctx context.Context, m *Member) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return faults.Transient(err, "add member")
	}
	return nil
}

func (r *repository) UpdateMember(ctx context.Context, m *Member) error {
	result := r.db.WithContext(ctx).Model(&Member{}).Where("id = ?", m.ID).Update("role", m.Role)
	if result.Error != nil {
		return faults.Transient(result.Error, "update member")
	}
	if result.RowsAffected == 0 {
		return faults.NotFound("membership %s not found", m.ID)
	}
	return nil
}

func (r *repository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Member{}, "project_id = ? AND user_id = ?", projectID, userID)
	if result.Error != nil {
		return faults.Transient(result.Error, "remove member")
	}
	if result.RowsAffected == 0 {
		return faults.NotFound("user %s is not a member of project %s", userID, projectID)
	}
	return nil
}

func (r *repository) CountAdmins(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Member{}).
		Where("project_id = ? AND role = ?", projectID, policy.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return 0, faults.Transient(err, "count admins")
	}
	return count, nil
}
