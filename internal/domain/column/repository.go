package column

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/board"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/connection"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// Repository defines the persistence operations for columns. Every
// structural mutation is one transaction: lock the project scope, read N,
// compute the shift with the sequencer, apply it as a single bulk update,
// then write the column row.
type Repository interface {
	ListByProject(ctx context.Context, projectID uuid.UUID, includeInactive bool) ([]Column, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Column, error)
	Create(ctx context.Context, col *Column, target int) error
	UpdateMeta(ctx context.Context, col *Column) error
	Move(ctx context.Context, id uuid.UUID, target int) (*Column, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountTasks(ctx context.Context, id uuid.UUID) (int64, error)
	// EnsureInactive finds the project's sentinel column by name, creating
	// it at the end of the board when absent.
	EnsureInactive(ctx context.Context, projectID uuid.UUID, name string) (*Column, error)
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

// lockProjectScope serializes ordinal mutations against one project's
// columns. Held until the surrounding transaction commits.
func lockProjectScope(tx *gorm.DB, projectID uuid.UUID) error {
	var id string
	err := connection.LockForUpdate(tx).
		Table("projects").
		Select("id").
		Where("id = ? AND deleted_at IS NULL", projectID).
		Scan(&id).Error
	if err != nil {
		return faults.Transient(err, "lock project scope")
	}
	if id == "" {
		return faults.NotFound("project %s not found", projectID)
	}
	return nil
}

func countColumns(tx *gorm.DB, projectID uuid.UUID) (int, error) {
	var n int64
	if err := tx.Model(&Column{}).Where("project_id = ?", projectID).Count(&n).Error; err != nil {
		return 0, faults.Transient(err, "count columns")
	}
	return int(n), nil
}

func shiftColumns(tx *gorm.DB, projectID uuid.UUID, span board.Span) error {
	if span.Empty() {
		return nil
	}
	err := tx.Model(&Column{}).
		Where("project_id = ? AND position BETWEEN ? AND ?", projectID, span.Lo, span.Hi).
		Update("position", gorm.Expr("position + ?", span.Delta)).Error
	if err != nil {
		return faults.Transient(err, "shift columns")
	}
	return nil
}

func (r *repository) ListByProject(ctx context.Context, projectID uuid.UUID, includeInactive bool) ([]Column, error) {
	var columns []Column
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	if err := query.Order("position ASC").Find(&columns).Error; err != nil {
		return nil, faults.Transient(err, "list columns")
	}
	return columns, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Column, error) {
	var col Column
	result := r.db.WithContext(ctx).First(&col, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("column %s not found", id)
		}
		return nil, faults.Transient(result.Error, "find column")
	}
	return &col, nil
}

func (r *repository) Create(ctx context.Context, col *Column, target int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProjectScope(tx, col.ProjectID); err != nil {
			return err
		}
		n, err := countColumns(tx, col.ProjectID)
		if err != nil {
			return err
		}
		pos, span, err := board.InsertAt(n, target)
		if err != nil {
			return err
		}
		if err := shiftColumns(tx, col.ProjectID, span); err != nil {
			return err
		}
		col.Position = pos
		if err := tx.Create(col).Error; err != nil {
			return faults.Transient(err, "insert column")
		}
		return nil
	})
}

func (r *repository) UpdateMeta(ctx context.Context, col *Column) error {
	result := r.db.WithContext(ctx).Model(&Column{}).Where("id = ?", col.ID).Updates(map[string]interface{}{
		"name":  col.Name,
		"color": col.Color,
	})
	if result.Error != nil {
		return faults.Transient(result.Error, "update column")
	}
	if result.RowsAffected == 0 {
		return faults.NotFound("column %s not found", col.ID)
	}
	return nil
}

func (r *repository) Move(ctx context.Context, id uuid.UUID, target int) (*Column, error) {
	var moved Column
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&moved, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return faults.NotFound("column %s not found", id)
			}
			return faults.Transient(err, "find column")
		}
		if err := lockProjectScope(tx, moved.ProjectID); err != nil {
			return err
		}
		n, err := countColumns(tx, moved.ProjectID)
		if err != nil {
			return err
		}
		if target == board.Append {
			// Omitted position means the end of the board.
			target = n
		}
		span, err := board.MoveWithin(n, moved.Position, target)
		if err != nil {
			return err
		}
		if span.Empty() && target == moved.Position {
			return nil
		}
		if err := shiftColumns(tx, moved.ProjectID, span); err != nil {
			return err
		}
		moved.Position = target
		if err := tx.Model(&Column{}).Where("id = ?", id).Update("position", target).Error; err != nil {
			return faults.Transient(err, "move column")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &moved, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var col Column
		if err := tx.First(&col, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return faults.NotFound("column %s not found", id)
			}
			return faults.Transient(err, "find column")
		}
		if err := lockProjectScope(tx, col.ProjectID); err != nil {
			return err
		}

		var tasks int64
		if err := tx.Table("tasks").Where("column_id = ?", id).Count(&tasks).Error; err != nil {
			return faults.Transient(err, "count column tasks")
		}
		if tasks > 0 {
			return faults.Conflict("column %s still holds %d tasks", id, tasks)
		}

		n, err := countColumns(tx, col.ProjectID)
		if err != nil {
			return err
		}
		span, err := board.RemoveAt(n, col.Position)
		if err != nil {
			return err
		}
		if err := tx.Delete(&Column{}, "id = ?", id).Error; err != nil {
			return faults.Transient(err, "delete column")
		}
		return shiftColumns(tx, col.ProjectID, span)
	})
}

func (r *repository) CountTasks(ctx context.Context, id uuid.UUID) (int64, error) {
	var tasks int64
	err := r.db.WithContext(ctx).Table("tasks").Where("column_id = ?", id).Count(&tasks).Error
	if err != nil {
		return 0, faults.Transient(err, "count column tasks")
	}
	return tasks, nil
}

func (r *repository) EnsureInactive(ctx context.Context, projectID uuid.UUID, name string) (*Column, error) {
	var col Column
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProjectScope(tx, projectID); err != nil {
			return err
		}
		err := tx.First(&col, "project_id = ? AND name = ?", projectID, name).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return faults.Transient(err, "find sentinel column")
		}

		n, err := countColumns(tx, projectID)
		if err != nil {
			return err
		}
		pos, _, err := board.InsertAt(n, board.Append)
		if err != nil {
			return err
		}
		col = Column{
			ProjectID: projectID,
			Name:      name,
			Position:  pos,
			Active:    false,
		}
		if err := tx.Create(&col).Error; err != nil {
			return faults.Transient(err, "create sentinel column")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &col, nil
}
