package comment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/history"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/connection"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// Repository defines the persistence operations for comments.
type Repository interface {
	// Create persists the comment and its audit entry in one transaction.
	Create(ctx context.Context, c *Comment, entry *history.Entry) error
	FindByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]Comment, error)
	Update(ctx context.Context, c *Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db      *connection.Database
	history history.Repository
}

func NewRepository(db *connection.Database, historyRepo history.Repository) Repository {
	return &repository{db: db, history: historyRepo}
}

func (r *repository) Create(ctx context.Context, c *Comment, entry *history.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return faults.Transient(err, "insert comment")
		}
		if entry == nil {
			return nil
		}
		return r.history.AppendTx(tx, entry)
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	var c Comment
	result := r.db.WithContext(ctx).First(&c, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("comment %s not found", id)
		}
		return nil, faults.Transient(result.Error, "find comment")
	}
	return &c, nil
}

func (r *repository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]Comment, error) {
	var comments []Comment
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, faults.Transient(err, "list comments")
	}
	return comments, nil
}

func (r *repository) Update(ctx context.Context, c *Comment) error {
	result := r.db.WithContext(ctx).Model(&Comment{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"body":   c.Body,
		"edited": true,
	})
	if result.Error != nil {
		return faults.Transient(result.Error, "update comment")
	}
	if result.RowsAffected == 0 {
		return faults.NotFound("comment %s not found", c.ID)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Comment{}, "id = ?", id)
	if result.Error != nil {
		return faults.Transient(result.Error, "delete comment")
	}
	if result.RowsAffected == 0 {
		return faults.NotFound("comment %s not found", id)
	}
	return nil
}
