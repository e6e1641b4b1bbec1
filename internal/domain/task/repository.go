package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/board"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/history"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/connection"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// Repository defines the persistence operations for tasks. Every structural
// mutation runs in one transaction: lock the column scope rows, read N,
// compute the shift with the sequencer, apply it as a single bulk update,
// write the task row, and append the audit entry. A cross-column move locks
// both column rows in ascending id order so two concurrent moves between the
// same pair of columns cannot deadlock.
type Repository interface {
	Create(ctx context.Context, t *Task, target int, entry *history.Entry) error
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	List(ctx context.Context, projectID uuid.UUID, filter TaskFilter) ([]Task, error)
	Update(ctx context.Context, t *Task, entries []*history.Entry) error
	MoveWithin(ctx context.Context, id uuid.UUID, target int, entry *history.Entry) (*Task, error)
	MoveAcross(ctx context.Context, id, targetColumn uuid.UUID, target int, markArchived *bool, entry *history.Entry) (*Task, error)
	Remove(ctx context.Context, id uuid.UUID, entry *history.Entry) error
}

type repository struct {
	db      *connection.Database
	history history.Repository
}

func NewRepository(db *connection.Database, historyRepo history.Repository) Repository {
	return &repository{db: db, history: historyRepo}
}

// lockColumnScope serializes ordinal mutations against one column's tasks.
func lockColumnScope(tx *gorm.DB, columnID uuid.UUID) error {
	var id string
	err := connection.LockForUpdate(tx).
		Table("columns").
		Select("id").
		Where("id = ?", columnID).
		Scan(&id).Error
	if err != nil {
		return faults.Transient(err, "lock column scope")
	}
	if id == "" {
		return faults.NotFound("column %s not found", columnID)
	}
	return nil
}

// lockColumnScopes locks two column rows in ascending id order.
func lockColumnScopes(tx *gorm.DB, a, b uuid.UUID) error {
	if bytes.Compare(b[:], a[:]) < 0 {
		a, b = b, a
	}
	if err := lockColumnScope(tx, a); err != nil {
		return err
	}
	if a == b {
		return nil
	}
	return lockColumnScope(tx, b)
}

func countTasks(tx *gorm.DB, columnID uuid.UUID) (int, error) {
	var n int64
	if err := tx.Model(&Task{}).Where("column_id = ?", columnID).Count(&n).Error; err != nil {
		return 0, faults.Transient(err, "count tasks")
	}
	return int(n), nil
}

func shiftTasks(tx *gorm.DB, columnID uuid.UUID, span board.Span) error {
	if span.Empty() {
		return nil
	}
	err := tx.Model(&Task{}).
		Where("column_id = ? AND position BETWEEN ? AND ?", columnID, span.Lo, span.Hi).
		Update("position", gorm.Expr("position + ?", span.Delta)).Error
	if err != nil {
		return faults.Transient(err, "shift tasks")
	}
	return nil
}

func (r *repository) appendEntry(tx *gorm.DB, entry *history.Entry) error {
	if entry == nil {
		return nil
	}
	return r.history.AppendTx(tx, entry)
}

func (r *repository) Create(ctx context.Context, t *Task, target int, entry *history.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockColumnScope(tx, t.ColumnID); err != nil {
			return err
		}
		n, err := countTasks(tx, t.ColumnID)
		if err != nil {
			return err
		}
		pos, span, err := board.InsertAt(n, target)
		if err != nil {
			return err
		}
		if err := shiftTasks(tx, t.ColumnID, span); err != nil {
			return err
		}
		t.Position = pos
		if err := tx.Create(t).Error; err != nil {
			return faults.Transient(err, "insert task")
		}
		if entry != nil {
			entry.TaskID = t.ID
		}
		return r.appendEntry(tx, entry)
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	result := r.db.WithContext(ctx).First(&t, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, faults.NotFound("task %s not found", id)
		}
		return nil, faults.Transient(result.Error, "find task")
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context, projectID uuid.UUID, filter TaskFilter) ([]Task, error) {
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if filter.ColumnID != nil {
		query = query.Where("column_id = ?", *filter.ColumnID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.Tag != "" {
		// Tags are stored as a JSON array; a quoted substring match works
		// on both postgres jsonb text and sqlite.
		query = query.Where("tags LIKE ?", "%\""+filter.Tag+"\"%")
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date <= ?", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		query = query.Where("due_date >= ?", *filter.DueAfter)
	}
	if filter.Archived != nil {
		query = query.Where("archived = ?", *filter.Archived)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Page * filter.PageSize).Limit(filter.PageSize)
	}

	var tasks []Task
	if err := query.Order("column_id ASC, position ASC").Find(&tasks).Error; err != nil {
		return nil, faults.Transient(err, "list tasks")
	}
	return tasks, nil
}

func (r *repository) Update(ctx context.Context, t *Task, entries []*history.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Task{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
			"title":       t.Title,
			"description": t.Description,
			"priority":    t.Priority,
			"tags":        t.Tags,
			"assignee_id": t.AssigneeID,
			"due_date":    t.DueDate,
		})
		if result.Error != nil {
			return faults.Transient(result.Error, "update task")
		}
		if result.RowsAffected == 0 {
			return faults.NotFound("task %s not found", t.ID)
		}
		for _, entry := range entries {
			if err := r.appendEntry(tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) MoveWithin(ctx context.Context, id uuid.UUID, target int, entry *history.Entry) (*Task, error) {
	var moved Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&moved, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return faults.NotFound("task %s not found", id)
			}
			return faults.Transient(err, "find task")
		}
		if err := lockColumnScope(tx, moved.ColumnID); err != nil {
			return err
		}
		n, err := countTasks(tx, moved.ColumnID)
		if err != nil {
			return err
		}
		if target == board.Append {
			// Omitted position means the end of the column; the entry
			// was built before n was known.
			target = n
			if entry != nil {
				entry.Description = fmt.Sprintf("moved to position %d", target)
				entry.Snapshot = history.Snapshot(map[string]interface{}{
					"before": map[string]interface{}{"column_id": moved.ColumnID, "position": moved.Position},
					"after":  map[string]interface{}{"column_id": moved.ColumnID, "position": target},
				})
			}
		}
		span, err := board.MoveWithin(n, moved.Position, target)
		if err != nil {
			return err
		}
		if span.Empty() && target == moved.Position {
			return nil
		}
		if err := shiftTasks(tx, moved.ColumnID, span); err != nil {
			return err
		}
		moved.Position = target
		if err := tx.Model(&Task{}).Where("id = ?", id).Update("position", target).Error; err != nil {
			return faults.Transient(err, "move task")
		}
		return r.appendEntry(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &moved, nil
}

func (r *repository) MoveAcross(ctx context.Context, id, targetColumn uuid.UUID, target int, markArchived *bool, entry *history.Entry) (*Task, error) {
	var moved Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&moved, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return faults.NotFound("task %s not found", id)
			}
			return faults.Transient(err, "find task")
		}
		if moved.ColumnID == targetColumn {
			return faults.Conflict("task %s is already in column %s", id, targetColumn)
		}
		if err := lockColumnScopes(tx, moved.ColumnID, targetColumn); err != nil {
			return err
		}

		sourceN, err := countTasks(tx, moved.ColumnID)
		if err != nil {
			return err
		}
		removeSpan, err := board.RemoveAt(sourceN, moved.Position)
		if err != nil {
			return err
		}

		targetN, err := countTasks(tx, targetColumn)
		if err != nil {
			return err
		}
		pos, insertSpan, err := board.InsertAt(targetN, target)
		if err != nil {
			return err
		}

		if err := shiftTasks(tx, moved.ColumnID, removeSpan); err != nil {
			return err
		}
		if err := shiftTasks(tx, targetColumn, insertSpan); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"column_id": targetColumn,
			"position":  pos,
		}
		if markArchived != nil {
			updates["archived"] = *markArchived
		}
		if err := tx.Model(&Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return faults.Transient(err, "move task across columns")
		}
		moved.ColumnID = targetColumn
		moved.Position = pos
		if markArchived != nil {
			moved.Archived = *markArchived
		}
		return r.appendEntry(tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &moved, nil
}

// Remove hard-deletes the task and closes the gap it leaves. The audit trail
// keeps the task's prior entries; the final entry records the deletion.
func (r *repository) Remove(ctx context.Context, id uuid.UUID, entry *history.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t Task
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return faults.NotFound("task %s not found", id)
			}
			return faults.Transient(err, "find task")
		}
		if err := lockColumnScope(tx, t.ColumnID); err != nil {
			return err
		}
		n, err := countTasks(tx, t.ColumnID)
		if err != nil {
			return err
		}
		span, err := board.RemoveAt(n, t.Position)
		if err != nil {
			return err
		}
		if err := tx.Delete(&Task{}, "id = ?", id).Error; err != nil {
			return faults.Transient(err, "delete task")
		}
		if err := shiftTasks(tx, t.ColumnID, span); err != nil {
			return err
		}
		return r.appendEntry(tx, entry)
	})
}
