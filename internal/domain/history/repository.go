package history

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/connection"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// Repository defines the append-only persistence operations for the task
// audit trail.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	// AppendTx appends inside an already open transaction so the entry
	// commits or rolls back with the structural mutation it records.
	AppendTx(tx *gorm.DB, entry *Entry) error
	ListByTask(ctx context.Context, taskID uuid.UUID, page, pageSize int) ([]Entry, int64, error)
}

type repository struct {
	db *connection.Database
}

func NewRepository(db *connection.Database) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, entry *Entry) error {
	return r.AppendTx(r.db.WithContext(ctx), entry)
}

func (r *repository) AppendTx(tx *gorm.DB, entry *Entry) error {
	if !entry.Action.IsValid() {
		return faults.Conflict("unknown history action %q", entry.Action)
	}
	if err := tx.Create(entry).Error; err != nil {
		return faults.Transient(err, "append history entry")
	}
	return nil
}

// ListByTask returns entries newest-first. A zero pageSize returns the full
// trail.
func (r *repository) ListByTask(ctx context.Context, taskID uuid.UUID, page, pageSize int) ([]Entry, int64, error) {
	var entries []Entry
	var total int64

	query := r.db.WithContext(ctx).Model(&Entry{}).Where("task_id = ?", taskID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, faults.Transient(err, "count history entries")
	}

	query = query.Order("created_at DESC")
	if pageSize > 0 {
		query = query.Offset(page * pageSize).Limit(pageSize)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, faults.Transient(err, "list history entries")
	}
	return entries, total, nil
}

// Snapshot marshals a before/after payload for an entry. Marshal failures
// degrade to an empty object rather than blocking the mutation.
func Snapshot(payload map[string]interface{}) datatypes.JSON {
	b, err := json.Marshal(payload)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}
