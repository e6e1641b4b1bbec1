package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/connection"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

func setup(t *testing.T) Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Entry{}))
	return NewRepository(connection.NewFromGorm(db))
}

func TestAppendAndListNewestFirst(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	taskID := uuid.New()
	actorID := uuid.New()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	actions := []Action{ActionCreated, ActionTitleChanged, ActionMoved}
	for i, action := range actions {
		require.NoError(t, repo.Append(ctx, &Entry{
			TaskID:    taskID,
			ActorID:   actorID,
			Action:    action,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	// An entry for another task must not leak in.
	require.NoError(t, repo.Append(ctx, &Entry{
		TaskID:  uuid.New(),
		ActorID: actorID,
		Action:  ActionCreated,
	}))

	entries, total, err := repo.ListByTask(ctx, taskID, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, entries, 3)
	assert.Equal(t, ActionMoved, entries[0].Action)
	assert.Equal(t, ActionTitleChanged, entries[1].Action)
	assert.Equal(t, ActionCreated, entries[2].Action)
}

func TestListByTaskPaging(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	taskID := uuid.New()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, &Entry{
			TaskID:      taskID,
			ActorID:     uuid.New(),
			Action:      ActionCommented,
			Description: fmt.Sprintf("note %d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	page, total, err := repo.ListByTask(ctx, taskID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "note 2", page[0].Description)
	assert.Equal(t, "note 1", page[1].Description)
}

func TestAppendRejectsUnknownAction(t *testing.T) {
	repo := setup(t)
	err := repo.Append(context.Background(), &Entry{
		TaskID:  uuid.New(),
		ActorID: uuid.New(),
		Action:  Action("renamed"),
	})
	require.Error(t, err)
	assert.True(t, faults.IsConflict(err))
}
