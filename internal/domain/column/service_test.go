package column_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/board"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/column"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/history"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/policy"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/project"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/task"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/user"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/connection"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

var defaultColumns = []string{"To Do", "In Progress", "Done"}

type fixture struct {
	db       *connection.Database
	projects project.Service
	columns  column.Service
	owner    uuid.UUID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&user.User{}, &project.Project{}, &project.Member{},
		&column.Column{}, &task.Task{}, &history.Entry{},
	))

	wrapped := connection.NewFromGorm(db)
	projects := project.NewService(project.NewRepository(wrapped), defaultColumns, zap.NewNop())
	columns := column.NewService(column.NewRepository(wrapped), projects, nil, 0, zap.NewNop())
	return &fixture{db: wrapped, projects: projects, columns: columns, owner: uuid.New()}
}

func (f *fixture) newProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := f.projects.CreateProject(context.Background(), project.CreateProjectInput{
		Name:    "Board",
		OwnerID: f.owner,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) addMember(t *testing.T, projectID uuid.UUID, role policy.Role) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	_, err := f.projects.AddMember(context.Background(), f.owner, projectID, userID, role)
	require.NoError(t, err)
	return userID
}

func (f *fixture) positions(t *testing.T, projectID uuid.UUID) map[string]int {
	t.Helper()
	cols, err := f.columns.ListColumns(context.Background(), f.owner, projectID)
	require.NoError(t, err)
	out := make(map[string]int, len(cols))
	for i, c := range cols {
		assert.Equal(t, i+1, c.Position, "column listing must be dense and ordered")
		out[c.Name] = c.Position
	}
	return out
}

func TestCreateProjectSeedsDefaultColumns(t *testing.T) {
	f := setup(t)
	p := f.newProject(t)

	got := f.positions(t, p.ID)
	assert.Equal(t, map[string]int{"To Do": 1, "In Progress": 2, "Done": 3}, got)
}

func TestCreateColumnAppendsAndInserts(t *testing.T) {
	f := setup(t)
	p := f.newProject(t)
	ctx := context.Background()

	appended, err := f.columns.CreateColumn(ctx, f.owner, column.CreateColumnInput{
		ProjectID: p.ID,
		Name:      "Review",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, appended.Position)

	inserted, err := f.columns.CreateColumn(ctx, f.owner, column.CreateColumnInput{
		ProjectID: p.ID,
		Name:      "Triage",
		Position:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted.Position)

	got := f.positions(t, p.ID)
	assert.Equal(t, map[string]int{
		"Triage": 1, "To Do": 2, "In Progress": 3, "Done": 4, "Review": 5,
	}, got)
}

func TestCreateColumnOutOfRange(t *testing.T) {
	f := setup(t)
	p := f.newProject(t)

	_, err := f.columns.CreateColumn(context.Background(), f.owner, column.CreateColumnInput{
		ProjectID: p.ID,
		Name:      "Nowhere",
		Position:  9,
	})
	require.Error(t, err)
	assert.True(t, faults.IsOutOfRange(err))

	f.positions(t, p.ID)
}

func TestMoveColumn(t *testing.T) {
	f := setup(t)
	p := f.newProject(t)
	ctx := context.Background()

	cols, err := f.columns.ListColumns(ctx, f.owner, p.ID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		column  uuid.UUID
		target  int
		wantPos int
		want    map[string]int
	}{
		{
			name:    "forward",
			column:  cols[0].ID, // To Do
			target:  3,
			wantPos: 3,
			want:    map[string]int{"In Progress": 1, "Done": 2, "To Do": 3},
		},
		{
			name:    "backward",
			column:  cols[0].ID, // To Do, now at 3
			target:  1,
			wantPos: 1,
			want:    map[string]int{"To Do": 1, "In Progress": 2, "Done": 3},
		},
		{
			name:    "no-op",
			column:  cols[0].ID,
			target:  1,
			wantPos: 1,
			want:    map[string]int{"To Do": 1, "In Progress": 2, "Done": 3},
		},
		{
			name:    "omitted target appends",
			column:  cols[0].ID,
			target:  board.Append,
			wantPos: 3,
			want:    map[string]int{"In Progress": 1, "Done": 2, "To Do": 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moved, err := f.columns.MoveColumn(ctx, f.owner, tt.column, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPos, moved.Position)
			assert.Equal(t, tt.want, f.positions(t, p.ID))
		})
	}
}

func TestMoveColumnOutOfRange(t *testing.T) {
	f := setup(t)
	p := f.newProject(t)
	ctx := context.Background()

	cols, err := f.columns.ListColumns(ctx, f.owner, p.ID)
	require.NoError(t, err)

	_, err = f.columns.MoveColumn(ctx, f.owner, cols[0].ID, 4)
	require.Error(t, err)
	assert.True(t, faults.IsOutOfRange(err))

	assert.Equal(t, map[string]int{"To Do": 1, "In Progress": 2, "Done": 3}, f.positions(t, p.ID))
}

func TestDeleteColumnClosesGap(t *testing.T) {
	f := setup(t)
	p := f.newProject(t)
	ctx := context.Background()

	cols, err := f.columns.ListColumns(ctx, f.owner, p.ID)
	require.NoError(t, err)

	require.NoError(t, f.columns.DeleteColumn(ctx, f.owner, cols[1].ID))
	assert.Equal(t, map[string]int{"To Do": 1, "Done": 2}, f.positions(t, p.ID))
}

func TestDeleteColumnWithTasksConflicts(t *testing.T) {
	f := setup(t)
	p := f.newProject(t)
	ctx := context.Background()

	cols, err := f.columns.ListColumns(ctx, f.owner, p.ID)
	require.NoError(t, err)

	// A task parked in the column blocks deletion.
	require.NoError(t, f.db.Create(&task.Task{
		ProjectID: p.ID,
		ColumnID:  cols[0].ID,
		Position:  1,
		Title:     "Scan box 12",
		CreatorID: f.owner,
	}).Error)

	err = f.columns.DeleteColumn(ctx, f.owner, cols[0].ID)
	require.Error(t, err)
	assert.True(t, faults.IsConflict(err))
	f.positions(t, p.ID)

	// Once the column is empty the same delete goes through.
	require.NoError(t, f.db.Where("column_id = ?", cols[0].ID).Delete(&task.Task{}).Error)
	require.NoError(t, f.columns.DeleteColumn(ctx, f.owner, cols[0].ID))
	assert.Equal(t, map[string]int{"In Progress": 1, "Done": 2}, f.positions(t, p.ID))
}

func TestColumnCapabilities(t *testing.T) {
	f := setup(t)
	p := f.newProject(t)
	ctx := context.Background()
	viewer := f.addMember(t, p.ID, policy.RoleViewer)
	editor := f.addMember(t, p.ID, policy.RoleEditor)

	_, err := f.columns.CreateColumn(ctx, viewer, column.CreateColumnInput{ProjectID: p.ID, Name: "Blocked"})
	assert.True(t, faults.IsForbidden(err))

	created, err := f.columns.CreateColumn(ctx, editor, column.CreateColumnInput{ProjectID: p.ID, Name: "Review"})
	require.NoError(t, err)

	// Deleting columns is an admin capability.
	err = f.columns.DeleteColumn(ctx, editor, created.ID)
	assert.True(t, faults.IsForbidden(err))
	require.NoError(t, f.columns.DeleteColumn(ctx, f.owner, created.ID))
}

func TestListColumnsRequiresMembership(t *testing.T) {
	f := setup(t)
	p := f.newProject(t)

	_, err := f.columns.ListColumns(context.Background(), uuid.New(), p.ID)
	require.Error(t, err)
	assert.True(t, faults.IsNotFound(err), "non-members must not learn the project exists")
}

func TestEnsureInactiveIsIdempotent(t *testing.T) {
	f := setup(t)
	p := f.newProject(t)
	ctx := context.Background()
	repo := column.NewRepository(f.db)

	first, err := repo.EnsureInactive(ctx, p.ID, "Archived")
	require.NoError(t, err)
	assert.False(t, first.Active)
	assert.Equal(t, 4, first.Position)

	second, err := repo.EnsureInactive(ctx, p.ID, "Archived")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Inactive columns stay out of the default listing.
	_, ok := f.positions(t, p.ID)["Archived"]
	assert.False(t, ok)
}
