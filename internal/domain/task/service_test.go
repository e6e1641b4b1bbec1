package task

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/column"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/history"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/policy"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/project"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/user"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/connection"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

type fixture struct {
	db       *connection.Database
	projects project.Service
	tasks    Service
	owner    uuid.UUID
	project  *project.Project
	columns  []column.Column
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
		&column.Column{}, &Task{}, &history.Entry{},
	))

	wrapped := connection.NewFromGorm(db)
	projects := project.NewService(project.NewRepository(wrapped), []string{"To Do", "Done"}, zap.NewNop())
	historyRepo := history.NewRepository(wrapped)
	columnRepo := column.NewRepository(wrapped)
	tasks := NewService(
		NewRepository(wrapped, historyRepo),
		columnRepo,
		historyRepo,
		projects,
		nil,
		"Archived",
		zap.NewNop(),
	)

	owner := uuid.New()
	p, err := projects.CreateProject(context.Background(), project.CreateProjectInput{
		Name:    "Digitization",
		OwnerID: owner,
	})
	require.NoError(t, err)
	cols, err := columnRepo.ListByProject(context.Background(), p.ID, false)
	require.NoError(t, err)

	return &fixture{
		db:       wrapped,
		projects: projects,
		tasks:    tasks,
		owner:    owner,
		project:  p,
		columns:  cols,
	}
}

func (f *fixture) create(t *testing.T, columnID uuid.UUID, title string) *Task {
	t.Helper()
	created, err := f.tasks.CreateTask(context.Background(), f.owner, CreateTaskInput{
		ProjectID: f.project.ID,
		ColumnID:  columnID,
		Title:     title,
	})
	require.NoError(t, err)
	return created
}

// titlesByPosition asserts positions in the column are exactly 1..N and
// returns the titles in order.
func (f *fixture) titlesByPosition(t *testing.T, columnID uuid.UUID) []string {
	t.Helper()
	list, err := f.tasks.ListTasks(context.Background(), f.owner, f.project.ID, TaskFilter{ColumnID: &columnID})
	require.NoError(t, err)
	titles := make([]string, 0, len(list))
	for i, item := range list {
		assert.Equal(t, i+1, item.Position, "task listing must be dense and ordered")
		titles = append(titles, item.Title)
	}
	return titles
}

func TestCreateTaskAppendsAndInserts(t *testing.T) {
	f := setup(t)
	col := f.columns[0].ID

	f.create(t, col, "first")
	f.create(t, col, "second")

	inserted, err := f.tasks.CreateTask(context.Background(), f.owner, CreateTaskInput{
		ProjectID: f.project.ID,
		ColumnID:  col,
		Title:     "wedged",
		Position:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted.Position)
	assert.Equal(t, []string{"first", "wedged", "second"}, f.titlesByPosition(t, col))
}

func TestCreateTaskOutOfRange(t *testing.T) {
	f := setup(t)
	col := f.columns[0].ID
	f.create(t, col, "only")

	_, err := f.tasks.CreateTask(context.Background(), f.owner, CreateTaskInput{
		ProjectID: f.project.ID,
		ColumnID:  col,
		Title:     "too far",
		Position:  3,
	})
	require.Error(t, err)
	assert.True(t, faults.IsOutOfRange(err))
	assert.Equal(t, []string{"only"}, f.titlesByPosition(t, col))
}

func TestCreateTaskRejectsForeignColumn(t *testing.T) {
	f := setup(t)
	other, err := f.projects.CreateProject(context.Background(), project.CreateProjectInput{
		Name:    "Other",
		OwnerID: f.owner,
	})
	require.NoError(t, err)
	otherCols, err := column.NewRepository(f.db).ListByProject(context.Background(), other.ID, false)
	require.NoError(t, err)

	_, err = f.tasks.CreateTask(context.Background(), f.owner, CreateTaskInput{
		ProjectID: f.project.ID,
		ColumnID:  otherCols[0].ID,
		Title:     "stray",
	})
	require.Error(t, err)
	assert.True(t, faults.IsNotFound(err))
}

func TestCreateTaskRejectsNonMemberAssignee(t *testing.T) {
	f := setup(t)
	stranger := uuid.New()

	_, err := f.tasks.CreateTask(context.Background(), f.owner, CreateTaskInput{
		ProjectID:  f.project.ID,
		ColumnID:   f.columns[0].ID,
		Title:      "unassignable",
		AssigneeID: &stranger,
	})
	require.Error(t, err)
	assert.True(t, faults.IsConflict(err))
	assert.Empty(t, f.titlesByPosition(t, f.columns[0].ID))
}

func TestMoveTaskWithinColumn(t *testing.T) {
	f := setup(t)
	col := f.columns[0].ID
	a := f.create(t, col, "a")
	f.create(t, col, "b")
	f.create(t, col, "c")

	moved, err := f.tasks.MoveTask(context.Background(), f.owner, a.ID, MoveTaskInput{Position: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, moved.Position)
	assert.Equal(t, []string{"b", "c", "a"}, f.titlesByPosition(t, col))

	// Moving back.
	_, err = f.tasks.MoveTask(context.Background(), f.owner, a.ID, MoveTaskInput{Position: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, f.titlesByPosition(t, col))
}

func TestMoveTaskOmittedPositionAppends(t *testing.T) {
	f := setup(t)
	col := f.columns[0].ID
	a := f.create(t, col, "a")
	f.create(t, col, "b")
	f.create(t, col, "c")
	ctx := context.Background()

	moved, err := f.tasks.MoveTask(ctx, f.owner, a.ID, MoveTaskInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, moved.Position)
	assert.Equal(t, []string{"b", "c", "a"}, f.titlesByPosition(t, col))

	entries, _, err := f.tasks.GetHistory(ctx, f.owner, a.ID, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, history.ActionMoved, entries[0].Action)
	assert.Equal(t, "moved to position 3", entries[0].Description)
}

func TestMoveTaskAcrossColumns(t *testing.T) {
	f := setup(t)
	source, target := f.columns[0].ID, f.columns[1].ID
	f.create(t, source, "a")
	b := f.create(t, source, "b")
	f.create(t, source, "c")
	f.create(t, target, "x")

	moved, err := f.tasks.MoveTask(context.Background(), f.owner, b.ID, MoveTaskInput{
		ColumnID: target,
		Position: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, target, moved.ColumnID)
	assert.Equal(t, 1, moved.Position)

	assert.Equal(t, []string{"a", "c"}, f.titlesByPosition(t, source))
	assert.Equal(t, []string{"b", "x"}, f.titlesByPosition(t, target))

	entries, _, err := f.tasks.GetHistory(context.Background(), f.owner, b.ID, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, history.ActionMoved, entries[0].Action)
	assert.Contains(t, entries[0].Description, `"To Do"`)
	assert.Contains(t, entries[0].Description, `"Done"`)
}

func TestMoveTaskAcrossOutOfRangeLeavesBothColumnsUntouched(t *testing.T) {
	f := setup(t)
	source, target := f.columns[0].ID, f.columns[1].ID
	a := f.create(t, source, "a")
	f.create(t, source, "b")
	f.create(t, target, "x")

	_, err := f.tasks.MoveTask(context.Background(), f.owner, a.ID, MoveTaskInput{
		ColumnID: target,
		Position: 5,
	})
	require.Error(t, err)
	assert.True(t, faults.IsOutOfRange(err))

	assert.Equal(t, []string{"a", "b"}, f.titlesByPosition(t, source))
	assert.Equal(t, []string{"x"}, f.titlesByPosition(t, target))
}

func TestUpdateTaskRecordsPerFieldHistory(t *testing.T) {
	f := setup(t)
	col := f.columns[0].ID
	created := f.create(t, col, "draft")
	ctx := context.Background()

	title := "final"
	priority := TaskPriorityHigh
	due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	assignee := uuid.New()
	_, err := f.projects.AddMember(ctx, f.owner, f.project.ID, assignee, policy.RoleEditor)
	require.NoError(t, err)
	updated, err := f.tasks.UpdateTask(ctx, f.owner, created.ID, UpdateTaskInput{
		Title:      &title,
		Priority:   &priority,
		DueDate:    &due,
		AssigneeID: &assignee,
		Tags:       &TagList{"urgent"},
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, TaskPriorityHigh, updated.Priority)

	entries, total, err := f.tasks.GetHistory(ctx, f.owner, created.ID, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 6, total) // created + five field changes

	actions := make(map[history.Action]int, len(entries))
	for _, e := range entries {
		actions[e.Action]++
	}
	assert.Equal(t, map[history.Action]int{
		history.ActionCreated:         1,
		history.ActionTitleChanged:    1,
		history.ActionPriorityChanged: 1,
		history.ActionDueDateChanged:  1,
		history.ActionAssigned:        1,
		history.ActionTagAdded:        1,
	}, actions)

	// A no-change update appends nothing.
	_, err = f.tasks.UpdateTask(ctx, f.owner, created.ID, UpdateTaskInput{Title: &title})
	require.NoError(t, err)
	_, total, err = f.tasks.GetHistory(ctx, f.owner, created.ID, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
}

func TestDuplicateTask(t *testing.T) {
	f := setup(t)
	col := f.columns[0].ID
	original, err := f.tasks.CreateTask(context.Background(), f.owner, CreateTaskInput{
		ProjectID: f.project.ID,
		ColumnID:  col,
		Title:     "Index folder",
		Tags:      TagList{"paper"},
	})
	require.NoError(t, err)
	f.create(t, col, "tail")

	copied, err := f.tasks.DuplicateTask(context.Background(), f.owner, original.ID)
	require.NoError(t, err)
	assert.Equal(t, "Index folder (copy)", copied.Title)
	assert.Equal(t, 3, copied.Position)
	assert.Equal(t, TagList{"paper"}, copied.Tags)
	assert.Equal(t, []string{"Index folder", "tail", "Index folder (copy)"}, f.titlesByPosition(t, col))

	// The copy starts its own trail.
	entries, total, err := f.tasks.GetHistory(context.Background(), f.owner, copied.ID, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, history.ActionCreated, entries[0].Action)
}

func TestArchiveTask(t *testing.T) {
	f := setup(t)
	col := f.columns[0].ID
	a := f.create(t, col, "a")
	f.create(t, col, "b")
	ctx := context.Background()

	archived, err := f.tasks.ArchiveTask(ctx, f.owner, a.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	assert.Equal(t, 1, archived.Position)

	archiveCol, err := column.NewRepository(f.db).FindByID(ctx, archived.ColumnID)
	require.NoError(t, err)
	assert.Equal(t, "Archived", archiveCol.Name)
	assert.False(t, archiveCol.Active)

	// The source column closed the gap.
	assert.Equal(t, []string{"b"}, f.titlesByPosition(t, col))

	_, err = f.tasks.ArchiveTask(ctx, f.owner, a.ID)
	require.Error(t, err)
	assert.True(t, faults.IsConflict(err))

	// A second archive lands in the same column, appended.
	b2, err := f.tasks.ArchiveTask(ctx, f.owner, f.create(t, col, "later").ID)
	require.NoError(t, err)
	assert.Equal(t, archiveCol.ID, b2.ColumnID)
	assert.Equal(t, 2, b2.Position)
}

func TestDeleteTaskPermissions(t *testing.T) {
	f := setup(t)
	col := f.columns[0].ID
	ctx := context.Background()

	editorID := uuid.New()
	_, err := f.projects.AddMember(ctx, f.owner, f.project.ID, editorID, policy.RoleEditor)
	require.NoError(t, err)
	viewerID := uuid.New()
	_, err = f.projects.AddMember(ctx, f.owner, f.project.ID, viewerID, policy.RoleViewer)
	require.NoError(t, err)

	mine, err := f.tasks.CreateTask(ctx, editorID, CreateTaskInput{
		ProjectID: f.project.ID,
		ColumnID:  col,
		Title:     "mine",
	})
	require.NoError(t, err)
	other := f.create(t, col, "other")

	// Editors cannot delete tasks they did not create.
	err = f.tasks.DeleteTask(ctx, editorID, other.ID)
	assert.True(t, faults.IsForbidden(err))
	err = f.tasks.DeleteTask(ctx, viewerID, other.ID)
	assert.True(t, faults.IsForbidden(err))

	// Creators may delete their own, admins anything.
	require.NoError(t, f.tasks.DeleteTask(ctx, editorID, mine.ID))
	require.NoError(t, f.tasks.DeleteTask(ctx, f.owner, other.ID))
	assert.Empty(t, f.titlesByPosition(t, col))

	// The trail survives the delete, ending with the deletion record.
	entries, _, err := history.NewRepository(f.db).ListByTask(ctx, other.ID, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, history.ActionDeleted, entries[0].Action)
}

func TestMutationsBlockedOnInactiveProject(t *testing.T) {
	f := setup(t)
	col := f.columns[0].ID
	created := f.create(t, col, "frozen")
	ctx := context.Background()

	status := project.ProjectStatusReadOnly
	_, err := f.projects.UpdateProject(ctx, f.owner, f.project.ID, project.UpdateProjectInput{Status: &status})
	require.NoError(t, err)

	_, err = f.tasks.CreateTask(ctx, f.owner, CreateTaskInput{
		ProjectID: f.project.ID,
		ColumnID:  col,
		Title:     "blocked",
	})
	assert.True(t, faults.IsConflict(err))

	_, err = f.tasks.MoveTask(ctx, f.owner, created.ID, MoveTaskInput{Position: 1, ColumnID: f.columns[1].ID})
	assert.True(t, faults.IsConflict(err))

	err = f.tasks.DeleteTask(ctx, f.owner, created.ID)
	assert.True(t, faults.IsConflict(err))

	// Reads still work.
	_, err = f.tasks.GetTask(ctx, f.owner, created.ID)
	require.NoError(t, err)
}

func TestListTasksFilters(t *testing.T) {
	f := setup(t)
	col := f.columns[0].ID
	ctx := context.Background()

	assignee := uuid.New()
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	_, err := f.projects.AddMember(ctx, f.owner, f.project.ID, assignee, policy.RoleViewer)
	require.NoError(t, err)
	_, err = f.tasks.CreateTask(ctx, f.owner, CreateTaskInput{
		ProjectID:  f.project.ID,
		ColumnID:   col,
		Title:      "Scan box 4",
		Priority:   TaskPriorityHigh,
		Tags:       TagList{"scanner"},
		AssigneeID: &assignee,
		DueDate:    &due,
	})
	require.NoError(t, err)
	f.create(t, col, "Label shelves")

	high := TaskPriorityHigh
	list, err := f.tasks.ListTasks(ctx, f.owner, f.project.ID, TaskFilter{Priority: &high})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Scan box 4", list[0].Title)

	list, err = f.tasks.ListTasks(ctx, f.owner, f.project.ID, TaskFilter{Tag: "scanner"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = f.tasks.ListTasks(ctx, f.owner, f.project.ID, TaskFilter{AssigneeID: &assignee})
	require.NoError(t, err)
	require.Len(t, list, 1)

	cutoff := due.AddDate(0, 0, -1)
	list, err = f.tasks.ListTasks(ctx, f.owner, f.project.ID, TaskFilter{DueBefore: &cutoff})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.tasks.ListTasks(ctx, f.owner, f.project.ID, TaskFilter{Search: "shelves"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Label shelves", list[0].Title)
}
