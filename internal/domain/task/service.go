package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/board"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/column"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/events"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/history"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/policy"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/cache"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/observability"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// AccessResolver answers membership, capability and project-state questions.
// Implemented by the project service.
type AccessResolver interface {
	Capabilities(ctx context.Context, projectID, actorID uuid.UUID) (policy.CapabilitySet, error)
	AssertMember(ctx context.Context, projectID, userID uuid.UUID) error
	Mutable(ctx context.Context, projectID uuid.UUID) (bool, error)
}

// Service exposes task operations to the transport layer.
type Service interface {
	CreateTask(ctx context.Context, actorID uuid.UUID, input CreateTaskInput) (*Task, error)
	ListTasks(ctx context.Context, actorID, projectID uuid.UUID, filter TaskFilter) ([]Task, error)
	GetTask(ctx context.Context, actorID, id uuid.UUID) (*Task, error)
	UpdateTask(ctx context.Context, actorID, id uuid.UUID, input UpdateTaskInput) (*Task, error)
	MoveTask(ctx context.Context, actorID, id uuid.UUID, input MoveTaskInput) (*Task, error)
	DuplicateTask(ctx context.Context, actorID, id uuid.UUID) (*Task, error)
	ArchiveTask(ctx context.Context, actorID, id uuid.UUID) (*Task, error)
	DeleteTask(ctx context.Context, actorID, id uuid.UUID) error
	GetHistory(ctx context.Context, actorID, id uuid.UUID, page, pageSize int) ([]history.Entry, int64, error)
}

type service struct {
	repo          Repository
	columns       column.Repository
	historyRepo   history.Repository
	access        AccessResolver
	redis         *cache.RedisClient
	archiveColumn string
	logger        *zap.Logger
}

// NewService creates a new task service. redis may be nil, in which case
// event publishing is disabled. archiveColumn names the lazily created
// column archived tasks move into.
func NewService(repo Repository, columns column.Repository, historyRepo history.Repository, access AccessResolver, redis *cache.RedisClient, archiveColumn string, logger *zap.Logger) Service {
	return &service{
		repo:          repo,
		columns:       columns,
		historyRepo:   historyRepo,
		access:        access,
		redis:         redis,
		archiveColumn: archiveColumn,
		logger:        logger,
	}
}

func (s *service) requireMutable(ctx context.Context, projectID uuid.UUID) error {
	mutable, err := s.access.Mutable(ctx, projectID)
	if err != nil {
		return err
	}
	if !mutable {
		return faults.Conflict("project %s is not active", projectID)
	}
	return nil
}

func (s *service) require(ctx context.Context, projectID, actorID uuid.UUID, cap policy.Capability) error {
	caps, err := s.access.Capabilities(ctx, projectID, actorID)
	if err != nil {
		return err
	}
	if err := policy.Require(caps, cap); err != nil {
		observability.RecordFailure("task", "forbidden")
		return err
	}
	return nil
}

func (s *service) CreateTask(ctx context.Context, actorID uuid.UUID, input CreateTaskInput) (*Task, error) {
	if input.Title == "" {
		return nil, faults.Conflict("task title is required")
	}
	if input.Priority != "" && !input.Priority.IsValid() {
		return nil, faults.Conflict("unknown task priority %q", input.Priority)
	}
	if err := s.require(ctx, input.ProjectID, actorID, policy.CapCreateTask); err != nil {
		return nil, err
	}
	if err := s.requireMutable(ctx, input.ProjectID); err != nil {
		return nil, err
	}

	col, err := s.columns.FindByID(ctx, input.ColumnID)
	if err != nil {
		return nil, err
	}
	if col.ProjectID != input.ProjectID {
		return nil, faults.NotFound("column %s not found", input.ColumnID)
	}
	if input.AssigneeID != nil {
		if err := s.access.AssertMember(ctx, input.ProjectID, *input.AssigneeID); err != nil {
			return nil, faults.Conflict("assignee %s is not a project member", *input.AssigneeID)
		}
	}

	t := &Task{
		ProjectID:   input.ProjectID,
		ColumnID:    input.ColumnID,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Tags:        input.Tags,
		CreatorID:   actorID,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
	}
	entry := &history.Entry{
		ActorID:     actorID,
		Action:      history.ActionCreated,
		Description: fmt.Sprintf("created in %q", col.Name),
		Snapshot:    history.Snapshot(map[string]interface{}{"after": t}),
	}
	if err := s.repo.Create(ctx, t, input.Position, entry); err != nil {
		observability.RecordFailure("task", faults.KindOf(err).String())
		return nil, err
	}

	observability.RecordMutation("task", "create")
	observability.RecordHistoryEntry()
	s.publish(ctx, events.BoardEventTaskCreated, t, actorID, nil)
	s.logger.Info("task created",
		zap.String("task_id", t.ID.String()),
		zap.String("project_id", t.ProjectID.String()),
		zap.String("column_id", t.ColumnID.String()),
		zap.Int("position", t.Position))
	return t, nil
}

func (s *service) ListTasks(ctx context.Context, actorID, projectID uuid.UUID, filter TaskFilter) ([]Task, error) {
	if err := s.access.AssertMember(ctx, projectID, actorID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, projectID, filter)
}

func (s *service) GetTask(ctx context.Context, actorID, id uuid.UUID) (*Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.AssertMember(ctx, t.ProjectID, actorID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) UpdateTask(ctx context.Context, actorID, id uuid.UUID, input UpdateTaskInput) (*Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(ctx, t.ProjectID, actorID, policy.CapEditTask); err != nil {
		return nil, err
	}
	if err := s.requireMutable(ctx, t.ProjectID); err != nil {
		return nil, err
	}
	if input.AssigneeID != nil {
		if err := s.access.AssertMember(ctx, t.ProjectID, *input.AssigneeID); err != nil {
			return nil, faults.Conflict("assignee %s is not a project member", *input.AssigneeID)
		}
	}

	entries := s.applyUpdate(t, actorID, input)
	if len(entries) == 0 {
		return t, nil
	}
	if err := s.repo.Update(ctx, t, entries); err != nil {
		observability.RecordFailure("task", faults.KindOf(err).String())
		return nil, err
	}

	observability.RecordMutation("task", "update")
	for range entries {
		observability.RecordHistoryEntry()
	}
	s.publish(ctx, events.BoardEventTaskUpdated, t, actorID, nil)
	return t, nil
}

// applyUpdate mutates the task in place and returns one history entry per
// field that actually changed.
func (s *service) applyUpdate(t *Task, actorID uuid.UUID, input UpdateTaskInput) []*history.Entry {
	var entries []*history.Entry
	record := func(action history.Action, description string, before, after interface{}) {
		entries = append(entries, &history.Entry{
			TaskID:      t.ID,
			ActorID:     actorID,
			Action:      action,
			Description: description,
			Snapshot:    history.Snapshot(map[string]interface{}{"before": before, "after": after}),
		})
	}

	if input.Title != nil && *input.Title != t.Title && *input.Title != "" {
		record(history.ActionTitleChanged, fmt.Sprintf("title changed to %q", *input.Title), t.Title, *input.Title)
		t.Title = *input.Title
	}
	if input.Description != nil && *input.Description != t.Description {
		record(history.ActionDescriptionChanged, "description changed", t.Description, *input.Description)
		t.Description = *input.Description
	}
	if input.Priority != nil && input.Priority.IsValid() && *input.Priority != t.Priority {
		record(history.ActionPriorityChanged, fmt.Sprintf("priority changed to %s", *input.Priority), t.Priority, *input.Priority)
		t.Priority = *input.Priority
	}
	if input.Tags != nil {
		added, removed := diffTags(t.Tags, *input.Tags)
		for _, tag := range added {
			record(history.ActionTagAdded, fmt.Sprintf("tag %q added", tag), nil, tag)
		}
		for _, tag := range removed {
			record(history.ActionTagRemoved, fmt.Sprintf("tag %q removed", tag), tag, nil)
		}
		if len(added) > 0 || len(removed) > 0 {
			t.Tags = *input.Tags
		}
	}
	if input.ClearAssignee {
		if t.AssigneeID != nil {
			record(history.ActionAssigned, "assignee cleared", t.AssigneeID, nil)
			t.AssigneeID = nil
		}
	} else if input.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *input.AssigneeID) {
		record(history.ActionAssigned, fmt.Sprintf("assigned to %s", *input.AssigneeID), t.AssigneeID, *input.AssigneeID)
		t.AssigneeID = input.AssigneeID
	}
	if input.ClearDueDate {
		if t.DueDate != nil {
			record(history.ActionDueDateChanged, "due date cleared", t.DueDate, nil)
			t.DueDate = nil
		}
	} else if input.DueDate != nil && (t.DueDate == nil || !t.DueDate.Equal(*input.DueDate)) {
		record(history.ActionDueDateChanged, fmt.Sprintf("due %s", input.DueDate.Format("2006-01-02")), t.DueDate, *input.DueDate)
		t.DueDate = input.DueDate
	}
	return entries
}

func diffTags(before, after TagList) (added, removed []string) {
	had := make(map[string]bool, len(before))
	for _, tag := range before {
		had[tag] = true
	}
	has := make(map[string]bool, len(after))
	for _, tag := range after {
		has[tag] = true
		if !had[tag] {
			added = append(added, tag)
		}
	}
	for _, tag := range before {
		if !has[tag] {
			removed = append(removed, tag)
		}
	}
	return added, removed
}

func (s *service) MoveTask(ctx context.Context, actorID, id uuid.UUID, input MoveTaskInput) (*Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(ctx, t.ProjectID, actorID, policy.CapEditTask); err != nil {
		return nil, err
	}
	if err := s.requireMutable(ctx, t.ProjectID); err != nil {
		return nil, err
	}

	targetColumn := input.ColumnID
	if targetColumn == uuid.Nil {
		targetColumn = t.ColumnID
	}
	from := t.Position

	var moved *Task
	if targetColumn == t.ColumnID {
		entry := &history.Entry{
			TaskID:      t.ID,
			ActorID:     actorID,
			Action:      history.ActionMoved,
			Description: fmt.Sprintf("moved to position %d", input.Position),
			Snapshot: history.Snapshot(map[string]interface{}{
				"before": map[string]interface{}{"column_id": t.ColumnID, "position": t.Position},
				"after":  map[string]interface{}{"column_id": t.ColumnID, "position": input.Position},
			}),
		}
		moved, err = s.repo.MoveWithin(ctx, id, input.Position, entry)
	} else {
		moved, err = s.moveAcross(ctx, actorID, t, targetColumn, input.Position, nil)
	}
	if err != nil {
		observability.RecordFailure("task", faults.KindOf(err).String())
		return nil, err
	}

	shifted := moved.Position - from
	if shifted < 0 {
		shifted = -shifted
	}
	observability.RecordMutation("task", "move")
	observability.RecordRenumberSpan("task", shifted)
	observability.RecordHistoryEntry()
	s.publish(ctx, events.BoardEventTaskMoved, moved, actorID, map[string]interface{}{
		"column_id": moved.ColumnID,
		"position":  moved.Position,
	})
	return moved, nil
}

func (s *service) moveAcross(ctx context.Context, actorID uuid.UUID, t *Task, targetColumn uuid.UUID, target int, markArchived *bool) (*Task, error) {
	source, err := s.columns.FindByID(ctx, t.ColumnID)
	if err != nil {
		return nil, err
	}
	dest, err := s.columns.FindByID(ctx, targetColumn)
	if err != nil {
		return nil, err
	}
	if dest.ProjectID != t.ProjectID {
		return nil, faults.NotFound("column %s not found", targetColumn)
	}

	entry := &history.Entry{
		TaskID:      t.ID,
		ActorID:     actorID,
		Action:      history.ActionMoved,
		Description: fmt.Sprintf("moved from %q to %q", source.Name, dest.Name),
		Snapshot: history.Snapshot(map[string]interface{}{
			"before": map[string]interface{}{"column_id": t.ColumnID, "position": t.Position},
			"after":  map[string]interface{}{"column_id": targetColumn, "position": target},
		}),
	}
	return s.repo.MoveAcross(ctx, t.ID, targetColumn, target, markArchived, entry)
}

func (s *service) DuplicateTask(ctx context.Context, actorID, id uuid.UUID) (*Task, error) {
	original, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(ctx, original.ProjectID, actorID, policy.CapCreateTask); err != nil {
		return nil, err
	}
	if err := s.requireMutable(ctx, original.ProjectID); err != nil {
		return nil, err
	}

	copied := &Task{
		ProjectID:   original.ProjectID,
		ColumnID:    original.ColumnID,
		Title:       original.Title + " (copy)",
		Description: original.Description,
		Priority:    original.Priority,
		Tags:        append(TagList{}, original.Tags...),
		CreatorID:   actorID,
		AssigneeID:  original.AssigneeID,
		DueDate:     original.DueDate,
	}
	entry := &history.Entry{
		ActorID:     actorID,
		Action:      history.ActionCreated,
		Description: fmt.Sprintf("duplicated from %q", original.Title),
		Snapshot:    history.Snapshot(map[string]interface{}{"source_task_id": original.ID}),
	}
	// The copy goes to the end of the column.
	if err := s.repo.Create(ctx, copied, board.Append, entry); err != nil {
		observability.RecordFailure("task", faults.KindOf(err).String())
		return nil, err
	}

	observability.RecordMutation("task", "duplicate")
	observability.RecordHistoryEntry()
	s.publish(ctx, events.BoardEventTaskCreated, copied, actorID, map[string]interface{}{
		"source_task_id": original.ID,
	})
	return copied, nil
}

func (s *service) ArchiveTask(ctx context.Context, actorID, id uuid.UUID) (*Task, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(ctx, t.ProjectID, actorID, policy.CapEditTask); err != nil {
		return nil, err
	}
	if err := s.requireMutable(ctx, t.ProjectID); err != nil {
		return nil, err
	}
	if t.Archived {
		return nil, faults.Conflict("task %s is already archived", id)
	}

	archive, err := s.columns.EnsureInactive(ctx, t.ProjectID, s.archiveColumn)
	if err != nil {
		return nil, err
	}
	archived := true
	moved, err := s.moveAcross(ctx, actorID, t, archive.ID, 0, &archived)
	if err != nil {
		observability.RecordFailure("task", faults.KindOf(err).String())
		return nil, err
	}

	observability.RecordMutation("task", "archive")
	observability.RecordHistoryEntry()
	s.publish(ctx, events.BoardEventTaskArchived, moved, actorID, nil)
	s.logger.Info("task archived",
		zap.String("task_id", id.String()),
		zap.String("project_id", moved.ProjectID.String()))
	return moved, nil
}

func (s *service) DeleteTask(ctx context.Context, actorID, id uuid.UUID) error {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	caps, err := s.access.Capabilities(ctx, t.ProjectID, actorID)
	if err != nil {
		return err
	}
	// Admins may delete any task, creators their own.
	if !caps.Has(policy.CapDeleteTask) && t.CreatorID != actorID {
		observability.RecordFailure("task", "forbidden")
		return faults.Forbidden("user %s cannot delete task %s", actorID, id)
	}
	if err := s.requireMutable(ctx, t.ProjectID); err != nil {
		return err
	}

	entry := &history.Entry{
		TaskID:      t.ID,
		ActorID:     actorID,
		Action:      history.ActionDeleted,
		Description: fmt.Sprintf("deleted %q", t.Title),
		Snapshot:    history.Snapshot(map[string]interface{}{"before": t}),
	}
	if err := s.repo.Remove(ctx, id, entry); err != nil {
		observability.RecordFailure("task", faults.KindOf(err).String())
		return err
	}

	observability.RecordMutation("task", "delete")
	observability.RecordHistoryEntry()
	s.publish(ctx, events.BoardEventTaskDeleted, t, actorID, nil)
	s.logger.Info("task deleted",
		zap.String("task_id", id.String()),
		zap.String("project_id", t.ProjectID.String()))
	return nil
}

func (s *service) GetHistory(ctx context.Context, actorID, id uuid.UUID, page, pageSize int) ([]history.Entry, int64, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if err := s.access.AssertMember(ctx, t.ProjectID, actorID); err != nil {
		return nil, 0, err
	}
	return s.historyRepo.ListByTask(ctx, id, page, pageSize)
}

func (s *service) publish(ctx context.Context, eventType string, t *Task, actorID uuid.UUID, details interface{}) {
	if s.redis == nil {
		return
	}
	event := &events.BoardEvent{
		EventType: eventType,
		ProjectID: t.ProjectID,
		EntityID:  t.ID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Details:   details,
	}
	if err := s.redis.PublishBoardEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish board event", zap.Error(err))
	}
}
