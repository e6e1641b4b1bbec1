package comment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/events"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/history"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/policy"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/task"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/cache"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/observability"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// AccessResolver answers membership and capability questions for a project.
// Implemented by the project service.
type AccessResolver interface {
	Capabilities(ctx context.Context, projectID, actorID uuid.UUID) (policy.CapabilitySet, error)
	AssertMember(ctx context.Context, projectID, userID uuid.UUID) error
}

// Service exposes comment operations to the transport layer.
type Service interface {
	CreateComment(ctx context.Context, actorID uuid.UUID, input CreateCommentInput) (*Comment, error)
	ListComments(ctx context.Context, actorID, taskID uuid.UUID) ([]Comment, error)
	UpdateComment(ctx context.Context, actorID, id uuid.UUID, body string) (*Comment, error)
	DeleteComment(ctx context.Context, actorID, id uuid.UUID) error
}

type service struct {
	repo   Repository
	tasks  task.Repository
	access AccessResolver
	redis  *cache.RedisClient
	logger *logrus.Logger
}

// NewService creates a new comment service. redis may be nil.
func NewService(repo Repository, tasks task.Repository, access AccessResolver, redis *cache.RedisClient, logger *logrus.Logger) Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &service{repo: repo, tasks: tasks, access: access, redis: redis, logger: logger}
}

func (s *service) CreateComment(ctx context.Context, actorID uuid.UUID, input CreateCommentInput) (*Comment, error) {
	if input.Body == "" {
		return nil, faults.Conflict("comment body is required")
	}
	t, err := s.tasks.FindByID(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	// Non-members get NotFound, the same as reads.
	if err := s.access.AssertMember(ctx, t.ProjectID, actorID); err != nil {
		return nil, err
	}
	caps, err := s.access.Capabilities(ctx, t.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(caps, policy.CapComment); err != nil {
		observability.RecordFailure("comment", "forbidden")
		return nil, err
	}

	c := &Comment{
		TaskID:   input.TaskID,
		AuthorID: actorID,
		Body:     input.Body,
	}
	entry := &history.Entry{
		TaskID:      t.ID,
		ActorID:     actorID,
		Action:      history.ActionCommented,
		Description: "comment added",
	}
	if err := s.repo.Create(ctx, c, entry); err != nil {
		observability.RecordFailure("comment", faults.KindOf(err).String())
		return nil, err
	}

	observability.RecordMutation("comment", "create")
	observability.RecordHistoryEntry()
	if s.redis != nil {
		event := &events.BoardEvent{
			EventType: events.BoardEventCommentAdded,
			ProjectID: t.ProjectID,
			EntityID:  c.ID,
			ActorID:   actorID,
			Timestamp: time.Now(),
		}
		if err := s.redis.PublishBoardEvent(ctx, event); err != nil {
			s.logger.WithError(err).Warn("failed to publish board event")
		}
	}
	s.logger.WithFields(logrus.Fields{
		"comment_id": c.ID,
		"task_id":    t.ID,
	}).Info("comment created")
	return c, nil
}

func (s *service) ListComments(ctx context.Context, actorID, taskID uuid.UUID) ([]Comment, error) {
	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.access.AssertMember(ctx, t.ProjectID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListByTask(ctx, taskID)
}

func (s *service) UpdateComment(ctx context.Context, actorID, id uuid.UUID, body string) (*Comment, error) {
	if body == "" {
		return nil, faults.Conflict("comment body is required")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != actorID {
		return nil, faults.Forbidden("user %s is not the author of comment %s", actorID, id)
	}

	c.Body = body
	if err := s.repo.Update(ctx, c); err != nil {
		observability.RecordFailure("comment", faults.KindOf(err).String())
		return nil, err
	}
	c.Edited = true
	observability.RecordMutation("comment", "update")
	return c, nil
}

func (s *service) DeleteComment(ctx context.Context, actorID, id uuid.UUID) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != actorID {
		return faults.Forbidden("user %s is not the author of comment %s", actorID, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		observability.RecordFailure("comment", faults.KindOf(err).String())
		return err
	}
	observability.RecordMutation("comment", "delete")
	return nil
}
