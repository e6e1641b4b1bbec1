package column

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/events"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/policy"
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

// Service exposes column operations to the transport layer.
type Service interface {
	CreateColumn(ctx context.Context, actorID uuid.UUID, input CreateColumnInput) (*Column, error)
	ListColumns(ctx context.Context, actorID, projectID uuid.UUID) ([]Column, error)
	UpdateColumn(ctx context.Context, actorID, id uuid.UUID, input UpdateColumnInput) (*Column, error)
	MoveColumn(ctx context.Context, actorID, id uuid.UUID, target int) (*Column, error)
	DeleteColumn(ctx context.Context, actorID, id uuid.UUID) error
}

type service struct {
	repo     Repository
	access   AccessResolver
	redis    *cache.RedisClient
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewService creates a new column service. redis may be nil, in which case
// caching and event publishing are disabled.
func NewService(repo Repository, access AccessResolver, redis *cache.RedisClient, cacheTTL time.Duration, logger *zap.Logger) Service {
	return &service{repo: repo, access: access, redis: redis, cacheTTL: cacheTTL, logger: logger}
}

func (s *service) CreateColumn(ctx context.Context, actorID uuid.UUID, input CreateColumnInput) (*Column, error) {
	if input.Name == "" {
		return nil, faults.Conflict("column name is required")
	}
	caps, err := s.access.Capabilities(ctx, input.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(caps, policy.CapEditColumns); err != nil {
		observability.RecordFailure("column", "forbidden")
		return nil, err
	}

	col := &Column{
		ProjectID: input.ProjectID,
		Name:      input.Name,
		Color:     input.Color,
		Active:    true,
	}
	if err := s.repo.Create(ctx, col, input.Position); err != nil {
		observability.RecordFailure("column", faults.KindOf(err).String())
		return nil, err
	}

	observability.RecordMutation("column", "create")
	s.invalidateAndPublish(ctx, events.BoardEventColumnCreated, col, actorID, nil)
	s.logger.Info("column created",
		zap.String("column_id", col.ID.String()),
		zap.String("project_id", col.ProjectID.String()),
		zap.Int("position", col.Position))
	return col, nil
}

func (s *service) ListColumns(ctx context.Context, actorID, projectID uuid.UUID) ([]Column, error) {
	if err := s.access.AssertMember(ctx, projectID, actorID); err != nil {
		return nil, err
	}

	key := cache.ColumnListKey(projectID)
	if s.redis != nil {
		var cached []Column
		if err := s.redis.GetJSON(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	columns, err := s.repo.ListByProject(ctx, projectID, false)
	if err != nil {
		return nil, err
	}
	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, key, columns, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache column list", zap.Error(err))
		}
	}
	return columns, nil
}

func (s *service) UpdateColumn(ctx context.Context, actorID, id uuid.UUID, input UpdateColumnInput) (*Column, error) {
	col, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	caps, err := s.access.Capabilities(ctx, col.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(caps, policy.CapEditColumns); err != nil {
		observability.RecordFailure("column", "forbidden")
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, faults.Conflict("column name cannot be empty")
		}
		col.Name = *input.Name
	}
	if input.Color != nil {
		col.Color = *input.Color
	}
	if err := s.repo.UpdateMeta(ctx, col); err != nil {
		observability.RecordFailure("column", faults.KindOf(err).String())
		return nil, err
	}

	observability.RecordMutation("column", "update")
	s.invalidateColumnList(ctx, col.ProjectID)
	return col, nil
}

func (s *service) MoveColumn(ctx context.Context, actorID, id uuid.UUID, target int) (*Column, error) {
	col, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	caps, err := s.access.Capabilities(ctx, col.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(caps, policy.CapEditColumns); err != nil {
		observability.RecordFailure("column", "forbidden")
		return nil, err
	}

	from := col.Position
	moved, err := s.repo.Move(ctx, id, target)
	if err != nil {
		observability.RecordFailure("column", faults.KindOf(err).String())
		return nil, err
	}

	shifted := target - from
	if shifted < 0 {
		shifted = -shifted
	}
	observability.RecordMutation("column", "move")
	observability.RecordRenumberSpan("column", shifted)
	s.invalidateAndPublish(ctx, events.BoardEventColumnMoved, moved, actorID, map[string]interface{}{
		"from": from,
		"to":   moved.Position,
	})
	return moved, nil
}

func (s *service) DeleteColumn(ctx context.Context, actorID, id uuid.UUID) error {
	col, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	caps, err := s.access.Capabilities(ctx, col.ProjectID, actorID)
	if err != nil {
		return err
	}
	if err := policy.Require(caps, policy.CapDeleteColumn); err != nil {
		observability.RecordFailure("column", "forbidden")
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		observability.RecordFailure("column", faults.KindOf(err).String())
		return err
	}

	observability.RecordMutation("column", "delete")
	s.invalidateAndPublish(ctx, events.BoardEventColumnDeleted, col, actorID, nil)
	s.logger.Info("column deleted",
		zap.String("column_id", id.String()),
		zap.String("project_id", col.ProjectID.String()))
	return nil
}

func (s *service) invalidateColumnList(ctx context.Context, projectID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Delete(ctx, cache.ColumnListKey(projectID)); err != nil {
		s.logger.Warn("failed to invalidate column cache", zap.Error(err))
	}
}

func (s *service) invalidateAndPublish(ctx context.Context, eventType string, col *Column, actorID uuid.UUID, details interface{}) {
	s.invalidateColumnList(ctx, col.ProjectID)
	if s.redis == nil {
		return
	}
	event := &events.BoardEvent{
		EventType: eventType,
		ProjectID: col.ProjectID,
		EntityID:  col.ID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Details:   details,
	}
	if err := s.redis.PublishBoardEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish board event", zap.Error(err))
	}
}
