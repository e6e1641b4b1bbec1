package project

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/policy"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// Service exposes project and membership operations to the transport layer.
type Service interface {
	CreateProject(ctx context.Context, input CreateProjectInput) (*Project, error)
	GetProject(ctx context.Context, actorID, id uuid.UUID) (*Project, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, int64, error)
	UpdateProject(ctx context.Context, actorID, id uuid.UUID, input UpdateProjectInput) (*Project, error)
	DeleteProject(ctx context.Context, actorID, id uuid.UUID) error

	AddMember(ctx context.Context, actorID, projectID, userID uuid.UUID, role policy.Role) (*Member, error)
	UpdateMemberRole(ctx context.Context, actorID, projectID, userID uuid.UUID, role policy.Role) (*Member, error)
	RemoveMember(ctx context.Context, actorID, projectID, userID uuid.UUID) error

	// Capabilities resolves the actor's effective capability set for a
	// project. Column and task services gate their operations through it.
	Capabilities(ctx context.Context, projectID, actorID uuid.UUID) (policy.CapabilitySet, error)
	// AssertMember fails with NotFound unless the user belongs to the
	// project (the owner always does).
	AssertMember(ctx context.Context, projectID, userID uuid.UUID) error
	// Mutable reports whether destructive task operations are allowed.
	Mutable(ctx context.Context, projectID uuid.UUID) (bool, error)
}

type service struct {
	repo           Repository
	defaultColumns []string
	logger         *zap.Logger
}

// NewService creates a new project service. defaultColumns are seeded into
// every new project in order.
func NewService(repo Repository, defaultColumns []string, logger *zap.Logger) Service {
	return &service{repo: repo, defaultColumns: defaultColumns, logger: logger}
}

func (s *service) CreateProject(ctx context.Context, input CreateProjectInput) (*Project, error) {
	if input.Name == "" || input.OwnerID == uuid.Nil {
		return nil, faults.Conflict("project name and owner are required")
	}

	p := &Project{
		Name:        input.Name,
		Description: input.Description,
		Status:      ProjectStatusActive,
		OwnerID:     input.OwnerID,
	}
	// The owner gets an explicit admin membership so the last-admin guard
	// has a row to count.
	owner := &Member{UserID: input.OwnerID, Role: policy.RoleAdmin}

	if err := s.repo.Create(ctx, p, owner, s.defaultColumns); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("project_id", p.ID.String()),
		zap.String("owner_id", input.OwnerID.String()),
		zap.Int("default_columns", len(s.defaultColumns)))

	p.Members = []Member{*owner}
	return p, nil
}

func (s *service) GetProject(ctx context.Context, actorID, id uuid.UUID) (*Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	caps := policy.Resolve(p.OwnerID, p.PolicyMembers(), actorID)
	if err := policy.Require(caps, policy.CapView); err != nil {
		// Hide the project's existence from non-members.
		return nil, faults.NotFound("project %s not found", id)
	}
	return p, nil
}

func (s *service) ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, int64, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *service) UpdateProject(ctx context.Context, actorID, id uuid.UUID, input UpdateProjectInput) (*Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	caps := policy.Resolve(p.OwnerID, p.PolicyMembers(), actorID)
	if err := policy.Require(caps, policy.CapManageMembers); err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != "" {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, faults.Conflict("invalid project status %q", *input.Status)
		}
		p.Status = *input.Status
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeleteProject(ctx context.Context, actorID, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	caps := policy.Resolve(p.OwnerID, p.PolicyMembers(), actorID)
	if err := policy.Require(caps, policy.CapDeleteProject); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) AddMember(ctx context.Context, actorID, projectID, userID uuid.UUID, role policy.Role) (*Member, error) {
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	caps := policy.Resolve(p.OwnerID, p.PolicyMembers(), actorID)
	if err := policy.Require(caps, policy.CapManageMembers); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, faults.Conflict("invalid role %q", role)
	}
	if _, err := s.repo.FindMember(ctx, projectID, userID); err == nil {
		return nil, faults.Conflict("user %s is already a member of project %s", userID, projectID)
	} else if !faults.IsNotFound(err) {
		return nil, err
	}

	m := &Member{ProjectID: projectID, UserID: userID, Role: role}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) UpdateMemberRole(ctx context.Context, actorID, projectID, userID uuid.UUID, role policy.Role) (*Member, error) {
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	caps := policy.Resolve(p.OwnerID, p.PolicyMembers(), actorID)
	if err := policy.Require(caps, policy.CapManageMembers); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, faults.Conflict("invalid role %q", role)
	}

	m, err := s.repo.FindMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if m.Role == policy.RoleAdmin && role != policy.RoleAdmin {
		if err := s.assertNotLastAdmin(ctx, projectID); err != nil {
			return nil, err
		}
	}

	m.Role = role
	if err := s.repo.UpdateMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) RemoveMember(ctx context.Context, actorID, projectID, userID uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	caps := policy.Resolve(p.OwnerID, p.PolicyMembers(), actorID)
	if err := policy.Require(caps, policy.CapManageMembers); err != nil {
		return err
	}

	m, err := s.repo.FindMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if m.Role == policy.RoleAdmin {
		if err := s.assertNotLastAdmin(ctx, projectID); err != nil {
			return err
		}
	}
	return s.repo.RemoveMember(ctx, projectID, userID)
}

// assertNotLastAdmin fails with Conflict when the project would be left
// without an admin-capability member.
func (s *service) assertNotLastAdmin(ctx context.Context, projectID uuid.UUID) error {
	admins, err := s.repo.CountAdmins(ctx, projectID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return faults.Conflict("project %s must retain at least one admin", projectID)
	}
	return nil
}

func (s *service) Capabilities(ctx context.Context, projectID, actorID uuid.UUID) (policy.CapabilitySet, error) {
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return policy.Resolve(p.OwnerID, p.PolicyMembers(), actorID), nil
}

func (s *service) AssertMember(ctx context.Context, projectID, userID uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p.OwnerID == userID {
		return nil
	}
	_, err = s.repo.FindMember(ctx, projectID, userID)
	return err
}

func (s *service) Mutable(ctx context.Context, projectID uuid.UUID) (bool, error) {
	p, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		return false, err
	}
	return p.Status.Mutable(), nil
}
