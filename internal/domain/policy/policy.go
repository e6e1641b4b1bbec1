// Package policy resolves what an actor may do inside a project. Roles are
// resolved once per request into an explicit capability set; operation
// boundaries test against a required capability instead of comparing role
// strings.
package policy

import (
	"github.com/google/uuid"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

// Role is a member's role within one project.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// IsValid validates the role value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Capability is a named permission resolved from an actor's role.
type Capability string

const (
	CapView          Capability = "view"
	CapComment       Capability = "comment"
	CapCreateTask    Capability = "task:create"
	CapEditTask      Capability = "task:edit"
	CapEditColumns   Capability = "column:edit"
	CapDeleteTask    Capability = "task:delete"
	CapManageMembers Capability = "members:manage"
	CapDeleteColumn  Capability = "column:delete"
	CapDeleteProject Capability = "project:delete"
)

// CapabilitySet is the effective permission set of one actor in one project.
type CapabilitySet map[Capability]struct{}

// Has reports whether the set contains the capability.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

var (
	viewerCaps = []Capability{CapView, CapComment}
	editorCaps = []Capability{CapCreateTask, CapEditTask, CapEditColumns}
	adminCaps  = []Capability{CapDeleteTask, CapManageMembers, CapDeleteColumn}
)

// ForRole returns the capability set a role grants. The hierarchy is
// admin ⊇ editor ⊇ viewer.
func ForRole(r Role) CapabilitySet {
	set := CapabilitySet{}
	switch r {
	case RoleAdmin:
		grant(set, adminCaps)
		fallthrough
	case RoleEditor:
		grant(set, editorCaps)
		fallthrough
	case RoleViewer:
		grant(set, viewerCaps)
	}
	return set
}

func grant(set CapabilitySet, caps []Capability) {
	for _, c := range caps {
		set[c] = struct{}{}
	}
}

// Member is the (user, role) slice of a project membership the resolver
// needs. The project package converts its rows into this shape.
type Member struct {
	UserID uuid.UUID
	Role   Role
}

// Resolve computes the actor's effective capability set for a project. The
// owner always holds admin capabilities plus project deletion, whether or
// not an explicit membership row exists. Non-members get an empty set.
func Resolve(ownerID uuid.UUID, members []Member, actorID uuid.UUID) CapabilitySet {
	if actorID == ownerID {
		set := ForRole(RoleAdmin)
		set[CapDeleteProject] = struct{}{}
		return set
	}
	for _, m := range members {
		if m.UserID == actorID {
			return ForRole(m.Role)
		}
	}
	return CapabilitySet{}
}

// Require returns a Forbidden fault when the set lacks the capability.
func Require(set CapabilitySet, c Capability) error {
	if !set.Has(c) {
		return faults.Forbidden("capability %s required", c)
	}
	return nil
}
