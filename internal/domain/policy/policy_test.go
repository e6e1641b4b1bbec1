package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

func TestForRoleHierarchy(t *testing.T) {
	tests := []struct {
		name  string
		role  Role
		has   []Capability
		lacks []Capability
	}{
		{
			name:  "viewer",
			role:  RoleViewer,
			has:   []Capability{CapView, CapComment},
			lacks: []Capability{CapCreateTask, CapEditTask, CapEditColumns, CapDeleteTask, CapManageMembers, CapDeleteColumn, CapDeleteProject},
		},
		{
			name:  "editor",
			role:  RoleEditor,
			has:   []Capability{CapView, CapComment, CapCreateTask, CapEditTask, CapEditColumns},
			lacks: []Capability{CapDeleteTask, CapManageMembers, CapDeleteColumn, CapDeleteProject},
		},
		{
			name:  "admin",
			role:  RoleAdmin,
			has:   []Capability{CapView, CapComment, CapCreateTask, CapEditTask, CapEditColumns, CapDeleteTask, CapManageMembers, CapDeleteColumn},
			lacks: []Capability{CapDeleteProject},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := ForRole(tt.role)
			for _, c := range tt.has {
				assert.True(t, set.Has(c), "%s should grant %s", tt.role, c)
			}
			for _, c := range tt.lacks {
				assert.False(t, set.Has(c), "%s should not grant %s", tt.role, c)
			}
		})
	}
}

func TestResolveOwnerIsImplicitAdmin(t *testing.T) {
	owner := uuid.New()

	set := Resolve(owner, nil, owner)

	assert.True(t, set.Has(CapDeleteColumn))
	assert.True(t, set.Has(CapManageMembers))
	assert.True(t, set.Has(CapDeleteProject), "project deletion is owner-only")
}

func TestResolveMemberAndStranger(t *testing.T) {
	owner := uuid.New()
	editor := uuid.New()
	stranger := uuid.New()
	members := []Member{{UserID: editor, Role: RoleEditor}}

	assert.True(t, Resolve(owner, members, editor).Has(CapEditTask))
	assert.False(t, Resolve(owner, members, editor).Has(CapDeleteProject))
	assert.Empty(t, Resolve(owner, members, stranger))
}

func TestRequire(t *testing.T) {
	set := ForRole(RoleViewer)

	assert.NoError(t, Require(set, CapView))

	err := Require(set, CapDeleteTask)
	assert.Error(t, err)
	assert.True(t, faults.IsForbidden(err))
}

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleEditor.IsValid())
	assert.True(t, RoleViewer.IsValid())
	assert.False(t, Role("owner").IsValid())
	assert.False(t, Role("").IsValid())
}
