package project

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

	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/column"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/policy"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/domain/user"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/internal/infrastructure/persistence/postgres/connection"
	"github.com/kevinpatrickborges/Gestordedocumentos-sub001/pkg/faults"
)

func setup(t *testing.T) (Service, *connection.Database) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &Project{}, &Member{}, &column.Column{}))

	wrapped := connection.NewFromGorm(db)
	return NewService(NewRepository(wrapped), []string{"To Do", "Done"}, zap.NewNop()), wrapped
}

func TestCreateProjectSeedsOwnerAndColumns(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	owner := uuid.New()

	p, err := svc.CreateProject(ctx, CreateProjectInput{Name: "Archive intake", OwnerID: owner})
	require.NoError(t, err)
	assert.Equal(t, ProjectStatusActive, p.Status)

	// The owner holds an explicit admin membership row.
	member, err := svc.AddMember(ctx, owner, p.ID, uuid.New(), policy.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, policy.RoleViewer, member.Role)

	loaded, err := svc.GetProject(ctx, owner, p.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 2)

	var cols []column.Column
	require.NoError(t, db.Where("project_id = ?", p.ID).Order("position ASC").Find(&cols).Error)
	require.Len(t, cols, 2)
	assert.Equal(t, "To Do", cols[0].Name)
	assert.Equal(t, 1, cols[0].Position)
	assert.Equal(t, "Done", cols[1].Name)
	assert.Equal(t, 2, cols[1].Position)
}

func TestGetProjectHidesExistenceFromNonMembers(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, CreateProjectInput{Name: "Private", OwnerID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.GetProject(ctx, uuid.New(), p.ID)
	require.Error(t, err)
	assert.True(t, faults.IsNotFound(err))
}

func TestMemberManagementRequiresAdmin(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	owner := uuid.New()

	p, err := svc.CreateProject(ctx, CreateProjectInput{Name: "Board", OwnerID: owner})
	require.NoError(t, err)

	editor := uuid.New()
	_, err = svc.AddMember(ctx, owner, p.ID, editor, policy.RoleEditor)
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, editor, p.ID, uuid.New(), policy.RoleViewer)
	require.Error(t, err)
	assert.True(t, faults.IsForbidden(err))
}

func TestLastAdminCannotBeDemotedOrRemoved(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	owner := uuid.New()

	p, err := svc.CreateProject(ctx, CreateProjectInput{Name: "Board", OwnerID: owner})
	require.NoError(t, err)

	_, err = svc.UpdateMemberRole(ctx, owner, p.ID, owner, policy.RoleEditor)
	require.Error(t, err)
	assert.True(t, faults.IsConflict(err))

	err = svc.RemoveMember(ctx, owner, p.ID, owner)
	require.Error(t, err)
	assert.True(t, faults.IsConflict(err))

	// With a second admin on board, the owner's row may change.
	second := uuid.New()
	_, err = svc.AddMember(ctx, owner, p.ID, second, policy.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.UpdateMemberRole(ctx, owner, p.ID, owner, policy.RoleEditor)
	require.NoError(t, err)
}

func TestCapabilitiesPerRole(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	owner := uuid.New()

	p, err := svc.CreateProject(ctx, CreateProjectInput{Name: "Board", OwnerID: owner})
	require.NoError(t, err)
	viewer := uuid.New()
	_, err = svc.AddMember(ctx, owner, p.ID, viewer, policy.RoleViewer)
	require.NoError(t, err)

	ownerCaps, err := svc.Capabilities(ctx, p.ID, owner)
	require.NoError(t, err)
	assert.True(t, ownerCaps.Has(policy.CapDeleteProject))
	assert.True(t, ownerCaps.Has(policy.CapManageMembers))

	viewerCaps, err := svc.Capabilities(ctx, p.ID, viewer)
	require.NoError(t, err)
	assert.True(t, viewerCaps.Has(policy.CapView))
	assert.True(t, viewerCaps.Has(policy.CapComment))
	assert.False(t, viewerCaps.Has(policy.CapCreateTask))
}

func TestMutableTracksStatus(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	owner := uuid.New()

	p, err := svc.CreateProject(ctx, CreateProjectInput{Name: "Board", OwnerID: owner})
	require.NoError(t, err)

	mutable, err := svc.Mutable(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, mutable)

	status := ProjectStatusArchived
	_, err = svc.UpdateProject(ctx, owner, p.ID, UpdateProjectInput{Status: &status})
	require.NoError(t, err)

	mutable, err = svc.Mutable(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, mutable)
}
