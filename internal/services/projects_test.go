package services

import (
	"fmt"
	"testing"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/policy"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectDefaults(t *testing.T) {
	gdb := newTestDB(t)
	owner := newTestUser(t, gdb, "owner@example.com")

	project, err := CreateProject(gdb, owner.ID, CreateProjectInput{Name: "  Clamor  "})
	require.NoError(t, err)

	assert.Equal(t, "Clamor", project.Name)
	assert.Equal(t, types.TierFree, project.Tier)
	assert.NotEmpty(t, project.APIKey)
	assert.ElementsMatch(t, types.AllStatuses, project.AllowedStatusList())
	assert.False(t, project.StatusNotifies(types.StatusPending))
	assert.True(t, project.StatusNotifies(types.StatusCompleted))

	var membership models.ProjectMembership
	require.NoError(t, gdb.Where("project_id = ? AND user_id = ?", project.ID, owner.ID).First(&membership).Error)
	assert.Equal(t, types.RoleOwner, membership.Role)
}

func TestCreateProjectQuota(t *testing.T) {
	gdb := newTestDB(t)
	owner := newTestUser(t, gdb, "owner@example.com")

	for i := 0; i < 3; i++ {
		_, err := CreateProject(gdb, owner.ID, CreateProjectInput{Name: fmt.Sprintf("Project %d", i)})
		require.NoError(t, err)
	}

	_, err := CreateProject(gdb, owner.ID, CreateProjectInput{Name: "One Too Many"})
	assert.True(t, apperr.IsKind(err, apperr.KindPaymentRequired))
}

func TestUpdateProjectStatusLists(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierFree)

	updated, err := UpdateProject(gdb, project, policy.MemberActor(types.RoleAdmin), UpdateProjectInput{
		AllowedStatuses: []string{types.StatusPending, types.StatusCompleted},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{types.StatusPending, types.StatusCompleted}, updated.AllowedStatusList())

	_, err = UpdateProject(gdb, project, policy.MemberActor(types.RoleAdmin), UpdateProjectInput{
		AllowedStatuses: []string{"shipping-soon"},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateProjectIntegrationsGatedByTier(t *testing.T) {
	gdb := newTestDB(t)
	hook := "https://discord.com/api/webhooks/123/abc"

	free := newTestProject(t, gdb, types.TierFree)
	_, err := UpdateProject(gdb, free, policy.MemberActor(types.RoleOwner), UpdateProjectInput{DiscordWebhook: &hook})
	assert.True(t, apperr.IsKind(err, apperr.KindPaymentRequired))

	pro := newTestProject(t, gdb, types.TierPro)
	updated, err := UpdateProject(gdb, pro, policy.MemberActor(types.RoleOwner), UpdateProjectInput{DiscordWebhook: &hook})
	require.NoError(t, err)
	assert.Equal(t, hook, updated.DiscordWebhook)

	// Clearing a webhook needs no paid tier.
	empty := ""
	_, err = UpdateProject(gdb, free, policy.MemberActor(types.RoleOwner), UpdateProjectInput{DiscordWebhook: &empty})
	assert.NoError(t, err)
}

func TestUpdateProjectRoleGate(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)
	name := "Renamed"

	_, err := UpdateProject(gdb, project, policy.MemberActor(types.RoleMember), UpdateProjectInput{Name: &name})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestSetProjectArchived(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)

	archived, err := SetProjectArchived(gdb, project, policy.MemberActor(types.RoleAdmin), true)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	// Unarchiving works on the archived project itself.
	unarchived, err := SetProjectArchived(gdb, archived, policy.MemberActor(types.RoleOwner), false)
	require.NoError(t, err)
	assert.False(t, unarchived.Archived)

	_, err = SetProjectArchived(gdb, project, policy.MemberActor(types.RoleMember), true)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = SetProjectArchived(gdb, project, policy.APIKeyActor(), true)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
