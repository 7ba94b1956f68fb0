package policy

import (
	"testing"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAuthorizeArchivedProject(t *testing.T) {
	archived := &models.Project{Archived: true}
	feedback := &models.Feedback{Status: types.StatusPending}

	tests := []struct {
		name    string
		actor   Actor
		op      Operation
		allowed bool
	}{
		{"submit denied", APIKeyActor(), OpSubmitFeedback, false},
		{"vote denied", APIKeyActor(), OpVote, false},
		{"comment denied", APIKeyActor(), OpComment, false},
		{"update denied even for owner", MemberActor(types.RoleOwner), OpUpdateFeedback, false},
		{"merge denied even for owner", MemberActor(types.RoleOwner), OpMergeFeedback, false},
		{"unvote allowed", APIKeyActor(), OpUnvote, true},
		{"delete allowed for owner", MemberActor(types.RoleOwner), OpDeleteFeedback, true},
		{"delete allowed for admin", MemberActor(types.RoleAdmin), OpDeleteFeedback, true},
		{"delete denied for member", MemberActor(types.RoleMember), OpDeleteFeedback, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(archived, feedback, tt.actor, tt.op)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
			}
		})
	}
}

func TestAuthorizeClosedStatus(t *testing.T) {
	project := &models.Project{}

	for _, status := range []string{types.StatusCompleted, types.StatusRejected} {
		feedback := &models.Feedback{Status: status}

		assert.True(t, apperr.IsKind(Authorize(project, feedback, APIKeyActor(), OpVote), apperr.KindForbidden), "vote on %s", status)
		assert.True(t, apperr.IsKind(Authorize(project, feedback, APIKeyActor(), OpComment), apperr.KindForbidden), "comment on %s", status)

		// Unvoting and operator edits stay possible.
		assert.NoError(t, Authorize(project, feedback, APIKeyActor(), OpUnvote))
		assert.NoError(t, Authorize(project, feedback, MemberActor(types.RoleMember), OpUpdateFeedback))
	}
}

func TestAuthorizeRoleLadder(t *testing.T) {
	project := &models.Project{}

	// Submission and voting need only the tenant credential.
	assert.NoError(t, Authorize(project, nil, APIKeyActor(), OpSubmitFeedback))
	assert.NoError(t, Authorize(project, nil, APIKeyActor(), OpVote))

	// Updates need write access; viewers have none.
	assert.NoError(t, Authorize(project, nil, MemberActor(types.RoleMember), OpUpdateFeedback))
	assert.Error(t, Authorize(project, nil, MemberActor(types.RoleViewer), OpUpdateFeedback))
	assert.Error(t, Authorize(project, nil, APIKeyActor(), OpUpdateFeedback))

	// Deletes and merges need owner or admin.
	for _, op := range []Operation{OpDeleteFeedback, OpMergeFeedback} {
		assert.NoError(t, Authorize(project, nil, MemberActor(types.RoleOwner), op))
		assert.NoError(t, Authorize(project, nil, MemberActor(types.RoleAdmin), op))
		assert.Error(t, Authorize(project, nil, MemberActor(types.RoleMember), op))
		assert.Error(t, Authorize(project, nil, MemberActor(types.RoleViewer), op))
	}
}
