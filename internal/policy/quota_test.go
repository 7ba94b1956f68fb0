package policy

import (
	"testing"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestCheckQuotaFeedbackCeiling(t *testing.T) {
	// Free tier caps out at 10 items; the 10th count blocks the 11th insert.
	err := CheckQuota(types.TierFree, OpSubmitFeedback, Counts{FeedbackInProject: 10})
	assert.True(t, apperr.IsKind(err, apperr.KindPaymentRequired))

	assert.NoError(t, CheckQuota(types.TierFree, OpSubmitFeedback, Counts{FeedbackInProject: 9}))
	assert.NoError(t, CheckQuota(types.TierPro, OpSubmitFeedback, Counts{FeedbackInProject: 10}))
	assert.NoError(t, CheckQuota(types.TierTeam, OpSubmitFeedback, Counts{FeedbackInProject: 5000}))
}

func TestCheckQuotaProjectCeiling(t *testing.T) {
	err := CheckQuota(types.TierFree, OpCreateProject, Counts{ProjectsOwned: 3})
	assert.True(t, apperr.IsKind(err, apperr.KindPaymentRequired))

	assert.NoError(t, CheckQuota(types.TierFree, OpCreateProject, Counts{ProjectsOwned: 2}))
}

func TestCheckQuotaTeamMembers(t *testing.T) {
	assert.True(t, apperr.IsKind(CheckQuota(types.TierFree, OpManageMembers, Counts{}), apperr.KindPaymentRequired))
	assert.True(t, apperr.IsKind(CheckQuota(types.TierPro, OpManageMembers, Counts{}), apperr.KindPaymentRequired))
	assert.NoError(t, CheckQuota(types.TierTeam, OpManageMembers, Counts{}))
}

func TestCheckIntegrationQuota(t *testing.T) {
	assert.True(t, apperr.IsKind(CheckIntegrationQuota(types.TierFree), apperr.KindPaymentRequired))
	assert.NoError(t, CheckIntegrationQuota(types.TierPro))
	assert.NoError(t, CheckIntegrationQuota(types.TierTeam))
}

func TestLimitsForUnknownTierFallsBackToFree(t *testing.T) {
	assert.Equal(t, LimitsFor(types.TierFree), LimitsFor("enterprise-beta"))
}
