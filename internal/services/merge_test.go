package services

import (
	"testing"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/events"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/policy"
	"github.com/clamor-dev/clamor/internal/revenue"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adminActor = policy.MemberActor(types.RoleAdmin)

func TestMergeDeduplicatesVoters(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)
	captured := captureEvents(t)

	primary := newTestFeedback(t, gdb, project, "Dark mode")
	secondary := newTestFeedback(t, gdb, project, "Night theme")

	for _, u := range []string{"u1", "u2", "u3"} {
		addVote(t, gdb, primary, u)
	}
	for _, u := range []string{"u2", "u4"} {
		addVote(t, gdb, secondary, u)
	}

	merged, err := MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, primary.ID, []uint{secondary.ID})
	require.NoError(t, err)

	assert.Equal(t, 4, merged.VoteCount)
	assert.EqualValues(t, 4, voteRowCount(t, gdb, primary.ID))
	assert.EqualValues(t, 0, voteRowCount(t, gdb, secondary.ID))
	assert.Equal(t, []uint{secondary.ID}, merged.MergedIDList())

	casualty := reloadFeedback(t, gdb, secondary.ID)
	require.NotNil(t, casualty.MergedIntoID)
	assert.Equal(t, primary.ID, *casualty.MergedIntoID)
	assert.NotNil(t, casualty.MergedAt)
	assert.Empty(t, casualty.MergedIDList())
	assert.Equal(t, 0, casualty.VoteCount)

	require.Len(t, *captured, 1)
	event := (*captured)[0]
	assert.Equal(t, events.FeedbackMerged, event.Name)
	assert.Equal(t, primary.ID, event.FeedbackID)
	assert.Equal(t, []uint{secondary.ID}, event.SecondaryIDs)
}

func TestMergeRewritesCommentsWithProvenance(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)

	primary := newTestFeedback(t, gdb, project, "Dark mode")
	secondary := newTestFeedback(t, gdb, project, "Night theme")

	require.NoError(t, gdb.Create(&models.Comment{
		FeedbackID: secondary.ID,
		AuthorID:   "u1",
		Content:    "please build this",
	}).Error)

	_, err := MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, primary.ID, []uint{secondary.ID})
	require.NoError(t, err)

	var comment models.Comment
	require.NoError(t, gdb.Where("feedback_id = ?", primary.ID).First(&comment).Error)
	assert.Equal(t, "[Originally on: Night theme] please build this", comment.Content)

	var remaining int64
	require.NoError(t, gdb.Model(&models.Comment{}).Where("feedback_id = ?", secondary.ID).Count(&remaining).Error)
	assert.EqualValues(t, 0, remaining)
}

func TestMergeComputesTotalMRR(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)

	primary := newTestFeedback(t, gdb, project, "Dark mode")
	secondary := newTestFeedback(t, gdb, project, "Night theme")

	addVote(t, gdb, primary, "u1")
	addVote(t, gdb, secondary, "u2")

	registry := &revenue.StaticRegistry{MRR: map[string]float64{
		"u1": 49,
		"u2": 99,
	}}

	merged, err := MergeFeedback(gdb, registry, project, adminActor, 1, primary.ID, []uint{secondary.ID})
	require.NoError(t, err)

	require.NotNil(t, merged.TotalMRR)
	assert.InDelta(t, 148, *merged.TotalMRR, 0.001)
}

func TestMergeValidation(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)
	primary := newTestFeedback(t, gdb, project, "Dark mode")

	_, err := MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, primary.ID, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, primary.ID, []uint{primary.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, primary.ID, []uint{99999})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestMergeRejectsCrossProjectItems(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)
	other := newTestProject(t, gdb, types.TierPro)

	primary := newTestFeedback(t, gdb, project, "Dark mode")
	foreign := newTestFeedback(t, gdb, other, "Night theme")

	_, err := MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, primary.ID, []uint{foreign.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestMergeRejectsAlreadyMergedItems(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)

	primary := newTestFeedback(t, gdb, project, "Dark mode")
	first := newTestFeedback(t, gdb, project, "Night theme")
	second := newTestFeedback(t, gdb, project, "Black theme")

	_, err := MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, primary.ID, []uint{first.ID})
	require.NoError(t, err)

	// A casualty can be neither a new primary nor a new secondary.
	_, err = MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, primary.ID, []uint{first.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	_, err = MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, first.ID, []uint{second.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestMergeIntoSurvivorAppendsAbsorbedIDs(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)

	primary := newTestFeedback(t, gdb, project, "Dark mode")
	first := newTestFeedback(t, gdb, project, "Night theme")
	second := newTestFeedback(t, gdb, project, "Black theme")

	_, err := MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, primary.ID, []uint{first.ID})
	require.NoError(t, err)

	merged, err := MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 1, primary.ID, []uint{second.ID})
	require.NoError(t, err)

	assert.Equal(t, []uint{first.ID, second.ID}, merged.MergedIDList())
}

func TestMergeRequiresPrivilegedRole(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)

	primary := newTestFeedback(t, gdb, project, "Dark mode")
	secondary := newTestFeedback(t, gdb, project, "Night theme")

	_, err := MergeFeedback(gdb, revenue.NopRegistry{}, project, policy.MemberActor(types.RoleMember), 1, primary.ID, []uint{secondary.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestMergeRollsBackOnRegistryFailure(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)

	primary := newTestFeedback(t, gdb, project, "Dark mode")
	secondary := newTestFeedback(t, gdb, project, "Night theme")
	addVote(t, gdb, secondary, "u1")

	_, err := MergeFeedback(gdb, failingRegistry{}, project, adminActor, 1, primary.ID, []uint{secondary.ID})
	require.Error(t, err)

	// Nothing moved: partial merges must never be observable.
	assert.EqualValues(t, 0, voteRowCount(t, gdb, primary.ID))
	assert.EqualValues(t, 1, voteRowCount(t, gdb, secondary.ID))

	fresh := reloadFeedback(t, gdb, secondary.ID)
	assert.Nil(t, fresh.MergedIntoID)
	assert.Equal(t, 1, fresh.VoteCount)
}

func TestMergeWritesAuditRows(t *testing.T) {
	gdb := newTestDB(t)
	project := newTestProject(t, gdb, types.TierPro)

	primary := newTestFeedback(t, gdb, project, "Dark mode")
	secondary := newTestFeedback(t, gdb, project, "Night theme")

	_, err := MergeFeedback(gdb, revenue.NopRegistry{}, project, adminActor, 42, primary.ID, []uint{secondary.ID})
	require.NoError(t, err)

	var audit models.FeedbackMerge
	require.NoError(t, gdb.Where("source_feedback_id = ?", secondary.ID).First(&audit).Error)
	assert.Equal(t, primary.ID, audit.TargetFeedbackID)
	assert.EqualValues(t, 42, audit.MergedBy)
}

type failingRegistry struct{}

func (failingRegistry) MonthlyRevenue([]string) (map[string]float64, error) {
	return nil, assert.AnError
}
