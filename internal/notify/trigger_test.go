package notify

import (
	"testing"

	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/stretchr/testify/assert"
)

func notifyingProject(statuses ...string) models.Project {
	return models.Project{EmailNotifyStatuses: models.StringListColumn(statuses)}
}

func optedInVote(email, key string) models.Vote {
	return models.Vote{Email: email, NotifyStatusChange: true, PermissionKey: &key}
}

func TestStatusChangeRecipientsFiltersByConfiguredStatuses(t *testing.T) {
	project := notifyingProject(types.StatusCompleted)
	votes := []models.Vote{optedInVote("v1@example.com", "key-1")}

	// approved is not configured as notifiable for this tenant.
	assert.Empty(t, StatusChangeRecipients(project, nil, votes, types.StatusApproved))

	recipients := StatusChangeRecipients(project, nil, votes, types.StatusCompleted)
	assert.Len(t, recipients, 1)
}

func TestStatusChangeRecipientsHonorsOptIns(t *testing.T) {
	project := notifyingProject(types.StatusCompleted)

	members := []Member{
		{Email: "owner@example.com", NotifyStatusChange: true},
		{Email: "muted@example.com", NotifyStatusChange: false},
	}

	votes := []models.Vote{
		optedInVote("v1@example.com", "key-1"),
		{Email: "silent@example.com", NotifyStatusChange: false},
		{Email: "", NotifyStatusChange: true}, // no address to reach
	}

	recipients := StatusChangeRecipients(project, members, votes, types.StatusCompleted)

	emails := make([]string, 0, len(recipients))
	for _, r := range recipients {
		emails = append(emails, r.Email)
	}

	assert.ElementsMatch(t, []string{"owner@example.com", "v1@example.com"}, emails)
}

func TestStatusChangeRecipientsDeduplicatesByEmail(t *testing.T) {
	project := notifyingProject(types.StatusCompleted)

	members := []Member{{Email: "both@example.com", NotifyStatusChange: true}}
	votes := []models.Vote{optedInVote("both@example.com", "key-1")}

	recipients := StatusChangeRecipients(project, members, votes, types.StatusCompleted)

	assert.Len(t, recipients, 1)
	assert.True(t, recipients[0].IsMember)
	assert.Empty(t, recipients[0].PermissionKey)
}

func TestStatusChangeRecipientsCarryPermissionKeys(t *testing.T) {
	project := notifyingProject(types.StatusRejected)
	votes := []models.Vote{optedInVote("v1@example.com", "key-1")}

	recipients := StatusChangeRecipients(project, nil, votes, types.StatusRejected)

	assert.Len(t, recipients, 1)
	assert.Equal(t, "key-1", recipients[0].PermissionKey)
	assert.False(t, recipients[0].IsMember)
}
