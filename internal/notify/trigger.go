// Package notify decides who gets told about lifecycle transitions and
// carries the delivery sinks. The decision function is pure; delivery
// is a collaborator fed the resulting recipient list.
package notify

import "github.com/clamor-dev/clamor/internal/models"

// Member is the slice of a project membership the trigger cares about.
type Member struct {
	Email              string
	NotifyStatusChange bool
}

type Recipient struct {
	Email string

	// Set for voter recipients so the email can carry a one-click
	// unsubscribe link.
	PermissionKey string

	IsMember bool
}

// StatusChangeRecipients returns who to email about a status change:
// members whose preferences allow it plus voters who opted in, filtered
// by the project's configured notifiable statuses and de-duplicated by
// address. Member entries win ties so operators never get the
// unsubscribe footer meant for voters.
func StatusChangeRecipients(project models.Project, members []Member, votes []models.Vote, newStatus string) []Recipient {
	if !project.StatusNotifies(newStatus) {
		return nil
	}

	var recipients []Recipient
	seen := make(map[string]bool)

	for _, m := range members {
		if !m.NotifyStatusChange || m.Email == "" || seen[m.Email] {
			continue
		}
		seen[m.Email] = true
		recipients = append(recipients, Recipient{Email: m.Email, IsMember: true})
	}

	for _, v := range votes {
		if !v.NotifyStatusChange || v.Email == "" || seen[v.Email] {
			continue
		}
		seen[v.Email] = true

		r := Recipient{Email: v.Email}

		if v.PermissionKey != nil {
			r.PermissionKey = *v.PermissionKey
		}

		recipients = append(recipients, r)
	}

	return recipients
}
