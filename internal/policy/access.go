// Package policy holds the pure access and quota decision functions.
// Nothing here touches the database; callers read the rows, policy
// decides, and the surrounding transaction makes the decision stick.
package policy

import (
	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/types"
)

type Operation string

const (
	OpSubmitFeedback Operation = "submit_feedback"
	OpVote           Operation = "vote"
	OpUnvote         Operation = "unvote"
	OpComment        Operation = "comment"
	OpUpdateFeedback Operation = "update_feedback"
	OpDeleteFeedback Operation = "delete_feedback"
	OpMergeFeedback  Operation = "merge_feedback"
	OpUpdateProject  Operation = "update_project"
	OpManageMembers  Operation = "manage_members"
	OpCreateProject  Operation = "create_project"
)

// Actor is whoever is attempting an operation: either a project member
// with a role, or an anonymous end user holding only the tenant API key.
type Actor struct {
	Role       string
	APIKeyOnly bool
}

func APIKeyActor() Actor {
	return Actor{APIKeyOnly: true}
}

func MemberActor(role string) Actor {
	return Actor{Role: role}
}

func (a Actor) privileged() bool {
	return !a.APIKeyOnly && (a.Role == types.RoleOwner || a.Role == types.RoleAdmin)
}

func (a Actor) canEdit() bool {
	return !a.APIKeyOnly && (a.Role == types.RoleOwner || a.Role == types.RoleAdmin || a.Role == types.RoleMember)
}

// Authorize decides whether actor may perform op against the project,
// and, when the operation targets a feedback item, against that item.
// Rules are evaluated in order: archived gate, closed-status gate, role
// ladder. Reads never pass through here; they are always allowed.
func Authorize(project *models.Project, feedback *models.Feedback, actor Actor, op Operation) error {
	if project.Archived && !archivedException(actor, op) {
		return apperr.Forbidden("project is archived")
	}

	if feedback != nil && (op == OpVote || op == OpComment) && types.IsClosedStatus(feedback.Status) {
		return apperr.Forbidden("voting and commenting are closed for %s feedback", feedback.Status)
	}

	switch op {
	case OpSubmitFeedback, OpVote, OpUnvote, OpComment:
		// Any holder of the tenant credential, member or not.
		return nil
	case OpUpdateFeedback:
		if actor.canEdit() {
			return nil
		}
		return apperr.Forbidden("write access to the project is required")
	case OpDeleteFeedback, OpMergeFeedback, OpUpdateProject, OpManageMembers:
		if actor.privileged() {
			return nil
		}
		return apperr.Forbidden("owner or admin role is required")
	default:
		return apperr.Forbidden("operation not permitted")
	}
}

// Archived projects still accept unvotes from anyone and deletes from
// privileged members; everything else is rejected.
func archivedException(actor Actor, op Operation) bool {
	if op == OpUnvote {
		return true
	}
	return op == OpDeleteFeedback && actor.privileged()
}
