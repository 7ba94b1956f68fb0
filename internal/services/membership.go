package services

import (
	"errors"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/policy"
	"github.com/clamor-dev/clamor/internal/types"
	"gorm.io/gorm"
)

// ResolveActor maps an operator to their role in the project. Users
// with no membership get NotFound, matching how the dashboard scopes
// project visibility.
func ResolveActor(db *gorm.DB, project *models.Project, userID uint) (policy.Actor, error) {
	if project.OwnerID == userID {
		return policy.MemberActor(types.RoleOwner), nil
	}

	var membership models.ProjectMembership

	err := db.Where("user_id = ? AND project_id = ?", userID, project.ID).First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.Actor{}, apperr.NotFound("project not found")
		}
		return policy.Actor{}, apperr.Internal("failed to load membership", err)
	}

	return policy.MemberActor(membership.Role), nil
}

type AddMemberInput struct {
	Email              string
	Role               string
	NotifyStatusChange bool
}

// AddMember invites an existing user into the project. Team membership
// is a team-tier feature; the ceiling is checked inside the transaction.
func AddMember(db *gorm.DB, project *models.Project, actor policy.Actor, in AddMemberInput) (*models.ProjectMembership, error) {
	if err := policy.Authorize(project, nil, actor, policy.OpManageMembers); err != nil {
		return nil, err
	}

	if !types.IsKnownRole(in.Role) || in.Role == types.RoleOwner {
		return nil, apperr.Validation("role must be one of admin, member, viewer")
	}

	var membership models.ProjectMembership

	err := db.Transaction(func(tx *gorm.DB) error {
		var current models.Project

		if err := withRowLock(tx).First(&current, project.ID).Error; err != nil {
			return apperr.Internal("failed to lock project", err)
		}

		if err := policy.CheckQuota(current.Tier, policy.OpManageMembers, policy.Counts{}); err != nil {
			return err
		}

		var user models.User

		if err := tx.Where("email = ?", in.Email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("no user with that email")
			}
			return apperr.Internal("failed to load user", err)
		}

		if user.ID == current.OwnerID {
			return apperr.Conflict("user already owns this project")
		}

		membership = models.ProjectMembership{
			UserID:             user.ID,
			ProjectID:          project.ID,
			Role:               in.Role,
			NotifyStatusChange: in.NotifyStatusChange,
		}

		if err := tx.Create(&membership).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("user is already a member of this project")
			}
			return apperr.Internal("failed to create membership", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &membership, nil
}

func RemoveMember(db *gorm.DB, project *models.Project, actor policy.Actor, userID uint) error {
	if err := policy.Authorize(project, nil, actor, policy.OpManageMembers); err != nil {
		return err
	}

	if userID == project.OwnerID {
		return apperr.Validation("the project owner cannot be removed")
	}

	// Hard delete so the (user, project) unique slot can be reused on
	// a later re-invite.
	res := db.Unscoped().Where("user_id = ? AND project_id = ?", userID, project.ID).Delete(&models.ProjectMembership{})

	if res.Error != nil {
		return apperr.Internal("failed to remove member", res.Error)
	}

	if res.RowsAffected == 0 {
		return apperr.NotFound("membership not found")
	}

	return nil
}

func ListMembers(db *gorm.DB, projectID uint) ([]models.ProjectMembership, error) {
	var memberships []models.ProjectMembership

	if err := db.Preload("User").Where("project_id = ?", projectID).Find(&memberships).Error; err != nil {
		return nil, apperr.Internal("failed to list members", err)
	}

	return memberships, nil
}
