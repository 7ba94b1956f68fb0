package services

import (
	"errors"
	"strings"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/policy"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateProjectInput struct {
	Name        string
	Description string
}

// Statuses that email voters by default; pending churn would be noisy.
var defaultEmailNotifyStatuses = []string{
	types.StatusApproved,
	types.StatusInProgress,
	types.StatusTestflight,
	types.StatusCompleted,
	types.StatusRejected,
}

// CreateProject creates a free-tier workspace with a fresh API key.
// The per-owner project ceiling is re-checked against a fresh count
// inside the transaction, with the owner row locked.
func CreateProject(db *gorm.DB, ownerID uint, in CreateProjectInput) (*models.Project, error) {
	in.Name = strings.TrimSpace(in.Name)

	if in.Name == "" {
		return nil, apperr.Validation("name is required")
	}

	var project models.Project

	err := db.Transaction(func(tx *gorm.DB) error {
		var owner models.User

		if err := withRowLock(tx).First(&owner, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user not found")
			}
			return apperr.Internal("failed to lock user", err)
		}

		var count int64

		if err := tx.Model(&models.Project{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
			return apperr.Internal("failed to count projects", err)
		}

		if err := policy.CheckQuota(types.TierFree, policy.OpCreateProject, policy.Counts{ProjectsOwned: count}); err != nil {
			return err
		}

		project = models.Project{
			Name:                in.Name,
			Description:         in.Description,
			OwnerID:             ownerID,
			Tier:                types.TierFree,
			APIKey:              uuid.NewString(),
			AllowedStatuses:     models.StringListColumn(types.AllStatuses),
			EmailNotifyStatuses: models.StringListColumn(defaultEmailNotifyStatuses),
		}

		if err := tx.Create(&project).Error; err != nil {
			return apperr.Internal("failed to create project", err)
		}

		membership := models.ProjectMembership{
			UserID:             ownerID,
			ProjectID:          project.ID,
			Role:               types.RoleOwner,
			NotifyStatusChange: true,
		}

		if err := tx.Create(&membership).Error; err != nil {
			return apperr.Internal("failed to create owner membership", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &project, nil
}

type UpdateProjectInput struct {
	Name                *string
	Description         *string
	AllowedStatuses     []string
	EmailNotifyStatuses []string
	DiscordWebhook      *string
	SlackWebhook        *string
}

// UpdateProject changes tenant settings. Configuring integration
// webhooks is gated to paid tiers.
func UpdateProject(db *gorm.DB, project *models.Project, actor policy.Actor, in UpdateProjectInput) (*models.Project, error) {
	if err := policy.Authorize(project, nil, actor, policy.OpUpdateProject); err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		project.Name = name
	}

	if in.Description != nil {
		project.Description = *in.Description
	}

	if in.AllowedStatuses != nil {
		for _, s := range in.AllowedStatuses {
			if !types.IsKnownStatus(s) {
				return nil, apperr.Validation("unknown status %q", s)
			}
		}
		project.AllowedStatuses = models.StringListColumn(in.AllowedStatuses)
	}

	if in.EmailNotifyStatuses != nil {
		for _, s := range in.EmailNotifyStatuses {
			if !types.IsKnownStatus(s) {
				return nil, apperr.Validation("unknown status %q", s)
			}
		}
		project.EmailNotifyStatuses = models.StringListColumn(in.EmailNotifyStatuses)
	}

	if in.DiscordWebhook != nil || in.SlackWebhook != nil {
		wantsIntegration := (in.DiscordWebhook != nil && *in.DiscordWebhook != "") ||
			(in.SlackWebhook != nil && *in.SlackWebhook != "")

		if wantsIntegration {
			if err := policy.CheckIntegrationQuota(project.Tier); err != nil {
				return nil, err
			}
		}

		if in.DiscordWebhook != nil {
			project.DiscordWebhook = *in.DiscordWebhook
		}
		if in.SlackWebhook != nil {
			project.SlackWebhook = *in.SlackWebhook
		}
	}

	if err := db.Save(project).Error; err != nil {
		return nil, apperr.Internal("failed to update project", err)
	}

	return project, nil
}

// SetProjectArchived flips the archived flag. Archiving and unarchiving
// are owner/admin project-settings operations and bypass the archived
// content gate.
func SetProjectArchived(db *gorm.DB, project *models.Project, actor policy.Actor, archived bool) (*models.Project, error) {
	if actor.APIKeyOnly || (actor.Role != types.RoleOwner && actor.Role != types.RoleAdmin) {
		return nil, apperr.Forbidden("owner or admin role is required")
	}

	if err := db.Model(project).UpdateColumn("archived", archived).Error; err != nil {
		return nil, apperr.Internal("failed to update project", err)
	}

	project.Archived = archived

	return project, nil
}
