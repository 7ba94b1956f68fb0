package services

import (
	"errors"
	"strings"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/events"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/policy"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxRejectionReasonLength = 500

type SubmitFeedbackInput struct {
	Title       string
	Description string
	Category    string
	UserID      string
	UserEmail   string
}

// CreateFeedback inserts a pending feedback item together with its
// creator's auto-vote. The quota ceiling is re-checked against a fresh
// count inside the transaction, with the project row locked, so two
// racing submissions cannot both squeeze past the last free slot.
func CreateFeedback(db *gorm.DB, project *models.Project, actor policy.Actor, in SubmitFeedbackInput) (*models.Feedback, error) {
	if err := policy.Authorize(project, nil, actor, policy.OpSubmitFeedback); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)

	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}

	if in.UserID == "" {
		return nil, apperr.Validation("userId is required")
	}

	var feedback models.Feedback

	err := db.Transaction(func(tx *gorm.DB) error {
		var current models.Project

		if err := withRowLock(tx).First(&current, project.ID).Error; err != nil {
			return apperr.Internal("failed to lock project", err)
		}

		var count int64

		if err := tx.Model(&models.Feedback{}).
			Scopes(models.ActiveFeedback).
			Where("project_id = ?", project.ID).
			Count(&count).Error; err != nil {
			return apperr.Internal("failed to count feedback", err)
		}

		if err := policy.CheckQuota(current.Tier, policy.OpSubmitFeedback, policy.Counts{FeedbackInProject: count}); err != nil {
			return err
		}

		feedback = models.Feedback{
			ProjectID:   project.ID,
			Title:       in.Title,
			Description: in.Description,
			Category:    in.Category,
			Status:      types.StatusPending,
			AuthorID:    in.UserID,
			AuthorEmail: in.UserEmail,
			VoteCount:   1,
		}

		if err := tx.Create(&feedback).Error; err != nil {
			return apperr.Internal("failed to create feedback", err)
		}

		// Creator auto-vote, same transaction as the insert. A later
		// explicit vote by the creator hits the uniqueness constraint.
		vote := models.Vote{
			FeedbackID: feedback.ID,
			UserID:     in.UserID,
			Email:      in.UserEmail,
		}

		if in.UserEmail != "" {
			key := uuid.NewString()
			vote.NotifyStatusChange = true
			vote.PermissionKey = &key
		}

		if err := tx.Create(&vote).Error; err != nil {
			return apperr.Internal("failed to create creator vote", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	events.Emit(events.Event{
		Name:       events.FeedbackCreated,
		ProjectID:  project.ID,
		FeedbackID: feedback.ID,
		UserID:     in.UserID,
	})

	return &feedback, nil
}

type UpdateFeedbackInput struct {
	Title           *string
	Description     *string
	Category        *string
	Status          *string
	RejectionReason *string
}

// UpdateFeedback applies content and status changes. Entering rejected
// stores the supplied reason; leaving rejected clears it
// unconditionally. A status change that differs from the previous value
// emits a lifecycle event after the transaction commits.
func UpdateFeedback(db *gorm.DB, project *models.Project, actor policy.Actor, feedbackID uint, in UpdateFeedbackInput) (*models.Feedback, error) {
	var feedback models.Feedback
	var oldStatus string
	statusChanged := false

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := withRowLock(tx).
			Where("project_id = ?", project.ID).
			First(&feedback, feedbackID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("feedback not found")
			}
			return apperr.Internal("failed to load feedback", err)
		}

		if feedback.Merged() {
			return apperr.Conflict("feedback has been merged into another item")
		}

		if err := policy.Authorize(project, &feedback, actor, policy.OpUpdateFeedback); err != nil {
			return err
		}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return apperr.Validation("title cannot be empty")
			}
			feedback.Title = title
		}

		if in.Description != nil {
			feedback.Description = *in.Description
		}

		if in.Category != nil {
			feedback.Category = *in.Category
		}

		oldStatus = feedback.Status

		if in.Status != nil && *in.Status != feedback.Status {
			if err := applyStatusChange(project, &feedback, *in.Status, in.RejectionReason); err != nil {
				return err
			}
			statusChanged = true
		} else if in.RejectionReason != nil {
			if feedback.Status != types.StatusRejected {
				return apperr.Validation("rejection reason requires rejected status")
			}
			reason, err := normalizeRejectionReason(in.RejectionReason)
			if err != nil {
				return err
			}
			feedback.RejectionReason = reason
		}

		if err := tx.Save(&feedback).Error; err != nil {
			return apperr.Internal("failed to update feedback", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if statusChanged {
		events.Emit(events.Event{
			Name:       events.FeedbackStatusChange,
			ProjectID:  project.ID,
			FeedbackID: feedback.ID,
			OldStatus:  oldStatus,
			NewStatus:  feedback.Status,
		})
	}

	return &feedback, nil
}

func applyStatusChange(project *models.Project, feedback *models.Feedback, status string, reason *string) error {
	if !types.IsKnownStatus(status) {
		return apperr.Validation("unknown status %q", status)
	}

	if !project.StatusAllowed(status) {
		return apperr.Validation("status %q is not enabled for this project", status)
	}

	feedback.Status = status

	if status == types.StatusRejected {
		normalized, err := normalizeRejectionReason(reason)
		if err != nil {
			return err
		}
		feedback.RejectionReason = normalized
	} else {
		feedback.RejectionReason = nil
	}

	return nil
}

// Empty and whitespace-only reasons are treated as absent.
func normalizeRejectionReason(reason *string) (*string, error) {
	if reason == nil {
		return nil, nil
	}

	trimmed := strings.TrimSpace(*reason)

	if trimmed == "" {
		return nil, nil
	}

	if len(trimmed) > maxRejectionReasonLength {
		return nil, apperr.Validation("rejection reason must be at most %d characters", maxRejectionReasonLength)
	}

	return &trimmed, nil
}

// DeleteFeedback hard-deletes an item with its votes and comments.
// Privileged members may delete even on archived projects.
func DeleteFeedback(db *gorm.DB, project *models.Project, actor policy.Actor, feedbackID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var feedback models.Feedback

		if err := tx.Where("project_id = ?", project.ID).First(&feedback, feedbackID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("feedback not found")
			}
			return apperr.Internal("failed to load feedback", err)
		}

		if err := policy.Authorize(project, &feedback, actor, policy.OpDeleteFeedback); err != nil {
			return err
		}

		if err := tx.Where("feedback_id = ?", feedback.ID).Delete(&models.Vote{}).Error; err != nil {
			return apperr.Internal("failed to delete votes", err)
		}

		if err := tx.Where("feedback_id = ?", feedback.ID).Delete(&models.Comment{}).Error; err != nil {
			return apperr.Internal("failed to delete comments", err)
		}

		if err := tx.Unscoped().Delete(&feedback).Error; err != nil {
			return apperr.Internal("failed to delete feedback", err)
		}

		return nil
	})
}

type ListFeedbackOptions struct {
	// IncludeMerged also returns merge casualties, which default
	// listings hide.
	IncludeMerged bool
	Status        string
	SortByVotes   bool
}

func ListFeedback(db *gorm.DB, projectID uint, opts ListFeedbackOptions) ([]models.Feedback, error) {
	query := db.Where("project_id = ?", projectID)

	if !opts.IncludeMerged {
		query = query.Scopes(models.ActiveFeedback)
	}

	if opts.Status != "" {
		if !types.IsKnownStatus(opts.Status) {
			return nil, apperr.Validation("unknown status %q", opts.Status)
		}
		query = query.Where("status = ?", opts.Status)
	}

	if opts.SortByVotes {
		query = query.Order("vote_count DESC")
	} else {
		query = query.Order("created_at DESC")
	}

	var feedback []models.Feedback

	if err := query.Find(&feedback).Error; err != nil {
		return nil, apperr.Internal("failed to list feedback", err)
	}

	return feedback, nil
}

func GetFeedback(db *gorm.DB, projectID, feedbackID uint) (*models.Feedback, error) {
	var feedback models.Feedback

	if err := db.Where("project_id = ?", projectID).First(&feedback, feedbackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("feedback not found")
		}
		return nil, apperr.Internal("failed to load feedback", err)
	}

	return &feedback, nil
}
