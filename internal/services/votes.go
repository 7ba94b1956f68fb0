package services

import (
	"errors"
	"strings"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/events"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteInput struct {
	UserID string
	Email  string
	Notify bool
}

type VoteResult struct {
	FeedbackID uint `json:"feedback_id"`
	VoteCount  int  `json:"vote_count"`
	HasVoted   bool `json:"has_voted"`
}

// CastVote inserts the (feedback, user) join row and moves the cached
// count in the same transaction. Duplicates are detected by the unique
// index, not by a read-then-write check, so two concurrent requests for
// the same user resolve as one success and one Conflict.
func CastVote(db *gorm.DB, project *models.Project, feedbackID uint, in VoteInput) (*VoteResult, error) {
	if in.UserID == "" {
		return nil, apperr.Validation("userId is required")
	}

	var result VoteResult

	err := db.Transaction(func(tx *gorm.DB) error {
		feedback, err := loadProjectFeedback(tx, project.ID, feedbackID)

		if err != nil {
			return err
		}

		if feedback.Merged() {
			return apperr.Conflict("feedback has been merged into another item")
		}

		if err := policy.Authorize(project, feedback, policy.APIKeyActor(), policy.OpVote); err != nil {
			return err
		}

		vote := models.Vote{
			FeedbackID: feedback.ID,
			UserID:     in.UserID,
			Email:      in.Email,
		}

		if in.Notify {
			key := uuid.NewString()
			vote.NotifyStatusChange = true
			vote.PermissionKey = &key
		}

		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("user has already voted for this feedback")
			}
			return apperr.Internal("failed to create vote", err)
		}

		if err := tx.Model(&models.Feedback{}).
			Where("id = ?", feedback.ID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error; err != nil {
			return apperr.Internal("failed to update vote count", err)
		}

		result = VoteResult{FeedbackID: feedback.ID, HasVoted: true}

		return tx.Model(&models.Feedback{}).
			Where("id = ?", feedback.ID).
			Select("vote_count").
			Scan(&result.VoteCount).Error
	})

	if err != nil {
		return nil, err
	}

	events.Emit(events.Event{
		Name:       events.VoteCast,
		ProjectID:  project.ID,
		FeedbackID: result.FeedbackID,
		UserID:     in.UserID,
	})

	return &result, nil
}

// RemoveVote deletes the join row if present. Absence is not an error;
// the cached count only moves when a row was actually deleted. Unvoting
// stays possible on archived projects.
func RemoveVote(db *gorm.DB, project *models.Project, feedbackID uint, userID string) (*VoteResult, error) {
	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}

	var result VoteResult
	removed := false

	err := db.Transaction(func(tx *gorm.DB) error {
		feedback, err := loadProjectFeedback(tx, project.ID, feedbackID)

		if err != nil {
			return err
		}

		if err := policy.Authorize(project, feedback, policy.APIKeyActor(), policy.OpUnvote); err != nil {
			return err
		}

		res := tx.Where("feedback_id = ? AND user_id = ?", feedback.ID, userID).Delete(&models.Vote{})

		if res.Error != nil {
			return apperr.Internal("failed to delete vote", res.Error)
		}

		if res.RowsAffected > 0 {
			removed = true

			if err := tx.Model(&models.Feedback{}).
				Where("id = ?", feedback.ID).
				UpdateColumn("vote_count", gorm.Expr("vote_count - 1")).Error; err != nil {
				return apperr.Internal("failed to update vote count", err)
			}
		}

		result = VoteResult{FeedbackID: feedback.ID, HasVoted: false}

		return tx.Model(&models.Feedback{}).
			Where("id = ?", feedback.ID).
			Select("vote_count").
			Scan(&result.VoteCount).Error
	})

	if err != nil {
		return nil, err
	}

	if removed {
		events.Emit(events.Event{
			Name:       events.VoteRemoved,
			ProjectID:  project.ID,
			FeedbackID: result.FeedbackID,
			UserID:     userID,
		})
	}

	return &result, nil
}

// Unsubscribe clears the notify opt-in and the permission key on the
// matching vote. A key that matches nothing still reports success:
// unsubscribe links in already-sent emails must keep working after the
// first click.
func Unsubscribe(db *gorm.DB, permissionKey string) error {
	if strings.TrimSpace(permissionKey) == "" {
		return apperr.Validation("permission key is required")
	}

	err := db.Model(&models.Vote{}).
		Where("permission_key = ?", permissionKey).
		Updates(map[string]interface{}{
			"notify_status_change": false,
			"permission_key":       nil,
		}).Error

	if err != nil {
		return apperr.Internal("failed to unsubscribe", err)
	}

	return nil
}

// HasVoted reports whether the user currently holds a vote on the item.
func HasVoted(db *gorm.DB, feedbackID uint, userID string) (bool, error) {
	var count int64

	err := db.Model(&models.Vote{}).
		Where("feedback_id = ? AND user_id = ?", feedbackID, userID).
		Count(&count).Error

	if err != nil {
		return false, apperr.Internal("failed to check vote", err)
	}

	return count > 0, nil
}

func loadProjectFeedback(tx *gorm.DB, projectID, feedbackID uint) (*models.Feedback, error) {
	var feedback models.Feedback

	if err := tx.Where("project_id = ?", projectID).First(&feedback, feedbackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("feedback not found")
		}
		return nil, apperr.Internal("failed to load feedback", err)
	}

	return &feedback, nil
}
