package services

import (
	"strings"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/policy"
	"gorm.io/gorm"
)

type CommentInput struct {
	AuthorID string
	Content  string
	IsAdmin  bool
}

// CreateComment appends a comment to an open feedback item. Closed
// statuses and archived projects refuse new comments.
func CreateComment(db *gorm.DB, project *models.Project, actor policy.Actor, feedbackID uint, in CommentInput) (*models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)

	if in.Content == "" {
		return nil, apperr.Validation("content is required")
	}

	if in.AuthorID == "" {
		return nil, apperr.Validation("userId is required")
	}

	var comment models.Comment

	err := db.Transaction(func(tx *gorm.DB) error {
		feedback, err := loadProjectFeedback(tx, project.ID, feedbackID)

		if err != nil {
			return err
		}

		if feedback.Merged() {
			return apperr.Conflict("feedback has been merged into another item")
		}

		if err := policy.Authorize(project, feedback, actor, policy.OpComment); err != nil {
			return err
		}

		comment = models.Comment{
			FeedbackID: feedback.ID,
			AuthorID:   in.AuthorID,
			Content:    in.Content,
			IsAdmin:    in.IsAdmin,
		}

		if err := tx.Create(&comment).Error; err != nil {
			return apperr.Internal("failed to create comment", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &comment, nil
}

func ListComments(db *gorm.DB, projectID, feedbackID uint) ([]models.Comment, error) {
	if _, err := GetFeedback(db, projectID, feedbackID); err != nil {
		return nil, err
	}

	var comments []models.Comment

	if err := db.Where("feedback_id = ?", feedbackID).Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, apperr.Internal("failed to list comments", err)
	}

	return comments, nil
}
