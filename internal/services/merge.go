package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/clamor-dev/clamor/internal/events"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/policy"
	"github.com/clamor-dev/clamor/internal/revenue"
	"gorm.io/gorm"
)

// MergeFeedback combines duplicate items into the primary as one
// all-or-nothing transaction: votes migrate with per-user
// de-duplication, comments migrate with a provenance prefix, the
// primary's cached vote count and total MRR are recomputed from the
// post-migration rows, and each secondary becomes a casualty pointing
// at the primary. Any failure rolls the whole thing back.
//
// Merging into an item that already absorbed others appends to its
// absorbed-id list; casualties never keep a list of their own.
func MergeFeedback(db *gorm.DB, registry revenue.Registry, project *models.Project, actor policy.Actor, actorUserID uint, primaryID uint, secondaryIDs []uint) (*models.Feedback, error) {
	if err := policy.Authorize(project, nil, actor, policy.OpMergeFeedback); err != nil {
		return nil, err
	}

	if len(secondaryIDs) == 0 {
		return nil, apperr.Validation("at least one secondary feedback id is required")
	}

	seen := make(map[uint]bool, len(secondaryIDs))
	ids := make([]uint, 0, len(secondaryIDs))

	for _, id := range secondaryIDs {
		if id == primaryID {
			return nil, apperr.Validation("primary feedback cannot be merged into itself")
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	var primary models.Feedback

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := withRowLock(tx).
			Where("project_id = ?", project.ID).
			First(&primary, primaryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("primary feedback not found")
			}
			return apperr.Internal("failed to lock primary feedback", err)
		}

		if primary.Merged() {
			return apperr.Conflict("primary feedback has already been merged")
		}

		var secondaries []models.Feedback

		if err := withRowLock(tx).
			Where("project_id = ? AND id IN ?", project.ID, ids).
			Find(&secondaries).Error; err != nil {
			return apperr.Internal("failed to lock secondary feedback", err)
		}

		if len(secondaries) != len(ids) {
			return apperr.NotFound("one or more secondary feedback items were not found in this project")
		}

		for i := range secondaries {
			if secondaries[i].Merged() {
				return apperr.Conflict("feedback %d has already been merged", secondaries[i].ID)
			}
		}

		voters, err := migrateVotes(tx, &primary, secondaries)

		if err != nil {
			return err
		}

		if err := migrateComments(tx, &primary, secondaries); err != nil {
			return err
		}

		totalMRR, err := sumVoterMRR(registry, voters)

		if err != nil {
			return err
		}

		mergedIDs := primary.MergedIDList()
		now := time.Now()

		for i := range secondaries {
			s := &secondaries[i]
			mergedIDs = append(mergedIDs, s.ID)

			updates := map[string]interface{}{
				"merged_into_id":      primary.ID,
				"merged_at":           now,
				"merged_feedback_ids": nil,
				"vote_count":          0,
			}

			if err := tx.Model(&models.Feedback{}).Where("id = ?", s.ID).Updates(updates).Error; err != nil {
				return apperr.Internal("failed to mark feedback as merged", err)
			}

			audit := models.FeedbackMerge{
				SourceFeedbackID: s.ID,
				TargetFeedbackID: primary.ID,
				MergedBy:         actorUserID,
			}

			if err := tx.Create(&audit).Error; err != nil {
				return apperr.Internal("failed to record merge", err)
			}
		}

		primary.VoteCount = len(voters)
		primary.TotalMRR = &totalMRR
		primary.MergedFeedbackIDs = models.IDListColumn(mergedIDs)

		updates := map[string]interface{}{
			"vote_count":          primary.VoteCount,
			"total_mrr":           primary.TotalMRR,
			"merged_feedback_ids": primary.MergedFeedbackIDs,
		}

		if err := tx.Model(&models.Feedback{}).Where("id = ?", primary.ID).Updates(updates).Error; err != nil {
			return apperr.Internal("failed to update primary feedback", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	events.Emit(events.Event{
		Name:         events.FeedbackMerged,
		ProjectID:    project.ID,
		FeedbackID:   primary.ID,
		SecondaryIDs: ids,
	})

	return &primary, nil
}

// migrateVotes re-points each secondary's votes at the primary,
// discarding rows from users who already voted on the primary. Returns
// the distinct post-migration voter ids.
func migrateVotes(tx *gorm.DB, primary *models.Feedback, secondaries []models.Feedback) ([]string, error) {
	var primaryVotes []models.Vote

	if err := tx.Where("feedback_id = ?", primary.ID).Find(&primaryVotes).Error; err != nil {
		return nil, apperr.Internal("failed to load primary votes", err)
	}

	voters := make([]string, 0, len(primaryVotes))
	hasVote := make(map[string]bool, len(primaryVotes))

	for _, v := range primaryVotes {
		hasVote[v.UserID] = true
		voters = append(voters, v.UserID)
	}

	for i := range secondaries {
		var votes []models.Vote

		if err := tx.Where("feedback_id = ?", secondaries[i].ID).Find(&votes).Error; err != nil {
			return nil, apperr.Internal("failed to load secondary votes", err)
		}

		for _, v := range votes {
			if hasVote[v.UserID] {
				if err := tx.Delete(&models.Vote{}, v.ID).Error; err != nil {
					return nil, apperr.Internal("failed to discard duplicate vote", err)
				}
				continue
			}

			if err := tx.Model(&models.Vote{}).Where("id = ?", v.ID).
				UpdateColumn("feedback_id", primary.ID).Error; err != nil {
				return nil, apperr.Internal("failed to migrate vote", err)
			}

			hasVote[v.UserID] = true
			voters = append(voters, v.UserID)
		}
	}

	return voters, nil
}

// migrateComments re-points each secondary's comments at the primary,
// rewriting the content to carry provenance.
func migrateComments(tx *gorm.DB, primary *models.Feedback, secondaries []models.Feedback) error {
	for i := range secondaries {
		s := &secondaries[i]

		var comments []models.Comment

		if err := tx.Where("feedback_id = ?", s.ID).Find(&comments).Error; err != nil {
			return apperr.Internal("failed to load comments", err)
		}

		for _, c := range comments {
			content := fmt.Sprintf("[Originally on: %s] %s", s.Title, c.Content)

			updates := map[string]interface{}{
				"feedback_id": primary.ID,
				"content":     content,
			}

			if err := tx.Model(&models.Comment{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
				return apperr.Internal("failed to migrate comment", err)
			}
		}
	}

	return nil
}

func sumVoterMRR(registry revenue.Registry, voters []string) (float64, error) {
	if registry == nil {
		return 0, nil
	}

	mrr, err := registry.MonthlyRevenue(voters)

	if err != nil {
		return 0, apperr.Internal("failed to look up voter revenue", err)
	}

	var total float64

	for _, v := range voters {
		total += mrr[v]
	}

	return total, nil
}
