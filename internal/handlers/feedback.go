package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/clamor-dev/clamor/db"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/revenue"
	"github.com/clamor-dev/clamor/internal/services"
	"github.com/clamor-dev/clamor/internal/utils"
	"github.com/gin-gonic/gin"
)

// RevenueRegistry is the external user-revenue collaborator the merge
// engine consults; main wires the real client, tests leave the default.
var RevenueRegistry revenue.Registry = revenue.NopRegistry{}

type UpdateFeedbackRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Status          *string `json:"status"`
	Category        *string `json:"category"`
	RejectionReason *string `json:"rejection_reason"`
}

type MergeFeedbackRequest struct {
	PrimaryFeedbackID    uint   `json:"primary_feedback_id" binding:"required"`
	SecondaryFeedbackIDs []uint `json:"secondary_feedback_ids" binding:"required"`
}

type AdminCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type FeedbackResponse struct {
	ID                uint       `json:"id"`
	ProjectID         uint       `json:"project_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Status            string     `json:"status"`
	Category          string     `json:"category"`
	AuthorID          string     `json:"author_id"`
	VoteCount         int        `json:"vote_count"`
	TotalMRR          *float64   `json:"total_mrr"`
	RejectionReason   *string    `json:"rejection_reason"`
	MergedIntoID      *uint      `json:"merged_into_id"`
	MergedAt          *time.Time `json:"merged_at"`
	MergedFeedbackIDs []uint     `json:"merged_feedback_ids"`
	CreatedAt         time.Time  `json:"created_at"`
}

func feedbackResponse(f *models.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:                f.ID,
		ProjectID:         f.ProjectID,
		Title:             f.Title,
		Description:       f.Description,
		Status:            f.Status,
		Category:          f.Category,
		AuthorID:          f.AuthorID,
		VoteCount:         f.VoteCount,
		TotalMRR:          f.TotalMRR,
		RejectionReason:   f.RejectionReason,
		MergedIntoID:      f.MergedIntoID,
		MergedAt:          f.MergedAt,
		MergedFeedbackIDs: f.MergedIDList(),
		CreatedAt:         f.CreatedAt,
	}
}

func parseFeedbackID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("feedback_id"), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback id"})
		return 0, false
	}

	return uint(id), true
}

// ListProjectFeedback is the operator listing; merge casualties are
// hidden unless include_merged is set.
func ListProjectFeedback(ctx *gin.Context) {
	project, _, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	opts := services.ListFeedbackOptions{
		IncludeMerged: ctx.Query("include_merged") == "true",
		Status:        ctx.Query("status"),
		SortByVotes:   ctx.Query("sort") == "votes",
	}

	feedback, err := services.ListFeedback(db.DB, project.ID, opts)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]FeedbackResponse, 0, len(feedback))

	for i := range feedback {
		response = append(response, feedbackResponse(&feedback[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func UpdateFeedback(ctx *gin.Context) {
	project, actor, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	feedbackID, ok := parseFeedbackID(ctx)

	if !ok {
		return
	}

	var body UpdateFeedbackRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	feedback, err := services.UpdateFeedback(db.DB, project, actor, feedbackID, services.UpdateFeedbackInput{
		Title:           body.Title,
		Description:     body.Description,
		Category:        body.Category,
		Status:          body.Status,
		RejectionReason: body.RejectionReason,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, feedbackResponse(feedback))
}

func DeleteFeedback(ctx *gin.Context) {
	project, actor, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	feedbackID, ok := parseFeedbackID(ctx)

	if !ok {
		return
	}

	if err := services.DeleteFeedback(db.DB, project, actor, feedbackID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func MergeFeedback(ctx *gin.Context) {
	project, actor, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	var body MergeFeedbackRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, _ := utils.GetCurrentUserID(ctx)

	merged, err := services.MergeFeedback(db.DB, RevenueRegistry, project, actor, userID, body.PrimaryFeedbackID, body.SecondaryFeedbackIDs)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, feedbackResponse(merged))
}

// CreateAdminComment posts an operator reply on a feedback item.
func CreateAdminComment(ctx *gin.Context) {
	project, actor, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	feedbackID, ok := parseFeedbackID(ctx)

	if !ok {
		return
	}

	var body AdminCommentRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, _ := utils.GetCurrentUserID(ctx)

	comment, err := services.CreateComment(db.DB, project, actor, feedbackID, services.CommentInput{
		AuthorID: strconv.FormatUint(uint64(userID), 10),
		Content:  body.Content,
		IsAdmin:  true,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, commentResponse(comment))
}
