package handlers

import (
	"net/http"
	"time"

	"github.com/clamor-dev/clamor/db"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/policy"
	"github.com/clamor-dev/clamor/internal/services"
	"github.com/clamor-dev/clamor/internal/utils"
	"github.com/gin-gonic/gin"
)

// Widget handlers serve the end-user surface embedded in client
// applications, authenticated by the tenant API key alone.

type SubmitFeedbackRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	UserID      string `json:"user_id" binding:"required"`
	UserEmail   string `json:"user_email"`
}

type VoteRequest struct {
	UserID             string `json:"user_id" binding:"required"`
	Email              string `json:"email"`
	NotifyStatusChange bool   `json:"notify_status_change"`
}

type UnvoteRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type WidgetCommentRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func commentResponse(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		IsAdmin:   c.IsAdmin,
		CreatedAt: c.CreatedAt,
	}
}

func currentProject(ctx *gin.Context) (*models.Project, bool) {
	project, err := utils.GetCurrentProject(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Project not authenticated"})
		return nil, false
	}

	return &project, true
}

func SubmitFeedback(ctx *gin.Context) {
	project, ok := currentProject(ctx)

	if !ok {
		return
	}

	var body SubmitFeedbackRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	feedback, err := services.CreateFeedback(db.DB, project, policy.APIKeyActor(), services.SubmitFeedbackInput{
		Title:       body.Title,
		Description: body.Description,
		Category:    body.Category,
		UserID:      body.UserID,
		UserEmail:   body.UserEmail,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, feedbackResponse(feedback))
}

// ListWidgetFeedback never exposes merge casualties.
func ListWidgetFeedback(ctx *gin.Context) {
	project, ok := currentProject(ctx)

	if !ok {
		return
	}

	opts := services.ListFeedbackOptions{
		Status:      ctx.Query("status"),
		SortByVotes: ctx.Query("sort") == "votes",
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

func CastVote(ctx *gin.Context) {
	project, ok := currentProject(ctx)

	if !ok {
		return
	}

	feedbackID, ok := parseFeedbackID(ctx)

	if !ok {
		return
	}

	var body VoteRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := services.CastVote(db.DB, project, feedbackID, services.VoteInput{
		UserID: body.UserID,
		Email:  body.Email,
		Notify: body.NotifyStatusChange,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func RemoveVote(ctx *gin.Context) {
	project, ok := currentProject(ctx)

	if !ok {
		return
	}

	feedbackID, ok := parseFeedbackID(ctx)

	if !ok {
		return
	}

	var body UnvoteRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := services.RemoveVote(db.DB, project, feedbackID, body.UserID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func CreateWidgetComment(ctx *gin.Context) {
	project, ok := currentProject(ctx)

	if !ok {
		return
	}

	feedbackID, ok := parseFeedbackID(ctx)

	if !ok {
		return
	}

	var body WidgetCommentRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment, err := services.CreateComment(db.DB, project, policy.APIKeyActor(), feedbackID, services.CommentInput{
		AuthorID: body.UserID,
		Content:  body.Content,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, commentResponse(comment))
}

func ListWidgetComments(ctx *gin.Context) {
	project, ok := currentProject(ctx)

	if !ok {
		return
	}

	feedbackID, ok := parseFeedbackID(ctx)

	if !ok {
		return
	}

	comments, err := services.ListComments(db.DB, project.ID, feedbackID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]CommentResponse, 0, len(comments))

	for i := range comments {
		response = append(response, commentResponse(&comments[i]))
	}

	ctx.JSON(http.StatusOK, response)
}
