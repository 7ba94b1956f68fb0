package handlers

import (
	"net/http"

	"github.com/clamor-dev/clamor/db"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/services"
	"github.com/gin-gonic/gin"
)

type DashboardResponse struct {
	Project        ProjectSummary     `json:"project"`
	FeedbackTotal  int64              `json:"feedback_total"`
	MergedTotal    int64              `json:"merged_total"`
	CountsByStatus map[string]int64   `json:"counts_by_status"`
	TopVoted       []FeedbackResponse `json:"top_voted"`
}

type ProjectSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tier        string `json:"tier"`
	Archived    bool   `json:"archived"`
}

// GetDashboard summarizes a project's feedback for the operator UI.
func GetDashboard(ctx *gin.Context) {
	project, _, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	var total int64

	if err := db.DB.Model(&models.Feedback{}).
		Scopes(models.ActiveFeedback).
		Where("project_id = ?", project.ID).
		Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	var mergedTotal int64

	if err := db.DB.Model(&models.Feedback{}).
		Where("project_id = ? AND merged_into_id IS NOT NULL", project.ID).
		Count(&mergedTotal).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	type statusCount struct {
		Status string
		Count  int64
	}

	var rows []statusCount

	if err := db.DB.Model(&models.Feedback{}).
		Scopes(models.ActiveFeedback).
		Where("project_id = ?", project.ID).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	counts := make(map[string]int64, len(rows))

	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	top, err := services.ListFeedback(db.DB, project.ID, services.ListFeedbackOptions{SortByVotes: true})

	if err != nil {
		respondError(ctx, err)
		return
	}

	if len(top) > 5 {
		top = top[:5]
	}

	topVoted := make([]FeedbackResponse, 0, len(top))

	for i := range top {
		topVoted = append(topVoted, feedbackResponse(&top[i]))
	}

	ctx.JSON(http.StatusOK, DashboardResponse{
		Project: ProjectSummary{
			ID:          project.ID,
			Name:        project.Name,
			Description: project.Description,
			Tier:        project.Tier,
			Archived:    project.Archived,
		},
		FeedbackTotal:  total,
		MergedTotal:    mergedTotal,
		CountsByStatus: counts,
		TopVoted:       topVoted,
	})
}
