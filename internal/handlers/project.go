package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/clamor-dev/clamor/db"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/policy"
	"github.com/clamor-dev/clamor/internal/services"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/clamor-dev/clamor/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name                *string  `json:"name"`
	Description         *string  `json:"description"`
	AllowedStatuses     []string `json:"allowed_statuses"`
	EmailNotifyStatuses []string `json:"email_notify_statuses"`
	DiscordWebhook      *string  `json:"discord_webhook"`
	SlackWebhook        *string  `json:"slack_webhook"`
}

type ArchiveProjectRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

type ProjectResponse struct {
	ID                  uint     `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	OwnerID             uint     `json:"owner_id"`
	Tier                string   `json:"tier"`
	Archived            bool     `json:"archived"`
	APIKey              string   `json:"api_key,omitempty"`
	AllowedStatuses     []string `json:"allowed_statuses"`
	EmailNotifyStatuses []string `json:"email_notify_statuses"`
}

func projectResponse(project *models.Project, includeKey bool) ProjectResponse {
	resp := ProjectResponse{
		ID:                  project.ID,
		Name:                project.Name,
		Description:         project.Description,
		OwnerID:             project.OwnerID,
		Tier:                project.Tier,
		Archived:            project.Archived,
		AllowedStatuses:     project.AllowedStatusList(),
		EmailNotifyStatuses: project.EmailNotifyStatusList(),
	}

	if includeKey {
		resp.APIKey = project.APIKey
	}

	return resp
}

// loadProjectAndActor resolves the :project_id route param to a project
// and the requesting operator's role in it. Non-members get NotFound.
func loadProjectAndActor(ctx *gin.Context) (*models.Project, policy.Actor, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, policy.Actor{}, false
	}

	projectID, err := strconv.ParseUint(ctx.Param("project_id"), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id"})
		return nil, policy.Actor{}, false
	}

	var project models.Project

	if err := db.DB.First(&project, uint(projectID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return nil, policy.Actor{}, false
	}

	actor, err := services.ResolveActor(db.DB, &project, userID)

	if err != nil {
		respondError(ctx, err)
		return nil, policy.Actor{}, false
	}

	return &project, actor, true
}

func CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, err := services.CreateProject(db.DB, userID, services.CreateProjectInput{
		Name:        body.Name,
		Description: body.Description,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, projectResponse(project, true))
}

func ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var memberships []models.ProjectMembership

	if err := db.DB.Preload("Project").Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, 0, len(memberships))

	for _, m := range memberships {
		includeKey := m.Role == types.RoleOwner || m.Role == types.RoleAdmin
		response = append(response, projectResponse(&m.Project, includeKey))
	}

	ctx.JSON(http.StatusOK, response)
}

func UpdateProject(ctx *gin.Context) {
	project, actor, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	var body UpdateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updated, err := services.UpdateProject(db.DB, project, actor, services.UpdateProjectInput{
		Name:                body.Name,
		Description:         body.Description,
		AllowedStatuses:     body.AllowedStatuses,
		EmailNotifyStatuses: body.EmailNotifyStatuses,
		DiscordWebhook:      body.DiscordWebhook,
		SlackWebhook:        body.SlackWebhook,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(updated, true))
}

func ArchiveProject(ctx *gin.Context) {
	project, actor, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	var body ArchiveProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updated, err := services.SetProjectArchived(db.DB, project, actor, *body.Archived)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(updated, false))
}

func DeleteProject(ctx *gin.Context) {
	project, actor, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	userID, _ := utils.GetCurrentUserID(ctx)

	if actor.Role != types.RoleOwner || project.OwnerID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the project owner can delete it"})
		return
	}

	if err := db.DB.Unscoped().Delete(project).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
