package handlers

import (
	"net/http"
	"strconv"

	"github.com/clamor-dev/clamor/db"
	"github.com/clamor-dev/clamor/internal/services"
	"github.com/gin-gonic/gin"
)

type AddMemberRequest struct {
	Email              string `json:"email" binding:"required,email"`
	Role               string `json:"role" binding:"required"`
	NotifyStatusChange *bool  `json:"notify_status_change"`
}

type MemberResponse struct {
	UserID             uint   `json:"user_id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	NotifyStatusChange bool   `json:"notify_status_change"`
}

func AddMember(ctx *gin.Context) {
	project, actor, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	var body AddMemberRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	notify := true

	if body.NotifyStatusChange != nil {
		notify = *body.NotifyStatusChange
	}

	membership, err := services.AddMember(db.DB, project, actor, services.AddMemberInput{
		Email:              body.Email,
		Role:               body.Role,
		NotifyStatusChange: notify,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, MemberResponse{
		UserID:             membership.UserID,
		Role:               membership.Role,
		NotifyStatusChange: membership.NotifyStatusChange,
	})
}

func ListMembers(ctx *gin.Context) {
	project, _, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	memberships, err := services.ListMembers(db.DB, project.ID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]MemberResponse, 0, len(memberships))

	for _, m := range memberships {
		response = append(response, MemberResponse{
			UserID:             m.UserID,
			Name:               m.User.Name,
			Email:              m.User.Email,
			Role:               m.Role,
			NotifyStatusChange: m.NotifyStatusChange,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func RemoveMember(ctx *gin.Context) {
	project, actor, ok := loadProjectAndActor(ctx)

	if !ok {
		return
	}

	userID, err := strconv.ParseUint(ctx.Param("user_id"), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	if err := services.RemoveMember(db.DB, project, actor, uint(userID)); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
