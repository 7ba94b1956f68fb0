package utils

import (
	"fmt"

	"github.com/clamor-dev/clamor/internal/middleware"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/gin-gonic/gin"
)

func GetCurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return middleware.AuthenticatedUser{}, fmt.Errorf("user not authenticated")
	}

	authenticatedUser, ok := user.(middleware.AuthenticatedUser)

	if !ok {
		return middleware.AuthenticatedUser{}, fmt.Errorf("invalid user type in context")
	}

	return authenticatedUser, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

// GetCurrentProject returns the tenant resolved by the API-key middleware.
func GetCurrentProject(ctx *gin.Context) (models.Project, error) {
	value, exists := ctx.Get(types.ContextProjectKey)

	if !exists {
		return models.Project{}, fmt.Errorf("project not authenticated")
	}

	project, ok := value.(models.Project)

	if !ok {
		return models.Project{}, fmt.Errorf("invalid project type in context")
	}

	return project, nil
}
