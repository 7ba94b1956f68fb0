package middleware

import (
	"errors"
	"net/http"

	"github.com/clamor-dev/clamor/db"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// APIKeyMiddleware authenticates widget requests by the tenant API key.
// Archived projects still resolve here: reads stay available, and the
// access policy decides which writes are refused.
func APIKeyMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		apiKey := ctx.GetHeader("X-Api-Key")

		if apiKey == "" {
			apiKey = ctx.Query("api_key")
		}

		if apiKey == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key is required"})
			return
		}

		var project models.Project

		if err := db.DB.Where("api_key = ?", apiKey).First(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
				return
			}
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		ctx.Set(types.ContextProjectKey, project)
		ctx.Next()
	}
}
