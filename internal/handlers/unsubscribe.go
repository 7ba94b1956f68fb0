package handlers

import (
	"net/http"

	"github.com/clamor-dev/clamor/db"
	"github.com/clamor-dev/clamor/internal/services"
	"github.com/gin-gonic/gin"
)

// Unsubscribe handles one-click opt-out links from notification emails.
// No credential beyond the permission key itself; a second click on the
// same link still reports success.
func Unsubscribe(ctx *gin.Context) {
	key := ctx.Param("key")

	if err := services.Unsubscribe(db.DB, key); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"unsubscribed": true})
}
