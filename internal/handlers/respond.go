package handlers

import (
	"log"

	"github.com/clamor-dev/clamor/internal/apperr"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto the wire. Internal errors are
// logged and masked; taxonomy errors are surfaced verbatim.
func respondError(ctx *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		log.Printf("internal error on %s %s: %v", ctx.Request.Method, ctx.FullPath(), err)
	}

	ctx.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.PublicMessage(err)})
}
