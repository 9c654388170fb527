package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/compliance-case-api/internal/middleware"
	"github.com/noah-isme/compliance-case-api/internal/models"
)

func actorFromContext(c *gin.Context) models.Actor {
	return models.ActorFromClaims(middleware.ClaimsFromContext(c))
}
