package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/compliance-case-api/internal/handler"
	"github.com/noah-isme/compliance-case-api/internal/middleware"
	"github.com/noah-isme/compliance-case-api/internal/models"
	"github.com/noah-isme/compliance-case-api/internal/service"
	"github.com/noah-isme/compliance-case-api/pkg/config"
	"github.com/noah-isme/compliance-case-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/compliance-case-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/compliance-case-api/pkg/middleware/requestid"
)

type handlers struct {
	cases         *handler.CaseHandler
	statuses      *handler.StatusHandler
	public        *handler.PublicHandler
	organizations *handler.OrganizationHandler
	metrics       *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, tokens middleware.TokenValidator, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	public := api.Group("/public")
	public.POST("/requests/:token", h.public.SubmitRequest)
	public.POST("/grievances/:token", h.public.SubmitGrievance)

	secured := api.Group("")
	secured.Use(middleware.JWT(tokens))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	cases := secured.Group("/cases")
	cases.GET("", h.cases.List)
	cases.GET("/:id", h.cases.Get)
	cases.PATCH("/:id", h.cases.Transition)
	cases.GET("/:id/history", h.cases.History)
	cases.GET("/:id/history/export", h.cases.ExportHistory)

	statuses := secured.Group("/statuses")
	statuses.GET("", h.statuses.List)
	statuses.GET("/:id", h.statuses.Get)
	statuses.POST("", adminOnly, h.statuses.Create)
	statuses.PUT("/:id", adminOnly, h.statuses.Update)

	secured.POST("/organizations/:id/request-link", adminOnly, middleware.SameOrganization("id"), h.organizations.IssueRequestLink)

	return r
}
