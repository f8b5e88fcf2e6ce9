package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/handler"
	"github.com/noah-isme/sma-records-api/internal/middleware"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/service"
	"github.com/noah-isme/sma-records-api/pkg/config"
	"github.com/noah-isme/sma-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-records-api/pkg/middleware/requestid"
)

type routeDeps struct {
	tokens    *service.TokenService
	metrics   *service.MetricsService
	marks     *handler.MarkHandler
	reports   *handler.ReportHandler
	refs      *handler.ReferenceHandler
	deadlines *handler.DeadlineHandler
	ops       *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.ops.Health)
	r.GET("/ready", deps.ops.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", deps.ops.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := []models.UserRole{models.RoleAdmin, models.RoleHeadteacher, models.RoleTeacher}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.tokens))
	{
		classes := api.Group("/classes/:level")
		classes.GET("/streams", deps.refs.Streams)
		classes.POST("/streams", middleware.RequireRoles(models.RoleAdmin, models.RoleHeadteacher), deps.refs.AddStream)
		classes.GET("/records", middleware.RequireRoles(staff...), deps.marks.Load)
		classes.POST("/records", middleware.RequireRoles(staff...), deps.marks.Save)
		classes.GET("/records/:studentNo/report", middleware.RequireRoles(staff...), deps.reports.StudentReport)
		classes.POST("/records/:studentNo/archive", middleware.RequireRoles(models.RoleAdmin, models.RoleHeadteacher), deps.marks.Archive)

		api.GET("/subjects", deps.refs.Subjects)
		api.POST("/subjects", middleware.RequireRoles(models.RoleAdmin, models.RoleHeadteacher), deps.refs.CreateSubject)
		api.GET("/grading-bands", deps.refs.Bands)
		api.PUT("/grading-bands", middleware.RequireRoles(models.RoleAdmin), deps.refs.ReplaceBands)
		api.GET("/school-profile", deps.refs.SchoolProfile)

		api.GET("/deadline", deps.deadlines.Status)
		api.POST("/deadline", middleware.RequireRoles(models.RoleAdmin), deps.deadlines.Set)
	}

	return r
}
