package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/studyshare/studyshare-api/api/swagger"
	"github.com/studyshare/studyshare-api/internal/handler"
	"github.com/studyshare/studyshare-api/internal/middleware"
	"github.com/studyshare/studyshare-api/internal/models"
	"github.com/studyshare/studyshare-api/internal/repository"
	"github.com/studyshare/studyshare-api/internal/service"
	"github.com/studyshare/studyshare-api/pkg/cache"
	"github.com/studyshare/studyshare-api/pkg/config"
	"github.com/studyshare/studyshare-api/pkg/database"
	"github.com/studyshare/studyshare-api/pkg/logger"
	corsmiddleware "github.com/studyshare/studyshare-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studyshare/studyshare-api/pkg/middleware/requestid"
	"github.com/studyshare/studyshare-api/pkg/storage"
)

// @title StudyShare API
// @version 1.0.0
// @description Study-resource sharing platform backend
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, listing cache disabled", "error", err)
		redisClient = nil
	}

	objectStore, err := storage.NewGCSStorage(context.Background(), cfg.Storage)
	if err != nil {
		logr.Sugar().Fatalw("failed to init object storage", "error", err)
	}
	defer objectStore.Close() //nolint:errcheck

	userRepo := repository.NewUserRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	resourceSvc := service.NewResourceService(resourceRepo, objectStore, cacheRepo, nil, logr, service.ResourceServiceConfig{
		MaxFileSize:  cfg.Storage.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Storage.AllowedMIMEs,
		CacheTTL:     cfg.Listing.CacheTTL,
	})
	moderationSvc := service.NewModerationService(resourceRepo, objectStore, cacheRepo, logr)
	commentSvc := service.NewCommentService(commentRepo, resourceRepo, nil, logr)
	userSvc := service.NewUserService(userRepo, resourceRepo, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	resourceHandler := handler.NewResourceHandler(resourceSvc, commentSvc, metricsSvc)
	userHandler := handler.NewUserHandler(userSvc)
	adminHandler := handler.NewAdminHandler(moderationSvc, userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.JWT(authSvc)
	requireModerator := middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin)
	requireAdmin := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		resources := api.Group("/resources")
		{
			resources.GET("", resourceHandler.List)
			resources.GET("/:id/comments", resourceHandler.ListComments)
			resources.POST("/upload", requireAuth, resourceHandler.Upload)
			resources.GET("/my-resources", requireAuth, resourceHandler.ListMine)
			resources.GET("/:id", requireAuth, resourceHandler.Get)
			resources.PUT("/:id", requireAuth, resourceHandler.Update)
			resources.DELETE("/:id", requireAuth, resourceHandler.Delete)
			resources.POST("/:id/comments", requireAuth, resourceHandler.AddComment)
			resources.POST("/:id/ratings", requireAuth, resourceHandler.Rate)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("/bookmarks", userHandler.ListBookmarks)
			users.PUT("/bookmarks/:resourceId", userHandler.ToggleBookmark)
		}

		admin := api.Group("/admin", requireAuth)
		{
			admin.GET("/pending-resources", requireModerator, adminHandler.PendingResources)
			admin.PUT("/approve/:id", requireModerator, adminHandler.Approve)
			admin.DELETE("/reject/:id", requireModerator, adminHandler.Reject)
			admin.GET("/users", requireAdmin, adminHandler.ListUsers)
			admin.PUT("/users/:id/update-role", requireAdmin, adminHandler.UpdateUserRole)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
