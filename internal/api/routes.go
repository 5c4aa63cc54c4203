package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumebuilder/internal/api/middleware"
	"resumebuilder/internal/auth"
	"resumebuilder/internal/builder"
	"resumebuilder/internal/config"
	"resumebuilder/internal/export"
	"resumebuilder/internal/storage"
)

// RouteDeps 汇集路由注册需要的依赖。
type RouteDeps struct {
	DB            *gorm.DB
	AsynqClient   *asynq.Client
	AuthService   *auth.AuthService
	AuthSettings  config.AuthConfig
	RedisClient   *redis.Client
	Logger        *slog.Logger
	StorageClient *storage.Client
	Sessions      *builder.Manager
	TextExporter  export.Exporter
	WordExporter  export.Exporter
	ClamdAddr     string
	DownloadTTL   time.Duration
}

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(router *gin.Engine, deps RouteDeps) {
	documentHandler := NewDocumentHandler(deps.Sessions)
	exportHandler := NewExportHandler(deps.Sessions, deps.DB, deps.AsynqClient, deps.StorageClient, deps.TextExporter, deps.WordExporter, deps.DownloadTTL)
	authHandler := NewAuthHandler(
		deps.DB,
		deps.AuthService,
		deps.RedisClient,
		deps.Logger,
		deps.AuthSettings.LoginRatePerHour,
		deps.AuthSettings.LoginLockThreshold,
		time.Duration(deps.AuthSettings.LoginLockMinutes)*time.Minute,
		deps.AuthSettings.CookieDomain,
	)
	wsHandler := NewWsHandler(deps.RedisClient, deps.AuthService, deps.Logger, nil)
	assetHandler := NewAssetHandler(deps.Sessions, deps.RedisClient, deps.StorageClient, deps.Logger, deps.ClamdAddr)
	authMiddleware := middleware.AuthMiddleware(deps.AuthService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		docGroup := v1.Group("/document")
		docGroup.Use(authMiddleware)
		{
			docGroup.GET("", documentHandler.GetDocument)
			docGroup.GET("/preview", documentHandler.GetPreview)
			docGroup.PUT("/form", documentHandler.ApplyForm)
			docGroup.POST("/entries/:category", documentHandler.AddEntry)
			docGroup.DELETE("/entries/:category/:index", documentHandler.RemoveEntry)
			docGroup.PUT("/entries/:category/order", documentHandler.ReorderEntries)
			docGroup.PUT("/settings", documentHandler.UpdateSettings)
			docGroup.POST("/theme/cycle", documentHandler.CycleTheme)
			docGroup.POST("/save", documentHandler.SaveNow)
			docGroup.DELETE("", documentHandler.Clear)
			docGroup.PUT("/profile-picture", assetHandler.UploadProfilePicture)
			docGroup.DELETE("/profile-picture", assetHandler.RemoveProfilePicture)
		}

		exportGroup := v1.Group("/export")
		exportGroup.Use(authMiddleware)
		{
			exportGroup.GET("/text", exportHandler.DownloadText)
			exportGroup.GET("/word", exportHandler.DownloadWord)
			exportGroup.POST("/pdf", exportHandler.EnqueuePDF)
			exportGroup.GET("/:id", exportHandler.GetExportStatus)
		}
	}
}
