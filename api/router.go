package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/api/handlers"
	"github.com/boombae/ytdl-desk/api/middleware"
	"github.com/boombae/ytdl-desk/pkg/logger"
)

// RouterDeps are the services the HTTP API is built on
type RouterDeps struct {
	Session      handlers.SessionService
	History      handlers.HistoryService
	Opener       handlers.FolderOpener
	DB           handlers.Pinger
	OutputDir    string
	HistoryLimit int
	LogsDir      string
	Logger       *zap.Logger
	Events       *logger.MultiLogger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger, deps.Events))

	healthHandler := handlers.NewHealthHandler(deps.Session, deps.DB)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		sessionHandler := handlers.NewSessionHandler(deps.Session, deps.OutputDir, deps.Logger)
		v1.POST("/downloads", sessionHandler.StartDownload)
		v1.GET("/session", sessionHandler.GetSession)

		historyHandler := handlers.NewHistoryHandler(deps.History, deps.Opener, deps.HistoryLimit, deps.Logger)
		history := v1.Group("/history")
		{
			history.GET("", historyHandler.ListHistory)
			history.POST("/:id/open", historyHandler.OpenFolder)
		}

		logHandler := handlers.NewLogHandler(deps.LogsDir)
		logStream := handlers.NewLogWebSocketHandler(deps.LogsDir, deps.Logger)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
			logs.GET("/:category/stream", logStream.Stream)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found"})
	})

	return router
}
