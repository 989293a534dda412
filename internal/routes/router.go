// Package routes はルーティングを行います。
package routes

import (
	"database/sql"
	"io"
	"net/http"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"todoease/internal/handlers"
	"todoease/internal/ordering"
	"todoease/internal/repositories"
	"todoease/internal/services"
	"todoease/web"
)

// Options はルーターの設定です。
type Options struct {
	Logger       *log.Logger
	AllowOrigins []string
	OrderPolicy  ordering.Policy
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(db *sql.DB, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	r := gin.New()
	r.Use(RequestIDMiddleware(), RequestLoggerMiddleware(logger), gin.Recovery())
	r.Use(cors.New(corsConfig(opts.AllowOrigins)))

	// リポジトリ
	order := ordering.NewMaintainer(opts.OrderPolicy)
	taskRepo := repositories.NewTaskRepository(db, order)
	subTaskRepo := repositories.NewSubTaskRepository(db, order)

	// サービス
	taskService := services.NewTaskService(taskRepo, subTaskRepo)
	statsService := services.NewStatsService(taskRepo)

	// ハンドラー
	taskHandler := handlers.NewTaskHandler(taskService, logger)
	statsHandler := handlers.NewStatsHandler(statsService, logger)
	transferHandler := handlers.NewTransferHandler(taskService, logger)

	// ルーティング
	r.GET("/api/dbcheck", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Database connection failed", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Database connection is healthy"})
	})

	api := r.Group("/api")
	{
		api.GET("/tasks", taskHandler.GetTasksHandler)
		api.POST("/tasks", taskHandler.CreateTaskHandler)
		api.PUT("/tasks/reorder", taskHandler.ReorderTasksHandler)
		api.GET("/tasks/by-date", statsHandler.GetTasksByDateHandler)
		api.GET("/tasks/date-range", statsHandler.GetTasksByDateRangeHandler)
		api.GET("/tasks/:id", taskHandler.GetTaskByIDHandler)
		api.PUT("/tasks/:id", taskHandler.UpdateTaskHandler)
		api.DELETE("/tasks/:id", taskHandler.DeleteTaskHandler)
		api.GET("/tasks/:id/description", taskHandler.GetDescriptionHandler)
		api.POST("/tasks/:id/subtasks", taskHandler.CreateSubTaskHandler)
		api.PUT("/tasks/:id/subtasks/reorder", taskHandler.ReorderSubTasksHandler)

		api.PUT("/subtasks/:id", taskHandler.UpdateSubTaskHandler)
		api.DELETE("/subtasks/:id", taskHandler.DeleteSubTaskHandler)

		api.GET("/stats", statsHandler.GetStatsHandler)
		api.GET("/stats/monthly", statsHandler.GetMonthlyStatsHandler)
		api.GET("/calendar/summary", statsHandler.GetCalendarSummaryHandler)

		api.POST("/import", transferHandler.ImportHandler)
		api.GET("/export", transferHandler.ExportHandler)
	}

	// フロントエンド
	r.GET("/", IndexHandler)
	r.StaticFS("/static", http.FS(web.Static()))
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "No favicon"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r
}

// IndexHandler は埋め込みの index.html を返します。
func IndexHandler(c *gin.Context) {
	page, err := web.Index()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Frontend not available", "details": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// CORS対策
func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	config.ExposeHeaders = []string{RequestIDHeader}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = origins
	config.AllowCredentials = true
	return config
}
