package http

import (
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())
	router.Use(StrictTransportSecurityMiddleware())
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	// Typed nils would defeat the controller's nil checks.
	var (
		finder  ReservedCollectionFinder
		counter ProgressCounter
	)
	if cfg.Collections != nil {
		finder = cfg.Collections
	}
	if cfg.Progress != nil {
		counter = cfg.Progress
	}
	health := NewHealthController(cfg.Database, finder, cfg.ReservedCollections, counter, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Collection endpoints
	if cfg.Collections != nil {
		collectionsController := NewCollectionsController(cfg.Collections, cfg.Companies, cfg.Associations, logger)
		router.GET("/collections", collectionsController.ListCollections)
		router.GET("/collections/:id", collectionsController.GetCollection)
		router.GET("/collections/check-existing/:sourceId/:targetId/:companyId", collectionsController.CheckExisting)
	}

	// Transfer endpoints
	if cfg.Engine != nil {
		var queue TaskQueue
		if cfg.TaskClient != nil {
			queue = cfg.TaskClient
		}
		transfersController := NewTransfersController(cfg.Engine, cfg.TransferRecords, cfg.Progress, queue, logger)
		router.POST("/collections/transfer", transfersController.StartTransfer)
		router.GET("/collections/transfer/:transferId", transfersController.GetProgress)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, logger)
		router.GET("/tasks/types", tasksController.ListTaskTypes)
		router.GET("/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/tasks/:type/run", tasksController.RunTask)
	}

	// Audit endpoints
	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit, logger)
		router.GET("/audit/transfers", auditController.GetTransferEvents)
	}

	return router
}
