package handlers

import (
	"notes_service/internal/bot"
	"notes_service/internal/logger"
	"notes_service/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services, the chat engine and logging.
type Handler struct {
	services *service.Service
	chat     *bot.Engine
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, chat *bot.Engine, log *logger.Logger) *Handler {
	return &Handler{services: services, chat: chat, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Public auth endpoints
	router.POST("/token", h.issueToken)
	router.POST("/users/", h.createUser)

	// Protected note endpoints
	h.registerNoteRoutes(router)

	// Chat gateway, served over an HTTP upgrade on the same port
	if h.chat != nil {
		router.GET("/ws", h.wsChat)
	}

	return router
}

func (h *Handler) registerNoteRoutes(r *gin.Engine) {
	protected := r.Group("/", h.authMiddleware)
	{
		notes := protected.Group("/notes")
		{
			notes.POST("/", h.createNote)
			notes.GET("/", h.listNotes)
			notes.GET("/search", h.searchNotes)
			notes.GET("/:id", h.getNote)
			notes.PUT("/:id", h.updateNote)
			notes.DELETE("/:id", h.deleteNote)
		}
		protected.GET("/search", h.searchNotes)
	}
}
