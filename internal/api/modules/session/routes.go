package session_module

import (
	"github.com/gin-gonic/gin"

	"github.com/ethanbaker/lp-analysis/internal/images"
	"github.com/ethanbaker/lp-analysis/internal/stores/session"
)

// Module state, wired once at startup
var (
	store      session.Store
	normalizer *images.Normalizer
)

// Init wires the module to its store and image normalizer
func Init(s session.Store, n *images.Normalizer) {
	store = s
	normalizer = n
}

// Register routes for the session module
func RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/sessions", CreateSession) // Create a new analysis session
	g.GET("/sessions", ListSessions)   // List all sessions, newest first
	g.GET("/sessions/:id", GetSession) // Get an existing session by ID
	g.POST("/upload", UploadImage)     // Upload one image variant for a session
}
