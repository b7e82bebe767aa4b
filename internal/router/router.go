package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/deepv/driving-backend/internal/auth"
	"github.com/deepv/driving-backend/internal/config"
	"github.com/deepv/driving-backend/internal/handler"
	"github.com/deepv/driving-backend/internal/middleware"
	"github.com/deepv/driving-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Question *handler.QuestionHandler
	Progress *handler.ProgressHandler
	Settings *handler.SettingsHandler
	Exam     *handler.ExamHandler
	Sampler  *handler.SamplerHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *auth.Service,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	authAPI := router.Group("/api/v1/auth")
	{
		authAPI.POST("/login", handlers.Auth.Login)
		authAPI.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Authenticated API ──────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService))
	{
		api.GET("/banks/:bank/questions", handlers.Question.ListBank)

		api.GET("/practice/progress", handlers.Progress.Get)
		api.POST("/practice/answered", handlers.Progress.MarkAnswered)
		api.POST("/practice/hidden", handlers.Progress.MarkHidden)
		api.POST("/practice/unhide", handlers.Progress.Unhide)
		api.POST("/practice/mistakes", handlers.Progress.AddMistake)
		api.POST("/practice/mistakes/remove", handlers.Progress.RemoveMistake)
		api.POST("/practice/notes", handlers.Progress.UpdateNote)
		api.POST("/practice/favorites/toggle", handlers.Progress.ToggleFavorite)
		api.POST("/practice/bank", handlers.Progress.SetBank)
		api.POST("/practice/cursor", handlers.Progress.AdvanceCursor)
		api.POST("/practice/reset", handlers.Progress.Reset)

		api.GET("/settings", handlers.Settings.Get)
		api.PUT("/settings", handlers.Settings.Update)
		api.PUT("/settings/auto-advance", handlers.Settings.UpdateAutoAdvance)

		api.GET("/exam/state", handlers.Exam.State)
		api.POST("/exam/start", handlers.Exam.Start)
		api.POST("/exam/resume", handlers.Exam.Resume)
		api.POST("/exam/answer", handlers.Exam.Answer)
		api.POST("/exam/navigate", handlers.Exam.Navigate)
		api.POST("/exam/submit", handlers.Exam.Submit)
		api.POST("/exam/leave", handlers.Exam.Leave)
		api.POST("/exam/reset", handlers.Exam.Reset)
		api.GET("/exam/history", handlers.Exam.History)

		api.GET("/random/state", handlers.Sampler.State)
		api.POST("/random/next", handlers.Sampler.Next)
		api.POST("/random/back", handlers.Sampler.Back)
		api.POST("/random/answer", handlers.Sampler.Answer)
		api.POST("/random/hide", handlers.Sampler.Hide)
		api.DELETE("/random", handlers.Sampler.Release)
	}

	// ─── 3. WebSocket Group (WS Auth via query token) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/exam/stream", handlers.WS.ExamCountdownStream)
	}

	return router
}
