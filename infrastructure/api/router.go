package api

import (
	"dm-chat/auth"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts the REST routes under /api, plus /health and the realtime endpoint.
// An empty origin disables CORS, a nil gateway leaves /ws unmounted.
func NewRouter(h *Handler, verifier auth.TokenVerifier, gateway http.Handler, origin string, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	if origin != "" {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{origin},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", h.Health)
	if gateway != nil {
		router.GET("/ws", gin.WrapH(gateway))
	}

	guard := auth.RequireToken(verifier, log)
	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		authRoutes.POST("/signup", h.Signup)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/logout", h.Logout)
		authRoutes.GET("/userinfo", guard, h.UserInfo)
		authRoutes.POST("/update-profile", guard, h.UpdateProfile)

		contacts := api.Group("/contacts", guard)
		contacts.POST("/search", h.SearchContacts)
		contacts.GET("/all", h.AllContacts)
		contacts.GET("/all-contacts", h.AllContacts)
		contacts.GET("/get-contacts-for-list", h.AllContacts)
		contacts.DELETE("/delete-dm/:id", h.DeleteDM)

		api.POST("/messages/get-messages", guard, h.GetMessages)
	}
	return router
}

// RequestLogger logs every request once it has been served.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start))
	}
}
