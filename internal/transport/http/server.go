package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pollchat/internal/auth"
	"github.com/vovakirdan/pollchat/internal/config"
	"github.com/vovakirdan/pollchat/internal/metrics"
	"github.com/vovakirdan/pollchat/internal/proto"
	"github.com/vovakirdan/pollchat/internal/store"
)

// NewServer builds the HTTP server for the message API.
// authService and m may be nil to disable /api/user and /metrics respectively.
func NewServer(st store.MessageStore, authService *auth.Service, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(st, authService, m, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter wires middleware and routes onto a gin engine.
// It panics if the request validators cannot be registered.
func NewRouter(st store.MessageStore, authService *auth.Service, m *metrics.Metrics, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if err := registerValidators(); err != nil {
		// Every bound request would fail on the unknown tag.
		logger.Error().Err(err).Msg("failed to register request validators")
		panic(err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware(logger))
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/health", healthHandler)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, proto.ErrorResponse{Error: "route not found", Code: proto.ErrCodeNoRoute})
	})

	api := r.Group("/api")

	messages := NewMessageHandlers(st, logger)
	api.GET("/messages", messages.ListMessages)
	api.POST("/messages", messages.CreateMessage)
	api.PUT("/messages/:id", messages.UpdateMessage)
	api.DELETE("/messages/:id", messages.DeleteMessage)

	if authService != nil {
		users := NewUserHandlers(logger)
		api.GET("/user", AuthMiddleware(authService, logger), users.CurrentUser)
	}

	return r
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
