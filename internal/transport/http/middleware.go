package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pollchat/internal/auth"
	"github.com/vovakirdan/pollchat/internal/proto"
)

const (
	// ContextKeySender is the context key for the authenticated sender label.
	ContextKeySender = "sender"
	// ContextKeyRequestID is the context key for the request id.
	ContextKeyRequestID = "request_id"

	headerRequestID = "X-Request-ID"
)

// AuthMiddleware creates a middleware that validates JWT tokens.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug().Msg("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "missing authorization header", Code: proto.ErrCodeUnauthorized})
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.Debug().Msg("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "invalid authorization header format", Code: proto.ErrCodeUnauthorized})
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "invalid token", Code: proto.ErrCodeUnauthorized})
			return
		}

		c.Set(ContextKeySender, claims.Sender)
		c.Next()
	}
}

// RequestIDMiddleware propagates X-Request-ID, generating one when the caller did not.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, requestID)
		c.Header(headerRequestID, requestID)
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString(ContextKeyRequestID)).
			Msg("http request")
	}
}
