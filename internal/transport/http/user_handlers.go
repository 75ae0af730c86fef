package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pollchat/internal/proto"
)

// UserHandlers provides HTTP handlers for the session's current user.
type UserHandlers struct {
	log *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{log: logger}
}

// CurrentUser returns the sender named by the bearer token.
// GET /api/user
func (h *UserHandlers) CurrentUser(c *gin.Context) {
	sender := c.GetString(ContextKeySender)
	if sender == "" {
		h.log.Error().Msg("sender not found in context")
		c.JSON(http.StatusUnauthorized, proto.ErrorResponse{Error: "unauthorized", Code: proto.ErrCodeUnauthorized})
		return
	}

	c.JSON(http.StatusOK, proto.CurrentUser{Sender: sender})
}
