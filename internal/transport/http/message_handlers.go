package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pollchat/internal/proto"
	"github.com/vovakirdan/pollchat/internal/store"
)

// MessageHandlers provides HTTP handlers for message CRUD.
type MessageHandlers struct {
	store store.MessageStore
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.MessageStore, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		log:   logger,
	}
}

// ListMessages returns the full ordered snapshot.
// GET /api/messages
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	msgs, err := h.store.ListMessages(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, toProtoMessages(msgs))
}

// CreateMessage handles sending a new message.
// POST /api/messages
func (h *MessageHandlers) CreateMessage(c *gin.Context) {
	var req proto.CreateMessageRequest
	if err := bindBody(c, &req); err != nil {
		h.badInput(c, err)
		return
	}

	msg, err := h.store.CreateMessage(c.Request.Context(), req.Sender, req.Text)
	if err != nil {
		h.storeError(c, err, "failed to create message")
		return
	}

	h.log.Info().Int64("message_id", msg.ID).Str("sender", msg.Sender).Msg("message created")
	c.JSON(http.StatusCreated, toProtoMessage(msg))
}

// UpdateMessage replaces the text of a message.
// PUT /api/messages/:id
func (h *MessageHandlers) UpdateMessage(c *gin.Context) {
	var req proto.UpdateMessageRequest
	if err := bindBody(c, &req); err != nil {
		h.badInput(c, err)
		return
	}

	id, ok := h.messageID(c)
	if !ok {
		return
	}

	msg, err := h.store.UpdateMessage(c.Request.Context(), id, req.Text)
	if err != nil {
		h.storeError(c, err, "failed to update message")
		return
	}

	h.log.Info().Int64("message_id", msg.ID).Msg("message updated")
	c.JSON(http.StatusOK, toProtoMessage(msg))
}

// DeleteMessage removes a message.
// DELETE /api/messages/:id
func (h *MessageHandlers) DeleteMessage(c *gin.Context) {
	id, ok := h.messageID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteMessage(c.Request.Context(), id); err != nil {
		h.storeError(c, err, "failed to delete message")
		return
	}

	h.log.Info().Int64("message_id", id).Msg("message deleted")
	c.Status(http.StatusNoContent)
}

// messageID parses the :id path parameter. An id that cannot name a message is reported as not found.
func (h *MessageHandlers) messageID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.log.Debug().Str("id", raw).Msg("invalid message id")
		c.JSON(http.StatusNotFound, proto.ErrorResponse{Error: "message not found", Code: proto.ErrCodeNotFound})
		return 0, false
	}
	return id, true
}

func (h *MessageHandlers) badInput(c *gin.Context, err error) {
	if fields, ok := invalidFields(err); ok {
		h.log.Debug().Strs("fields", fields).Msg("validation failed")
		c.JSON(http.StatusUnprocessableEntity, proto.ErrorResponse{
			Error:  strings.Join(fields, ", ") + " required",
			Code:   proto.ErrCodeValidation,
			Fields: fields,
		})
		return
	}

	h.log.Debug().Err(err).Msg("invalid request body")
	c.JSON(http.StatusBadRequest, proto.ErrorResponse{Error: "invalid request body", Code: proto.ErrCodeBadRequest})
}

func (h *MessageHandlers) storeError(c *gin.Context, err error, msg string) {
	var verr *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, proto.ErrorResponse{Error: "message not found", Code: proto.ErrCodeNotFound})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, proto.ErrorResponse{
			Error:  verr.Error(),
			Code:   proto.ErrCodeValidation,
			Fields: []string{verr.Field},
		})
	default:
		h.internalError(c, err, msg)
	}
}

func (h *MessageHandlers) internalError(c *gin.Context, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, proto.ErrorResponse{Error: "internal server error", Code: proto.ErrCodeInternal})
}
