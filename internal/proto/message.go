package proto

import "time"

// Error codes carried in ErrorResponse.Code.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeValidation   = "validation_failed"
	ErrCodeNotFound     = "not_found"
	ErrCodeNoRoute      = "route_not_found"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeInternal     = "internal"
)

// Message is the wire representation of a chat message.
type Message struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateMessageRequest is the body of POST /api/messages.
type CreateMessageRequest struct {
	Sender string `json:"sender" binding:"required,notblank"`
	Text   string `json:"text" binding:"required,notblank"`
}

// UpdateMessageRequest is the body of PUT /api/messages/{id}.
type UpdateMessageRequest struct {
	Text string `json:"text" binding:"required,notblank"`
}

// CurrentUser is returned by GET /api/user.
type CurrentUser struct {
	Sender string `json:"sender"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
}
