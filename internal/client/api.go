// Package client talks to the message API and keeps a local view of the chat in sync with it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vovakirdan/pollchat/internal/proto"
)

const defaultTimeout = 10 * time.Second

// API is an HTTP client for the message endpoints.
type API struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configures an API.
type Option func(*API)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *API) {
		a.httpClient = c
	}
}

// WithToken sends token as a bearer credential. Only /api/user requires it.
func WithToken(token string) Option {
	return func(a *API) {
		a.token = token
	}
}

// NewAPI creates a client for the server at baseURL, e.g. http://localhost:8080.
func NewAPI(baseURL string, opts ...Option) *API {
	a := &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ListMessages fetches the full ordered snapshot.
func (a *API) ListMessages(ctx context.Context) ([]proto.Message, error) {
	msgs := make([]proto.Message, 0)
	if err := a.do(ctx, "list messages", http.MethodGet, "/api/messages", nil, http.StatusOK, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// CreateMessage sends a new message.
func (a *API) CreateMessage(ctx context.Context, sender, text string) (proto.Message, error) {
	var msg proto.Message
	req := proto.CreateMessageRequest{Sender: sender, Text: text}
	if err := a.do(ctx, "create message", http.MethodPost, "/api/messages", req, http.StatusCreated, &msg); err != nil {
		return proto.Message{}, err
	}
	return msg, nil
}

// UpdateMessage replaces the text of message id.
func (a *API) UpdateMessage(ctx context.Context, id int64, text string) (proto.Message, error) {
	var msg proto.Message
	req := proto.UpdateMessageRequest{Text: text}
	if err := a.do(ctx, "update message", http.MethodPut, messagePath(id), req, http.StatusOK, &msg); err != nil {
		return proto.Message{}, err
	}
	return msg, nil
}

// DeleteMessage removes message id.
func (a *API) DeleteMessage(ctx context.Context, id int64) error {
	return a.do(ctx, "delete message", http.MethodDelete, messagePath(id), nil, http.StatusNoContent, nil)
}

// CurrentUser returns the sender named by the configured token.
func (a *API) CurrentUser(ctx context.Context) (proto.CurrentUser, error) {
	var user proto.CurrentUser
	if err := a.do(ctx, "current user", http.MethodGet, "/api/user", nil, http.StatusOK, &user); err != nil {
		return proto.CurrentUser{}, err
	}
	return user, nil
}

func messagePath(id int64) string {
	return "/api/messages/" + strconv.FormatInt(id, 10)
}

func (a *API) do(ctx context.Context, op, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	var errResp proto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil && !errors.Is(err, io.EOF) {
		errResp.Error = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound && errResp.Code == proto.ErrCodeNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return &ValidationError{Fields: errResp.Fields, Message: errResp.Error}
	default:
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Code: errResp.Code, Message: errResp.Error}
	}
}
