package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/vovakirdan/pollchat/internal/proto"
)

func decodeMessage(t *testing.T, body []byte) proto.Message {
	t.Helper()
	var msg proto.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("failed to unmarshal message: %v (%s)", err, body)
	}
	return msg
}

func decodeMessages(t *testing.T, body []byte) []proto.Message {
	t.Helper()
	var msgs []proto.Message
	if err := json.Unmarshal(body, &msgs); err != nil {
		t.Fatalf("failed to unmarshal messages: %v (%s)", err, body)
	}
	return msgs
}

func decodeError(t *testing.T, body []byte) proto.ErrorResponse {
	t.Helper()
	var errResp proto.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("failed to unmarshal error: %v (%s)", err, body)
	}
	return errResp
}

func TestListMessagesEmpty(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil, nil)

	resp := doRequest(t, router, http.MethodGet, "/api/messages", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != "[]" {
		t.Errorf("expected empty array, got %s", got)
	}
}

func TestCreateMessage(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil, nil)

	resp := doRequest(t, router, http.MethodPost, "/api/messages", `{"sender":"Alice","text":"hi"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	created := decodeMessage(t, resp.Body.Bytes())
	if created.ID == 0 {
		t.Error("expected an assigned id")
	}
	if created.Sender != "Alice" || created.Text != "hi" {
		t.Errorf("unexpected message: %+v", created)
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("expected created_at == updated_at, got %v and %v", created.CreatedAt, created.UpdatedAt)
	}

	resp = doRequest(t, router, http.MethodGet, "/api/messages", "")
	msgs := decodeMessages(t, resp.Body.Bytes())
	if len(msgs) != 1 || msgs[0].ID != created.ID {
		t.Fatalf("expected exactly the created message, got %+v", msgs)
	}
}

func TestCreateMessageValidation(t *testing.T) {
	st := createTestStore(t)
	router := newTestRouter(t, st, nil, nil)

	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"missing sender", `{"text":"hello"}`, []string{"sender"}},
		{"blank sender", `{"sender":"   ","text":"hello"}`, []string{"sender"}},
		{"empty text", `{"sender":"Alice","text":""}`, []string{"text"}},
		{"empty object", `{}`, []string{"sender", "text"}},
		{"empty body", "", []string{"sender", "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, router, http.MethodPost, "/api/messages", tt.body)
			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected status 422, got %d: %s", resp.Code, resp.Body.String())
			}
			errResp := decodeError(t, resp.Body.Bytes())
			if errResp.Code != proto.ErrCodeValidation {
				t.Errorf("expected code %q, got %q", proto.ErrCodeValidation, errResp.Code)
			}
			if len(errResp.Fields) != len(tt.fields) {
				t.Fatalf("expected fields %v, got %v", tt.fields, errResp.Fields)
			}
			for i, f := range tt.fields {
				if errResp.Fields[i] != f {
					t.Errorf("expected fields %v, got %v", tt.fields, errResp.Fields)
				}
			}
		})
	}

	msgs, err := st.ListMessages(t.Context())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("rejected creates must not touch the store, found %d messages", len(msgs))
	}
}

func TestCreateMessageMalformedJSON(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil, nil)

	resp := doRequest(t, router, http.MethodPost, "/api/messages", `{"sender":`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if errResp := decodeError(t, resp.Body.Bytes()); errResp.Code != proto.ErrCodeBadRequest {
		t.Errorf("expected code %q, got %q", proto.ErrCodeBadRequest, errResp.Code)
	}
}

func TestCreateMessageRetryDuplicates(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil, nil)

	body := `{"sender":"Alice","text":"hi"}`
	first := decodeMessage(t, doRequest(t, router, http.MethodPost, "/api/messages", body).Body.Bytes())
	second := decodeMessage(t, doRequest(t, router, http.MethodPost, "/api/messages", body).Body.Bytes())
	if first.ID == second.ID {
		t.Fatalf("expected two distinct messages, got id %d twice", first.ID)
	}

	msgs := decodeMessages(t, doRequest(t, router, http.MethodGet, "/api/messages", "").Body.Bytes())
	if len(msgs) != 2 {
		t.Errorf("expected 2 messages after a retried send, got %d", len(msgs))
	}
}

func TestUpdateMessage(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil, nil)

	created := decodeMessage(t, doRequest(t, router, http.MethodPost, "/api/messages", `{"sender":"Alice","text":"hi"}`).Body.Bytes())
	path := "/api/messages/" + strconv.FormatInt(created.ID, 10)

	resp := doRequest(t, router, http.MethodPut, path, `{"text":"hello"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	updated := decodeMessage(t, resp.Body.Bytes())
	if updated.Text != "hello" {
		t.Errorf("expected text 'hello', got %q", updated.Text)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at changed from %v to %v", created.CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("expected updated_at after created_at, got %v <= %v", updated.UpdatedAt, updated.CreatedAt)
	}

	msgs := decodeMessages(t, doRequest(t, router, http.MethodGet, "/api/messages", "").Body.Bytes())
	if len(msgs) != 1 || msgs[0].Text != "hello" {
		t.Errorf("expected list to show the edit, got %+v", msgs)
	}
}

func TestUpdateMessageErrors(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil, nil)

	created := decodeMessage(t, doRequest(t, router, http.MethodPost, "/api/messages", `{"sender":"Alice","text":"hi"}`).Body.Bytes())
	path := "/api/messages/" + strconv.FormatInt(created.ID, 10)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"blank text", path, `{"text":" "}`, http.StatusUnprocessableEntity, proto.ErrCodeValidation},
		{"missing text", path, `{}`, http.StatusUnprocessableEntity, proto.ErrCodeValidation},
		{"malformed", path, `not json`, http.StatusBadRequest, proto.ErrCodeBadRequest},
		{"unknown id", "/api/messages/4242", `{"text":"hello"}`, http.StatusNotFound, proto.ErrCodeNotFound},
		{"non-numeric id", "/api/messages/abc", `{"text":"hello"}`, http.StatusNotFound, proto.ErrCodeNotFound},
		{"invalid body beats unknown id", "/api/messages/4242", `{"text":""}`, http.StatusUnprocessableEntity, proto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, router, http.MethodPut, tt.path, tt.body)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
			if errResp := decodeError(t, resp.Body.Bytes()); errResp.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, errResp.Code)
			}
		})
	}

	msgs := decodeMessages(t, doRequest(t, router, http.MethodGet, "/api/messages", "").Body.Bytes())
	if len(msgs) != 1 || msgs[0].Text != "hi" {
		t.Errorf("failed updates must leave the message unchanged, got %+v", msgs)
	}
}

func TestDeleteMessage(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil, nil)

	created := decodeMessage(t, doRequest(t, router, http.MethodPost, "/api/messages", `{"sender":"Alice","text":"hi"}`).Body.Bytes())
	path := "/api/messages/" + strconv.FormatInt(created.ID, 10)

	resp := doRequest(t, router, http.MethodDelete, path, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if resp.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", resp.Body.String())
	}

	msgs := decodeMessages(t, doRequest(t, router, http.MethodGet, "/api/messages", "").Body.Bytes())
	if len(msgs) != 0 {
		t.Errorf("expected message to be gone, got %+v", msgs)
	}

	resp = doRequest(t, router, http.MethodDelete, path, "")
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected second delete to return 404, got %d", resp.Code)
	}
	resp = doRequest(t, router, http.MethodPut, path, `{"text":"again"}`)
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected update of deleted message to return 404, got %d", resp.Code)
	}
}

func TestListMessagesOrder(t *testing.T) {
	router := newTestRouter(t, createTestStore(t), nil, nil)

	var ids []int64
	for _, text := range []string{"one", "two", "three"} {
		msg := decodeMessage(t, doRequest(t, router, http.MethodPost, "/api/messages", `{"sender":"Bob","text":"`+text+`"}`).Body.Bytes())
		ids = append(ids, msg.ID)
	}
	doRequest(t, router, http.MethodPut, "/api/messages/"+strconv.FormatInt(ids[0], 10), `{"text":"edited"}`)

	msgs := decodeMessages(t, doRequest(t, router, http.MethodGet, "/api/messages", "").Body.Bytes())
	if len(msgs) != len(ids) {
		t.Fatalf("expected %d messages, got %d", len(ids), len(msgs))
	}
	for i, msg := range msgs {
		if msg.ID != ids[i] {
			t.Errorf("position %d: expected id %d, got %d", i, ids[i], msg.ID)
		}
		if i > 0 && msg.CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Errorf("position %d: created_at out of order", i)
		}
	}
}
