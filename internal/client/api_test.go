package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/pollchat/internal/proto"
)

func TestAPIRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	api := NewAPI(srv.URL + "/")

	msgs, err := api.ListMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.NotNil(t, msgs)

	created, err := api.CreateMessage(ctx, "Alice", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Alice", created.Sender)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	updated, err := api.UpdateMessage(ctx, created.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Text)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	msgs, err = api.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)

	require.NoError(t, api.DeleteMessage(ctx, created.ID))
	assert.ErrorIs(t, api.DeleteMessage(ctx, created.ID), ErrNotFound)

	_, err = api.UpdateMessage(ctx, created.ID, "again")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAPIValidationError(t *testing.T) {
	srv := newTestServer(t)
	api := NewAPI(srv.URL)

	_, err := api.CreateMessage(context.Background(), "", "hi")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"sender"}, verr.Fields)
}

func TestAPITransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewAPI(url).ListMessages(context.Background())
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "list messages", terr.Op)
}

func TestAPIUndecodableResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewAPI(srv.URL).ListMessages(context.Background())
	var terr *TransportError
	assert.ErrorAs(t, err, &terr)
}

func TestAPIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error","code":"internal"}`))
	}))
	defer srv.Close()

	err := NewAPI(srv.URL).DeleteMessage(context.Background(), 1)
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
	assert.Equal(t, "internal", serr.Code)
}

func TestAPICurrentUser(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	token, err := srv.auth.IssueToken("So Panha")
	require.NoError(t, err)

	user, err := NewAPI(srv.URL, WithToken(token)).CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "So Panha", user.Sender)

	_, err = NewAPI(srv.URL).CurrentUser(ctx)
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)
}

func TestAPIWrongBasePathIsNotMessageNotFound(t *testing.T) {
	srv := newTestServer(t)

	_, err := NewAPI(srv.URL+"/chat").ListMessages(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)
	assert.Equal(t, proto.ErrCodeNoRoute, serr.Code)

	err = NewAPI(srv.URL).DeleteMessage(context.Background(), 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}
