package client

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/pollchat/internal/auth"
	"github.com/vovakirdan/pollchat/internal/proto"
	"github.com/vovakirdan/pollchat/internal/store"
	"github.com/vovakirdan/pollchat/internal/store/sqlite"
	"github.com/vovakirdan/pollchat/internal/store/storetest"
	httptransport "github.com/vovakirdan/pollchat/internal/transport/http"
)

var nopLogger = zerolog.Nop()

type testServer struct {
	*httptest.Server
	store store.Store
	auth  *auth.Service
}

// newTestServer runs the real router over an in-memory store.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clock := storetest.NewStepClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC), time.Second)
	st, err := sqlite.New(":memory:", sqlite.WithClock(clock.Now))
	require.NoError(t, err)

	authService := auth.NewService(&auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	srv := httptest.NewServer(httptransport.NewRouter(st, authService, nil, &nopLogger))
	t.Cleanup(func() {
		srv.Close()
		_ = st.Close()
	})
	return &testServer{Server: srv, store: st, auth: authService}
}

// fakeAPI is an in-memory MessageAPI with injectable failures.
type fakeAPI struct {
	mu     sync.Mutex
	msgs   []proto.Message
	nextID int64
	calls  map[string]int

	listFn    func(call int) ([]proto.Message, error)
	createErr error
	updateErr error
	deleteErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: map[string]int{}}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) ListMessages(_ context.Context) ([]proto.Message, error) {
	f.mu.Lock()
	f.calls["list"]++
	call := f.calls["list"]
	fn := f.listFn
	out := append([]proto.Message(nil), f.msgs...)
	f.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	return out, nil
}

func (f *fakeAPI) CreateMessage(_ context.Context, sender, text string) (proto.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.createErr != nil {
		return proto.Message{}, f.createErr
	}
	f.nextID++
	now := time.Unix(f.nextID, 0).UTC()
	msg := proto.Message{ID: f.nextID, Sender: sender, Text: text, CreatedAt: now, UpdatedAt: now}
	f.msgs = append(f.msgs, msg)
	return msg, nil
}

func (f *fakeAPI) UpdateMessage(_ context.Context, id int64, text string) (proto.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	if f.updateErr != nil {
		return proto.Message{}, f.updateErr
	}
	for i := range f.msgs {
		if f.msgs[i].ID == id {
			f.msgs[i].Text = text
			f.msgs[i].UpdatedAt = f.msgs[i].UpdatedAt.Add(time.Second)
			return f.msgs[i], nil
		}
	}
	return proto.Message{}, fmt.Errorf("update message: %w", ErrNotFound)
}

func (f *fakeAPI) DeleteMessage(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.msgs {
		if f.msgs[i].ID == id {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete message: %w", ErrNotFound)
}
