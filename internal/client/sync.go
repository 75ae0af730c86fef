package client

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/pollchat/internal/proto"
)

// MessageAPI is the subset of the server API the Syncer drives.
type MessageAPI interface {
	ListMessages(ctx context.Context) ([]proto.Message, error)
	CreateMessage(ctx context.Context, sender, text string) (proto.Message, error)
	UpdateMessage(ctx context.Context, id int64, text string) (proto.Message, error)
	DeleteMessage(ctx context.Context, id int64) error
}

// Syncer keeps a local snapshot of the message log.
// Every fetch replaces the snapshot wholesale and every local write is followed by a fetch.
// Writes are serialized; reads may overlap, and a fetch that started before a newer
// applied fetch is dropped so the snapshot never moves backwards.
type Syncer struct {
	api MessageAPI
	log *zerolog.Logger

	writeMu sync.Mutex

	// notifyMu orders OnChange deliveries; delivered is the last snapshot handed out.
	notifyMu  sync.Mutex
	delivered []proto.Message

	mu       sync.RWMutex
	snapshot []proto.Message
	issued   uint64
	applied  uint64
	onChange func([]proto.Message)
}

// NewSyncer creates a syncer with an empty snapshot. Call Refresh to load it.
func NewSyncer(api MessageAPI, logger *zerolog.Logger) *Syncer {
	return &Syncer{
		api:       api,
		log:       logger,
		snapshot:  []proto.Message{},
		delivered: []proto.Message{},
	}
}

// OnChange registers fn to be called with the new snapshot whenever a fetch changes it.
func (s *Syncer) OnChange(fn func([]proto.Message)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot returns a copy of the current local view in server order.
func (s *Syncer) Snapshot() []proto.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snapshot)
}

// Lookup finds a message in the current snapshot.
func (s *Syncer) Lookup(id int64) (proto.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.snapshot, func(m proto.Message) bool { return m.ID == id })
}

// Refresh fetches the full snapshot and replaces the local one.
// On failure the local snapshot is left unchanged.
func (s *Syncer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.mu.Unlock()

	msgs, err := s.api.ListMessages(ctx)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []proto.Message{}
	}

	s.mu.Lock()
	if gen < s.applied {
		s.mu.Unlock()
		s.log.Debug().Uint64("generation", gen).Msg("dropping stale snapshot")
		return nil
	}
	s.applied = gen
	s.snapshot = msgs
	s.mu.Unlock()

	s.notify()
	return nil
}

// notify hands the current snapshot to the OnChange observer if it differs from the last
// one delivered. Deliveries are serialized and always carry the latest applied snapshot,
// so the observer never ends on an older view than Snapshot.
func (s *Syncer) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.RLock()
	snap := s.snapshot
	onChange := s.onChange
	s.mu.RUnlock()

	if onChange == nil || slices.EqualFunc(s.delivered, snap, sameMessage) {
		return
	}
	s.delivered = snap
	onChange(slices.Clone(snap))
}

// Send creates a message and refreshes. A blank text fails with ErrEmptyMessage without a request.
// If the create succeeded but the refresh did not, the created message is returned with a *RefreshError.
func (s *Syncer) Send(ctx context.Context, sender, text string) (proto.Message, error) {
	if blank(text) {
		return proto.Message{}, ErrEmptyMessage
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	msg, err := s.api.CreateMessage(ctx, sender, text)
	if err != nil {
		return proto.Message{}, err
	}
	s.log.Debug().Int64("message_id", msg.ID).Msg("message sent")
	return msg, s.refreshAfterWrite(ctx)
}

// Edit replaces the text of message id and refreshes.
func (s *Syncer) Edit(ctx context.Context, id int64, text string) (proto.Message, error) {
	if blank(text) {
		return proto.Message{}, ErrEmptyMessage
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	msg, err := s.api.UpdateMessage(ctx, id, text)
	if err != nil {
		return proto.Message{}, err
	}
	s.log.Debug().Int64("message_id", msg.ID).Msg("message edited")
	return msg, s.refreshAfterWrite(ctx)
}

// Delete removes message id and refreshes.
func (s *Syncer) Delete(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.api.DeleteMessage(ctx, id); err != nil {
		return err
	}
	s.log.Debug().Int64("message_id", id).Msg("message deleted")
	return s.refreshAfterWrite(ctx)
}

// Poll refreshes every interval until ctx is done. Failures are logged and the next tick retries.
func (s *Syncer) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("poll failed")
			}
		}
	}
}

func (s *Syncer) refreshAfterWrite(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return &RefreshError{Err: err}
	}
	return nil
}

func sameMessage(a, b proto.Message) bool {
	return a.ID == b.ID &&
		a.Sender == b.Sender &&
		a.Text == b.Text &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
