package client

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/lo"

	"github.com/vovakirdan/pollchat/internal/proto"
)

// State is the edit state of a single message.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

var (
	ErrNotEditing     = errors.New("no message is being edited")
	ErrEmptyDraft     = errors.New("draft is empty")
	ErrSaveInProgress = errors.New("save already in progress")
)

// Editor commits an edit. *Syncer implements it.
type Editor interface {
	Edit(ctx context.Context, id int64, text string) (proto.Message, error)
}

// EditSession tracks the single message being edited, if any, and its draft.
// Starting an edit on another message discards the current draft.
type EditSession struct {
	editor Editor

	mu     sync.Mutex
	target int64
	active bool
	draft  string
	saving bool
	// epoch changes whenever the target changes so a finishing save can tell
	// whether the session moved on while it was in flight.
	epoch uint64
}

// NewEditSession returns a session in the Viewing state.
func NewEditSession(editor Editor) *EditSession {
	return &EditSession{editor: editor}
}

// Start begins editing msg with its current text as the draft.
// It returns the id of the edit it cancelled, if there was one on a different message.
func (e *EditSession) Start(msg proto.Message) (cancelled int64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active && e.target != msg.ID {
		cancelled, ok = e.target, true
	}
	e.target = msg.ID
	e.active = true
	e.draft = msg.Text
	e.epoch++
	return cancelled, ok
}

// Cancel discards the draft. It reports whether an edit was active.
func (e *EditSession) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	was := e.active
	e.clear()
	return was
}

// SetDraft replaces the draft text.
func (e *EditSession) SetDraft(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return ErrNotEditing
	}
	e.draft = text
	return nil
}

// Draft returns the current draft, or "" when viewing.
func (e *EditSession) Draft() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Target returns the id under edit.
func (e *EditSession) Target() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target, e.active
}

// State returns the edit state of message id.
func (e *EditSession) State(id int64) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active && e.target == id {
		return Editing
	}
	return Viewing
}

// Save commits the draft.
//
// A blank draft fails with ErrEmptyDraft and the session stays in Editing without a request.
// If the edit fails the session stays in Editing with the draft intact. If the edit
// was applied (including a *RefreshError from the follow-up fetch) the message returns
// to Viewing, unless the user already moved to another edit meanwhile.
func (e *EditSession) Save(ctx context.Context) (proto.Message, error) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return proto.Message{}, ErrNotEditing
	}
	if e.saving {
		e.mu.Unlock()
		return proto.Message{}, ErrSaveInProgress
	}
	if blank(e.draft) {
		e.mu.Unlock()
		return proto.Message{}, ErrEmptyDraft
	}
	id, draft, epoch := e.target, e.draft, e.epoch
	e.saving = true
	e.mu.Unlock()

	msg, err := e.editor.Edit(ctx, id, draft)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if err != nil && !IsRefresh(err) {
		return proto.Message{}, err
	}
	if e.epoch == epoch {
		e.clear()
	}
	return msg, err
}

// Reconcile ends the edit if its message is absent from snapshot, for example after
// another client deleted it. Drafts of messages that still exist are never touched.
// It reports whether the edit was dropped.
func (e *EditSession) Reconcile(snapshot []proto.Message) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return false
	}
	if lo.ContainsBy(snapshot, func(m proto.Message) bool { return m.ID == e.target }) {
		return false
	}
	e.clear()
	return true
}

func (e *EditSession) clear() {
	e.active = false
	e.target = 0
	e.draft = ""
	e.epoch++
}
