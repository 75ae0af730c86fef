// Package badgerstore is an embedded key-value implementation of store.Store.
//
// Layout:
//
//	msg:{created_at unix nanos, 19 digits}:{id, 19 digits} -> JSON record
//	id:{id, 19 digits}                                     -> the msg: key above
//	seq:messages                                           -> badger sequence for ids
//
// Zero padding makes a forward prefix scan over "msg:" return messages in
// created_at order with ties broken by id.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/vovakirdan/pollchat/internal/store"
)

const (
	msgPrefix = "msg:"
	idPrefix  = "id:"
	seqKey    = "seq:messages"

	seqBandwidth = 100
	maxAttempts  = 64
)

// BadgerStore implements store.Store on top of BadgerDB.
type BadgerStore struct {
	db    *badger.DB
	seq   *badger.Sequence
	clock store.Clock

	// stampMu pairs each sequence id with its clock reading.
	stampMu sync.Mutex
}

// Option configures a BadgerStore.
type Option func(*BadgerStore)

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(clock store.Clock) Option {
	return func(s *BadgerStore) {
		s.clock = clock
	}
}

// New opens (or creates) a badger database in dir. An empty dir opens an in-memory database.
func New(dir string, opts ...Option) (*BadgerStore, error) {
	options := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR).
		WithSyncWrites(true)
	if dir == "" {
		options = options.WithInMemory(true)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	// Leased but unused ids are skipped after a restart, so ids are never handed out twice.
	seq, err := db.GetSequence([]byte(seqKey), seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("get sequence: %w", err)
	}

	s := &BadgerStore{db: db, seq: seq, clock: store.SystemClock}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the id lease and closes the database.
func (s *BadgerStore) Close() error {
	releaseErr := s.seq.Release()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	if releaseErr != nil {
		return fmt.Errorf("release sequence: %w", releaseErr)
	}
	return nil
}

type record struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func fromRecord(r record) *store.Message {
	return &store.Message{
		ID:        r.ID,
		Sender:    r.Sender,
		Text:      r.Text,
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
		UpdatedAt: time.Unix(0, r.UpdatedAt).UTC(),
	}
}

func msgKey(createdAt, id int64) []byte {
	return fmt.Appendf(nil, "%s%019d:%019d", msgPrefix, createdAt, id)
}

func idKey(id int64) []byte {
	return fmt.Appendf(nil, "%s%019d", idPrefix, id)
}

// ListMessages scans the msg: prefix in key order.
func (s *BadgerStore) ListMessages(ctx context.Context) ([]*store.Message, error) {
	messages := make([]*store.Message, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(msgPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("decode message %q: %w", it.Item().Key(), err)
			}
			messages = append(messages, fromRecord(r))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	return messages, nil
}

// CreateMessage assigns the next sequence id and writes both keys in one transaction.
func (s *BadgerStore) CreateMessage(ctx context.Context, sender, text string) (*store.Message, error) {
	if err := store.ValidateNew(sender, text); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.stampMu.Lock()
	next, err := s.seq.Next()
	if err != nil {
		s.stampMu.Unlock()
		return nil, fmt.Errorf("next id: %w", err)
	}
	now := s.clock().UTC().UnixNano()
	s.stampMu.Unlock()

	r := record{
		ID:        int64(next) + 1,
		Sender:    sender,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	value, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	key := msgKey(r.CreatedAt, r.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(idKey(r.ID), key)
	})
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return fromRecord(r), nil
}

// UpdateMessage rewrites the record in place. Concurrent writers to the same
// message conflict at commit; the loser retries, so the last commit wins.
func (s *BadgerStore) UpdateMessage(ctx context.Context, id int64, text string) (*store.Message, error) {
	if err := store.ValidateText(text); err != nil {
		return nil, err
	}

	var updated record
	err := s.retry(ctx, func(txn *badger.Txn) error {
		key, r, err := s.load(txn, id)
		if err != nil {
			return err
		}
		r.Text = text
		r.UpdatedAt = store.Touch(time.Unix(0, r.CreatedAt), s.clock()).UnixNano()

		value, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		if err := txn.Set(key, value); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("update message: %w", err)
	}

	return fromRecord(updated), nil
}

// DeleteMessage removes both keys of a message.
func (s *BadgerStore) DeleteMessage(ctx context.Context, id int64) error {
	err := s.retry(ctx, func(txn *badger.Txn) error {
		key, _, err := s.load(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(idKey(id))
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (s *BadgerStore) load(txn *badger.Txn, id int64) ([]byte, record, error) {
	var r record

	item, err := txn.Get(idKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, r, store.ErrNotFound
		}
		return nil, r, err
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return nil, r, err
	}

	item, err = txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, r, store.ErrNotFound
		}
		return nil, r, err
	}
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	}); err != nil {
		return nil, r, fmt.Errorf("decode message %d: %w", id, err)
	}
	return key, r, nil
}

func (s *BadgerStore) retry(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for range maxAttempts {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
