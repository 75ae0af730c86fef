package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/pollchat/internal/store"
)

//go:embed schema.sql
var schema string

// SQLiteStore implements store.Store for SQLite.
// Timestamps are stored as unix nanoseconds so ordering survives sub-second writes.
type SQLiteStore struct {
	db    *sql.DB
	clock store.Clock
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(clock store.Clock) Option {
	return func(s *SQLiteStore) {
		s.clock = clock
	}
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file, or ":memory:".
func New(dbPath string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool limits before applying schema
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &SQLiteStore{db: db, clock: store.SystemClock}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListMessages returns all messages ordered by created_at, then id.
func (s *SQLiteStore) ListMessages(ctx context.Context) ([]*store.Message, error) {
	query := `
		SELECT id, sender, text, created_at, updated_at
		FROM messages
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// CreateMessage inserts a new message stamped with the store clock.
// The clock is read inside the transaction so id order follows created_at order.
func (s *SQLiteStore) CreateMessage(ctx context.Context, sender, text string) (*store.Message, error) {
	if err := store.ValidateNew(sender, text); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	now := s.clock().UTC()
	query := `
		INSERT INTO messages (sender, text, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, sender, text, now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &store.Message{
		ID:        id,
		Sender:    sender,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UpdateMessage replaces the message text. The update and the read-back share one transaction.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, id int64, text string) (*store.Message, error) {
	if err := store.ValidateText(text); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	query := `
		UPDATE messages
		SET text = ?, updated_at = MAX(?, created_at)
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query, text, s.clock().UnixNano(), id)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	row := tx.QueryRowContext(ctx, `
		SELECT id, sender, text, created_at, updated_at
		FROM messages
		WHERE id = ?
	`, id)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return msg, nil
}

// DeleteMessage removes a message. Deleting a missing id reports store.ErrNotFound.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (*store.Message, error) {
	var (
		msg                  store.Message
		createdAt, updatedAt int64
	)
	if err := row.Scan(&msg.ID, &msg.Sender, &msg.Text, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	msg.CreatedAt = time.Unix(0, createdAt).UTC()
	msg.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &msg, nil
}
