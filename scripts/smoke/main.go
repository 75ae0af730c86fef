package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vovakirdan/pollchat/internal/client"
)

func main() {
	if err := run(); err != nil {
		log.Printf("smoke: %v", err)
		os.Exit(1)
	}
}

// run drives one message through its whole lifecycle against a live server.
func run() error {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	sender := flag.String("sender", "smoke", "sender label")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	api := client.NewAPI(*addr)

	created, err := api.CreateMessage(ctx, *sender, *text)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	fmt.Printf("created id=%d at=%s\n", created.ID, created.CreatedAt.Format(time.RFC3339Nano))

	if err := expectListed(ctx, api, created.ID, *text); err != nil {
		return err
	}

	updated, err := api.UpdateMessage(ctx, created.ID, *text+" (edited)")
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		return fmt.Errorf("update: updated_at %s before created_at %s", updated.UpdatedAt, updated.CreatedAt)
	}
	fmt.Printf("updated id=%d text=%q\n", updated.ID, updated.Text)

	if err := expectListed(ctx, api, created.ID, updated.Text); err != nil {
		return err
	}

	if err := api.DeleteMessage(ctx, created.ID); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := api.DeleteMessage(ctx, created.ID); !errors.Is(err, client.ErrNotFound) {
		return fmt.Errorf("second delete: want not found, got %v", err)
	}
	fmt.Printf("deleted id=%d\n", created.ID)
	return nil
}

func expectListed(ctx context.Context, api *client.API, id int64, text string) error {
	msgs, err := api.ListMessages(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	for _, m := range msgs {
		if m.ID == id {
			if m.Text != text {
				return fmt.Errorf("list: message %d has text %q, want %q", id, m.Text, text)
			}
			return nil
		}
	}
	return fmt.Errorf("list: message %d missing from %d messages", id, len(msgs))
}
