package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pollchat/internal/client"
	"github.com/vovakirdan/pollchat/internal/console"
	"github.com/vovakirdan/pollchat/internal/log"
	"github.com/vovakirdan/pollchat/internal/profile"
	"github.com/vovakirdan/pollchat/internal/proto"
	"github.com/vovakirdan/pollchat/internal/speech"
)

type options struct {
	server       string
	sender       string
	token        string
	pollInterval time.Duration
	profiles     string
	speechCmd    string
	logLevel     string
	noColor      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:           "pollchat",
		Short:         "Terminal client for pollchat",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, &o, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.server, "server", "http://localhost:8080", "server base URL")
	f.StringVar(&o.sender, "sender", "User 1", "sender label for new messages")
	f.StringVar(&o.token, "token", "", "session token; when set the sender is taken from /api/user")
	f.DurationVar(&o.pollInterval, "poll-interval", 0, "refresh interval, 0 disables background polling")
	f.StringVar(&o.profiles, "profiles", "", "yaml file mapping senders to display names")
	f.StringVar(&o.speechCmd, "speech-cmd", "", "text-to-speech command, the text is appended as last argument")
	f.StringVar(&o.logLevel, "log-level", "warn", "log level")
	f.BoolVar(&o.noColor, "no-color", false, "disable colours")
	return cmd
}

type chat struct {
	syncer   *client.Syncer
	session  *client.EditSession
	renderer *console.Renderer
	speaker  speech.Speaker

	in     *bufio.Scanner
	outMu  sync.Mutex
	out    io.Writer
	sender string
}

func run(ctx context.Context, o *options, stdin io.Reader, stdout io.Writer) error {
	logger := log.NewWithWriter(os.Stderr, o.logLevel, "console")

	dir := profile.Default()
	if o.profiles != "" {
		loaded, err := profile.Load(o.profiles)
		if err != nil {
			return err
		}
		dir = loaded
	}

	var speaker speech.Speaker = speech.Nop{}
	if o.speechCmd != "" {
		cs, err := speech.NewCommandSpeaker(o.speechCmd, logger)
		if err != nil {
			return err
		}
		defer cs.Close()
		speaker = cs
	}

	api := client.NewAPI(o.server, client.WithToken(o.token))
	sender := o.sender
	if o.token != "" {
		user, err := api.CurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("resolve current user: %w", err)
		}
		sender = user.Sender
	}

	syncer := client.NewSyncer(api, logger)
	c := &chat{
		syncer:   syncer,
		session:  client.NewEditSession(syncer),
		renderer: console.NewRenderer(dir, !o.noColor),
		speaker:  speaker,
		in:       bufio.NewScanner(stdin),
		out:      stdout,
		sender:   sender,
	}
	syncer.OnChange(c.onSnapshot)

	c.status(false, "Connected to %s as %s. Type /help for commands.", o.server, dir.Lookup(sender).Name)
	if err := syncer.Refresh(ctx); err != nil {
		c.status(true, "load messages: %v", err)
	} else {
		c.redraw()
	}

	if o.pollInterval > 0 {
		go syncer.Poll(ctx, o.pollInterval)
	}

	return c.loop(ctx)
}

func (c *chat) loop(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for c.in.Scan() {
			lines <- c.in.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return c.in.Err()
			}
			if quit := c.handle(ctx, line, lines); quit {
				return nil
			}
		}
	}
}

func (c *chat) handle(ctx context.Context, line string, lines <-chan string) bool {
	_, editing := c.session.Target()
	cmd, err := console.Parse(line, editing)
	if err != nil {
		c.status(true, "%v", err)
		return false
	}

	switch cmd.Kind {
	case console.KindNone:
	case console.KindSend:
		_, err := c.syncer.Send(ctx, c.currentSender(), cmd.Text)
		switch {
		case err == nil:
		case client.IsRefresh(err):
			c.status(true, "%v", err)
		default:
			// Echo the text back so it can be resent.
			c.status(true, "send failed: %v (unsent: %s)", err, strings.TrimSpace(cmd.Text))
		}
	case console.KindSaveDraft:
		c.saveDraft(ctx, cmd.Text)
	case console.KindSave:
		c.save(ctx)
	case console.KindEdit:
		msg, ok := c.syncer.Lookup(cmd.ID)
		if !ok {
			c.status(true, "no message %d", cmd.ID)
			return false
		}
		if prev, cancelled := c.session.Start(msg); cancelled {
			c.status(false, "discarded edit of message %d", prev)
		}
		c.status(false, "editing %d: type the new text and press Enter, or /cancel", cmd.ID)
		c.redraw()
	case console.KindCancel:
		if c.session.Cancel() {
			c.redraw()
		}
	case console.KindDelete:
		if !c.confirm(ctx, fmt.Sprintf("Delete message %d? [y/N] ", cmd.ID), lines) {
			return false
		}
		if err := c.syncer.Delete(ctx, cmd.ID); err != nil {
			c.status(true, "delete failed: %v", err)
		}
	case console.KindSpeak:
		msg, ok := c.syncer.Lookup(cmd.ID)
		if !ok {
			c.status(true, "no message %d", cmd.ID)
			return false
		}
		if err := c.speaker.Speak(msg.Text); err != nil {
			c.status(true, "speak: %v", err)
		}
	case console.KindRefresh:
		if err := c.syncer.Refresh(ctx); err != nil {
			c.status(true, "refresh failed: %v", err)
			return false
		}
		c.redraw()
	case console.KindAs:
		c.outMu.Lock()
		c.sender = cmd.Text
		c.outMu.Unlock()
		c.status(false, "now sending as %s", cmd.Text)
	case console.KindHelp:
		c.status(false, "%s", console.Help)
	case console.KindQuit:
		return true
	}
	return false
}

// saveDraft replaces the draft and saves it. If the edit already ended, for example
// because a poll found the message deleted, the text is echoed back instead of dropped.
func (c *chat) saveDraft(ctx context.Context, text string) {
	if err := c.session.SetDraft(text); err != nil {
		c.status(true, "edit no longer active: %v (unsaved: %s)", err, strings.TrimSpace(text))
		return
	}
	c.save(ctx)
}

func (c *chat) save(ctx context.Context) {
	_, err := c.session.Save(ctx)
	switch {
	case err == nil:
	case client.IsRefresh(err):
		c.status(true, "%v", err)
	case errors.Is(err, client.ErrEmptyDraft):
		c.status(true, "draft is empty, type the new text or /cancel")
	default:
		c.status(true, "save failed, still editing: %v", err)
	}
	c.redraw()
}

func (c *chat) confirm(ctx context.Context, prompt string, lines <-chan string) bool {
	c.outMu.Lock()
	fmt.Fprint(c.out, prompt)
	c.outMu.Unlock()

	select {
	case <-ctx.Done():
		return false
	case answer, ok := <-lines:
		return ok && strings.EqualFold(strings.TrimSpace(answer), "y")
	}
}

func (c *chat) onSnapshot(snap []proto.Message) {
	if c.session.Reconcile(snap) {
		c.status(true, "the message you were editing was deleted")
	}
	c.draw(snap)
}

func (c *chat) redraw() {
	c.draw(c.syncer.Snapshot())
}

func (c *chat) draw(snap []proto.Message) {
	id, _ := c.session.Target()
	draft := c.session.Draft()

	c.outMu.Lock()
	defer c.outMu.Unlock()
	view := console.View{
		Messages:  snap,
		Me:        c.sender,
		EditingID: id,
		Draft:     draft,
	}
	fmt.Fprintln(c.out)
	c.renderer.Render(c.out, view)
}

func (c *chat) currentSender() string {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	return c.sender
}

func (c *chat) status(failed bool, format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	c.renderer.Status(c.out, failed, format, args...)
}
