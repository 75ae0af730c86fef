// Package console implements the line-oriented terminal front end of the chat client.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a parsed input line.
type Kind int

const (
	KindNone Kind = iota
	KindSend
	KindSaveDraft
	KindEdit
	KindSave
	KindCancel
	KindDelete
	KindSpeak
	KindRefresh
	KindAs
	KindHelp
	KindQuit
)

// Command is one line of user input.
type Command struct {
	Kind Kind
	ID   int64
	Text string
}

var ErrUnknownCommand = errors.New("unknown command")

// Help lists the commands accepted by Parse.
const Help = `Type a message and press Enter to send it.
  /edit ID     edit a message; type the new text and press Enter to save
  /save        save the current draft
  /cancel      discard the current draft
  /delete ID   delete a message
  /speak ID    read a message aloud
  /refresh     fetch the latest messages
  /as NAME     send as NAME
  /help        show this help
  /quit        exit`

// Parse turns a line into a Command. While editing, plain text replaces the draft and saves it,
// and an empty line saves the draft unchanged.
func Parse(line string, editing bool) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		switch {
		case editing && trimmed == "":
			return Command{Kind: KindSave}, nil
		case editing:
			return Command{Kind: KindSaveDraft, Text: line}, nil
		case trimmed == "":
			return Command{Kind: KindNone}, nil
		default:
			return Command{Kind: KindSend, Text: line}, nil
		}
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/edit":
		return withID(KindEdit, name, arg)
	case "/delete":
		return withID(KindDelete, name, arg)
	case "/speak":
		return withID(KindSpeak, name, arg)
	case "/save":
		return Command{Kind: KindSave}, nil
	case "/cancel":
		return Command{Kind: KindCancel}, nil
	case "/refresh":
		return Command{Kind: KindRefresh}, nil
	case "/as":
		if arg == "" {
			return Command{}, fmt.Errorf("%s: sender name required", name)
		}
		return Command{Kind: KindAs, Text: arg}, nil
	case "/help":
		return Command{Kind: KindHelp}, nil
	case "/quit", "/exit":
		return Command{Kind: KindQuit}, nil
	default:
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
}

func withID(kind Kind, name, arg string) (Command, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return Command{}, fmt.Errorf("%s: message id required", name)
	}
	return Command{Kind: kind, ID: id}, nil
}
