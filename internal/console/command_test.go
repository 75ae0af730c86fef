package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		editing bool
		want    Command
	}{
		{"plain text sends", "hello there", false, Command{Kind: KindSend, Text: "hello there"}},
		{"empty line is ignored", "   ", false, Command{Kind: KindNone}},
		{"text while editing saves it", "fixed typo", true, Command{Kind: KindSaveDraft, Text: "fixed typo"}},
		{"enter while editing saves", "", true, Command{Kind: KindSave}},
		{"edit", "/edit 12", false, Command{Kind: KindEdit, ID: 12}},
		{"delete", " /delete 3 ", false, Command{Kind: KindDelete, ID: 3}},
		{"speak", "/speak 4", true, Command{Kind: KindSpeak, ID: 4}},
		{"save", "/save", true, Command{Kind: KindSave}},
		{"cancel", "/cancel", true, Command{Kind: KindCancel}},
		{"refresh", "/refresh", false, Command{Kind: KindRefresh}},
		{"as", "/as So Panha", false, Command{Kind: KindAs, Text: "So Panha"}},
		{"help", "/help", false, Command{Kind: KindHelp}},
		{"quit", "/quit", false, Command{Kind: KindQuit}},
		{"exit", "/exit", true, Command{Kind: KindQuit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line, tt.editing)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("/frobnicate", false)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	for _, line := range []string{"/edit", "/edit abc", "/delete -1", "/speak 0", "/as   "} {
		_, err := Parse(line, false)
		assert.Error(t, err, line)
	}
}
