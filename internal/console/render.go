package console

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/vovakirdan/pollchat/internal/profile"
	"github.com/vovakirdan/pollchat/internal/proto"
)

// View is everything Render needs to draw one frame.
type View struct {
	Messages []proto.Message
	Me       string
	// EditingID is the message under edit, 0 when none.
	EditingID int64
	Draft     string
}

// Renderer draws snapshots as a table.
type Renderer struct {
	profiles *profile.Directory
	colours  bool
}

// NewRenderer creates a renderer. With colours off the output is plain text.
func NewRenderer(profiles *profile.Directory, colours bool) *Renderer {
	return &Renderer{profiles: profiles, colours: colours}
}

// Render writes the snapshot in server order. Own messages and the row under edit are highlighted.
func (r *Renderer) Render(w io.Writer, v View) {
	if len(v.Messages) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "From", "Time", "Message"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, msg := range v.Messages {
		from := r.profiles.Lookup(msg.Sender).Name
		text := msg.Text
		stamp := msg.CreatedAt.Local().Format("15:04")
		if msg.UpdatedAt.After(msg.CreatedAt) {
			stamp += " (edited)"
		}

		switch {
		case msg.ID == v.EditingID:
			text = r.paint(color.New(color.FgYellow), "[editing] "+v.Draft)
		case msg.Sender == v.Me:
			from = r.paint(color.New(color.FgGreen), from)
		}

		table.Append([]string{strconv.FormatInt(msg.ID, 10), from, stamp, text})
	}
	table.Render()
}

// Status prints a one-line notice, in red when it reports a failure.
func (r *Renderer) Status(w io.Writer, failed bool, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if failed {
		line = r.paint(color.New(color.FgRed), line)
	}
	fmt.Fprintln(w, line)
}

func (r *Renderer) paint(style color.Style, s string) string {
	if !r.colours {
		return s
	}
	return style.Render(s)
}
