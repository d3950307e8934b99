package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// newTable returns a borderless table writing to out
func newTable(out io.Writer, header ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingLeft:      "  ",
		PaddingRight:     " ",
		MiddleHorizontal: "─",
		MiddleSeparator:  "─",
	}
	t.Style().Format.Header = text.FormatUpper
	t.Style().Color.Header = text.Colors{text.Bold}
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	return t
}

func empty(out io.Writer, what string) {
	fmt.Fprintln(out, mutedStyle.Sprintf("No %s found", what))
}
