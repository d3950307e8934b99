package render

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urbandao/urbandao/internal/core"
	"github.com/urbandao/urbandao/internal/domain"
)

// OutcomeRenderer prints committed calls and their events
type OutcomeRenderer struct {
	out io.Writer
}

// NewOutcomeRenderer creates a new outcome renderer
func NewOutcomeRenderer(out io.Writer) *OutcomeRenderer {
	return &OutcomeRenderer{out: out}
}

// RenderCall prints the committed call
func (r *OutcomeRenderer) RenderCall(caller common.Address, module, method string, out *core.Outcome) {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s.%s committed", module, method)))
	field(r.out, "Caller", Address(caller))
	if out.ResultID != 0 {
		field(r.out, "Result ID", idStyle.Sprint(out.ResultID))
	}
	r.RenderEvents(out.Events)
}

// RenderEvents prints events one per line
func (r *OutcomeRenderer) RenderEvents(events []domain.Event) {
	if len(events) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	section(r.out, "Events")
	for _, ev := range events {
		fmt.Fprintf(r.out, "  %s %s\n", mutedStyle.Sprintf("#%-4d", ev.Seq), ev.String())
	}
}
