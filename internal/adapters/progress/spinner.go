package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/urbandao/urbandao/internal/usecase"
)

// SpinnerSink shows a spinner while a stage runs and a status line when it ends
type SpinnerSink struct {
	spinner *spinner.Spinner
	out     io.Writer
	stage   string
}

// NewSpinnerSink creates a spinner-based progress sink writing to stderr
func NewSpinnerSink() *SpinnerSink {
	return newSpinnerSink(os.Stderr)
}

func newSpinnerSink(out io.Writer) *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false
	return &SpinnerSink{spinner: s, out: out}
}

// Stage completes the running stage and starts the next one
func (p *SpinnerSink) Stage(message string) {
	p.finish(color.GreenString("✓"))
	p.stage = message
	p.spinner.Suffix = " " + message + "..."
	p.spinner.Start()
}

// Done completes the running stage
func (p *SpinnerSink) Done() {
	p.finish(color.GreenString("✓"))
}

// Info prints a message between stages
func (p *SpinnerSink) Info(message string) {
	p.finish(color.GreenString("✓"))
	fmt.Fprintf(p.out, "%s %s\n", color.CyanString("ℹ"), message)
}

// Error marks the running stage failed and prints message
func (p *SpinnerSink) Error(message string) {
	p.finish(color.RedString("✗"))
	fmt.Fprintf(p.out, "%s %s\n", color.RedString("✗"), message)
}

func (p *SpinnerSink) finish(mark string) {
	if p.stage == "" {
		return
	}
	p.spinner.Stop()
	fmt.Fprintf(p.out, "%s %s\n", mark, p.stage)
	p.stage = ""
}

// Ensure SpinnerSink implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerSink)(nil)
