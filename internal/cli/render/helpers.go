package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	sectionHeaderStyle = color.New(color.Bold, color.FgHiWhite)
	labelStyle         = color.New(color.Faint)
	addressStyle       = color.New(color.FgWhite)
	timestampStyle     = color.New(color.Faint)
	idStyle            = color.New(color.FgCyan, color.Bold)
	okStyle            = color.New(color.FgGreen)
	pendingStyle       = color.New(color.FgYellow)
	failStyle          = color.New(color.FgRed)
	mutedStyle         = color.New(color.Faint)

	titleCaser = cases.Title(language.English)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon. Only the
// innermost part of a wrapped chain is shown unless verbose is set.
func FormatError(err error, verbose bool) string {
	msg := err.Error()
	if !verbose {
		parts := strings.Split(msg, ": ")
		msg = strings.Join(parts[max(0, len(parts)-2):], ": ")
	}
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return color.New(color.FgRed).Sprintf("❌ %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// JSON writes v as indented JSON
func JSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// Status title-cases a snake_case status and colors it by outcome
func Status(status string) string {
	label := titleCaser.String(strings.ReplaceAll(status, "_", " "))
	switch status {
	case "paid", "waived", "validated", "resolved", "approved", "completed", "succeeded", "executed":
		return okStyle.Sprint(label)
	case "rejected", "cancelled", "canceled", "defeated", "overdue":
		return failStyle.Sprint(label)
	default:
		return pendingStyle.Sprint(label)
	}
}

// Address renders an address, or a dash for the zero address
func Address(a common.Address) string {
	if a == (common.Address{}) {
		return mutedStyle.Sprint("-")
	}
	return addressStyle.Sprint(a.Hex())
}

// Amount renders a token amount in base units
func Amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// Time renders a timestamp, or a dash for the zero time
func Time(t time.Time) string {
	if t.IsZero() {
		return mutedStyle.Sprint("-")
	}
	return timestampStyle.Sprint(t.UTC().Format("2006-01-02 15:04:05"))
}

// TimePtr renders an optional timestamp
func TimePtr(t *time.Time) string {
	if t == nil {
		return mutedStyle.Sprint("-")
	}
	return Time(*t)
}

func section(out io.Writer, title string) {
	fmt.Fprintln(out, sectionHeaderStyle.Sprint(title))
}

func field(out io.Writer, label string, value interface{}) {
	fmt.Fprintf(out, "  %s %v\n", labelStyle.Sprintf("%-14s", label+":"), value)
}
