package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level       ErrorLevel
	Context     string
	Problem     string
	Suggestions []string
	HelpCommand string
	NoColor     bool
}

// FormatError renders a load or execution failure with optional
// did-you-mean suggestions and a help command.
//
// Example output:
//
//	✗ STATEMENT NOT FOUND: users.findUserr
//	  Did you mean: users.findUser?
//	  → List statements: quill validate
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var header *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		header = color.New(color.Bold, color.FgYellow)
		symbol = "!"
	case ErrorLevelInfo:
		header = color.New(color.Bold, color.FgCyan)
		symbol = "i"
	default:
		header = color.New(color.Bold, color.FgRed)
		symbol = "✗"
	}
	if opts.NoColor {
		header.DisableColor()
	}

	b.WriteString(header.Sprintf("%s %s", symbol, opts.Context))
	b.WriteString("\n")
	if opts.Problem != "" {
		fmt.Fprintf(&b, "  %s\n", opts.Problem)
	}
	if len(opts.Suggestions) > 0 {
		fmt.Fprintf(&b, "  Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}
	if opts.HelpCommand != "" {
		fmt.Fprintf(&b, "  → %s\n", opts.HelpCommand)
	}
	return b.String()
}
