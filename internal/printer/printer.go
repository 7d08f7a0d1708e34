// Package printer writes colored, user-facing CLI output. Diagnostic logging
// goes through zerolog instead; this package is only for what the operator
// is meant to read.
package printer

import (
	"fmt"
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// NO_COLOR disables colors; otherwise force them even without a TTY.
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	blue   = color.New(color.FgBlue, color.Bold)
	cyan   = color.New(color.FgCyan)

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects normal and error output. It returns a function that
// restores the previous writers.
func SetOutput(out, errOut io.Writer) (restore func()) {
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() { stdout, stderr = prevOut, prevErr }
}

// Success prints a message in green with a checkmark prefix.
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(stdout, msg)
}

// Info prints a plain message.
func Info(format string, a ...any) {
	fmt.Fprintf(stdout, format, a...)
}

// Warning prints a message in yellow with a warning prefix.
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(stderr, msg)
}

// Step prints a progress step.
func Step(format string, a ...any) {
	cyan.Fprintf(stdout, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a titled error with an explanation and suggestions to the
// error output and returns a ReportedError for cobra, which is configured not
// to print it again.
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error with key/value details, printed in key order.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(stderr, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(stderr, "%s\n", explanation)
	}

	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(stderr)
		for _, k := range keys {
			fmt.Fprintf(stderr, "  %s: %s\n", k, context[k])
		}
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(stderr, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(stderr, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(stderr, "  %d. %s\n", i+1, s)
		}
	}

	return &ReportedError{Title: title}
}

// ReportedError is returned by Error and ErrorWithContext. The details have
// already been printed, so callers only need its title.
type ReportedError struct {
	Title string
}

func (e *ReportedError) Error() string {
	return e.Title
}

// IsReported reports whether err, or an error it wraps, was already printed
// by this package.
func IsReported(err error) bool {
	var r *ReportedError
	return errors.As(err, &r)
}

// Outcome summarises a finished match.
type Outcome struct {
	Winner        string
	Color         string // "RED" or "BLUE"
	Outcome       string
	Reason        string
	Turns         int
	RedRemaining  int
	BlueRemaining int
}

// MatchResult prints the winner in their side's color, followed by the
// outcome and margin.
func MatchResult(o Outcome) {
	c := blue
	if o.Color == "RED" {
		c = red
	}
	c.Fprintf(stdout, "%s (%s) wins", o.Winner, o.Color)
	fmt.Fprintf(stdout, " by %s after %d turns", strings.ToLower(o.Reason), o.Turns)
	fmt.Fprintf(stdout, " [%s, remaining %d-%d]\n", o.Outcome, o.RedRemaining, o.BlueRemaining)
}

// Println prints a plain line.
func Println(a ...any) {
	fmt.Fprintln(stdout, a...)
}

// Printf prints a plain formatted message.
func Printf(format string, a ...any) {
	fmt.Fprintf(stdout, format, a...)
}
