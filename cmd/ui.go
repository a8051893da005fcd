package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/sells-group/revops-assistant/internal/filter"
	"github.com/sells-group/revops-assistant/internal/prompt"
	"github.com/sells-group/revops-assistant/internal/table"
)

var (
	headingColor = color.New(color.FgMagenta, color.Bold)
	errorColor   = color.New(color.FgRed)
	keyColor     = color.New(color.FgYellow)
)

// startSpinner shows message on stderr until the returned stop func runs.
func startSpinner(message string) (stop func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	s.Start()
	return s.Stop
}

func heading(w io.Writer, title string) {
	headingColor.Fprintf(w, "\n━━━ %s ━━━\n", strings.ToUpper(title)) //nolint:errcheck
}

func keyValue(w io.Writer, key, value string) {
	keyColor.Fprintf(w, "%s: ", key) //nolint:errcheck
	fmt.Fprintln(w, value)
}

func printError(w io.Writer, msg string) {
	errorColor.Fprintln(w, msg) //nolint:errcheck
}

// printRecords writes one debug section of indented records.
func printRecords(w io.Writer, title string, recs []table.Record) error {
	heading(w, title)
	s, err := prompt.Pretty(recs)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, s)
	return nil
}

// printContext writes the three filtered sequences.
func printContext(w io.Writer, ctx filter.Context) error {
	if err := printRecords(w, "Buying group", ctx.Group); err != nil {
		return err
	}
	if err := printRecords(w, "Sales activities", ctx.Activities); err != nil {
		return err
	}
	return printRecords(w, "Marketing touchpoints", ctx.Marketing)
}
