package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conneroisu/jopilink/internal/linker"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen, color.Bold)
	headerColor  = color.New(color.FgCyan, color.Bold)
	addedColor   = color.New(color.FgGreen)
	removedColor = color.New(color.FgRed)
)

// printProblems prints the warnings then the errors of a run.
func printProblems(w io.Writer, result *linker.Result, quiet bool) {
	if !quiet {
		for _, warning := range result.Warnings {
			warningColor.Fprintf(w, "  ! %v\n", warning)
		}
	}

	for _, err := range result.Errors {
		errorColor.Fprintf(w, "  ✗ %v\n", err)
	}
}

// printSection prints a titled list of paths, nothing when empty.
func printSection(w io.Writer, title string, paths []string) {
	if len(paths) == 0 {
		return
	}

	headerColor.Fprintf(w, "%s (%d)\n", title, len(paths))
	for _, p := range paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

// printDiff colors the lines of a linker line diff.
func printDiff(w io.Writer, diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			addedColor.Fprint(w, "    "+line)
		case strings.HasPrefix(line, "-"):
			removedColor.Fprint(w, "    "+line)
		case line != "":
			fmt.Fprint(w, "    "+line)
		}
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
