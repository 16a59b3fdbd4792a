package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/njchilds90/calcsteps/steps"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the calculation failed
	ExitCommandError = 2 // bad flags, arguments or config
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func commandError(message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that are not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

const wrapWidth = 76

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#b4befe"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	resultStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f38ba8"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
)

// formatter writes results as JSON or as a readable step list.
type formatter struct {
	format string
	w      io.Writer
}

func (f *formatter) json(v any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// trace writes a heading, the numbered steps and the closing answer line.
func (f *formatter) trace(heading string, trace []steps.Step, answer string) {
	fmt.Fprintln(f.w, headingStyle.Render(heading))
	for i, st := range trace {
		title := titleStyle.Render(st.Title)
		if st.Error {
			title = errorStyle.Render(st.Title)
		}
		fmt.Fprintf(f.w, "%3d. %s\n", i+1, title)
		if st.Content != "" {
			fmt.Fprintln(f.w, indent(wordwrap.String(st.Content, wrapWidth-5), "     "))
		}
		if st.Result != "" && !st.Final {
			fmt.Fprintln(f.w, "     "+dimStyle.Render("=> ")+st.Result)
		}
	}
	if answer != "" {
		fmt.Fprintln(f.w, resultStyle.Render("Answer: "+answer))
	}
}
