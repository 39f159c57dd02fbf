package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	xterm "github.com/charmbracelet/x/term"
	"golang.org/x/term"
)

type fdHolder interface {
	Fd() uintptr
}

var (
	isTerminalFunc = func(fd int) bool { return xterm.IsTerminal(uintptr(fd)) }
	getSizeFunc    = term.GetSize
)

const fallbackWidth = 80

// SetIsTerminalFuncForTesting overrides terminal detection and returns a restore function.
func SetIsTerminalFuncForTesting(fn func(int) bool) func() {
	previous := isTerminalFunc
	isTerminalFunc = fn
	return func() {
		isTerminalFunc = previous
	}
}

// ShouldUseTUI reports whether output should go through the bubbletea viewer.
func ShouldUseTUI(quiet bool, in io.Reader, out io.Writer) bool {
	if quiet {
		return false
	}
	return IsTerminalReader(in) && IsTerminalWriter(out)
}

func IsTerminalReader(reader io.Reader) bool {
	if holder, ok := reader.(fdHolder); ok {
		return isTerminalFunc(int(holder.Fd()))
	}
	return false
}

func IsTerminalWriter(writer io.Writer) bool {
	if holder, ok := writer.(fdHolder); ok {
		return isTerminalFunc(int(holder.Fd()))
	}
	return false
}

// Width returns the terminal width of writer, or 80 when it is not a terminal.
func Width(writer io.Writer) int {
	holder, ok := writer.(fdHolder)
	if !ok || !isTerminalFunc(int(holder.Fd())) {
		return fallbackWidth
	}
	width, _, err := getSizeFunc(int(holder.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// ProgramOptions builds bubbletea options for in/out, without a renderer when no terminal is present.
func ProgramOptions(in io.Reader, out io.Writer) []tea.ProgramOption {
	options := []tea.ProgramOption{
		tea.WithInput(in),
		tea.WithOutput(out),
	}

	if !IsTerminalReader(in) || !IsTerminalWriter(out) {
		options = append(options, tea.WithoutRenderer())
	}

	return options
}
