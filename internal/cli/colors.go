package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI color codes for consistent styling across all CLI commands
const (
	// Reset all formatting
	Reset = "\033[0m"

	// Text colors
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	White  = "\033[37m"

	// Text formatting
	Bold = "\033[1m"
	Dim  = "\033[2m"
)

// Predefined color combinations for consistency
var (
	HeaderStyle  = Cyan + Bold
	SuccessStyle = Green + Bold
	ErrorStyle   = Red + Bold
	WarningStyle = Yellow + Bold
	InfoStyle    = Blue + Bold
	LabelStyle   = Cyan
	ValueStyle   = White + Bold
	DimStyle     = Dim
)

// colorEnabled is decided once per run from the output writer
var colorEnabled = false

// setColorOutput enables styling only when w is a terminal and NO_COLOR is unset
func setColorOutput(w io.Writer) {
	colorEnabled = false
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return
	}
	f, ok := w.(*os.File)
	if !ok {
		return
	}
	colorEnabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func style(s, text string) string {
	if !colorEnabled {
		return text
	}
	return s + text + Reset
}

// Helper functions for common formatting patterns
func FormatHeader(text string) string {
	return style(HeaderStyle, text)
}

func FormatSuccess(text string) string {
	return style(SuccessStyle, text)
}

func FormatError(text string) string {
	return style(ErrorStyle, text)
}

func FormatWarning(text string) string {
	return style(WarningStyle, text)
}

func FormatInfo(text string) string {
	return style(InfoStyle, text)
}

func FormatDim(text string) string {
	return style(DimStyle, text)
}

// Format a label-value pair
func FormatLabelValue(label, value string) string {
	return style(LabelStyle, label) + " " + style(ValueStyle, value)
}
