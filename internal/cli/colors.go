package cli

import (
	"fmt"
	"os"
)

// ANSI color codes for consistent styling across all CLI commands
const (
	Reset = "\033[0m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"

	Bold = "\033[1m"
	Dim  = "\033[2m"
)

// Predefined color combinations for consistency
var (
	HeaderStyle  = Cyan + Bold
	TitleStyle   = Magenta + Bold
	SuccessStyle = Green + Bold
	ErrorStyle   = Red + Bold
	WarningStyle = Yellow + Bold
	LabelStyle   = Cyan
	ValueStyle   = White + Bold
	CountStyle   = Yellow + Bold
	MetaStyle    = Gray
)

// colorEnabled is false when NO_COLOR is set
var colorEnabled = os.Getenv("NO_COLOR") == ""

func style(s, text string) string {
	if !colorEnabled {
		return text
	}
	return s + text + Reset
}

func FormatHeader(text string) string  { return style(HeaderStyle, text) }
func FormatTitle(text string) string   { return style(TitleStyle, text) }
func FormatSuccess(text string) string { return style(SuccessStyle, text) }
func FormatError(text string) string   { return style(ErrorStyle, text) }
func FormatWarning(text string) string { return style(WarningStyle, text) }
func FormatLabel(text string) string   { return style(LabelStyle, text) }
func FormatValue(text string) string   { return style(ValueStyle, text) }
func FormatDim(text string) string     { return style(Dim, text) }
func FormatMeta(text string) string    { return style(MetaStyle, text) }

func FormatCount(count int) string {
	return style(CountStyle, fmt.Sprintf("%d", count))
}

// Format a label-value pair
func FormatLabelValue(label, value string) string {
	return FormatLabel(label) + " " + FormatValue(value)
}

// Format a count with label
func FormatCountLabel(label string, count int) string {
	return FormatLabel(label) + " " + FormatCount(count)
}
