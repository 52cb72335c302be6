// Package cli renders classification results and progress for the terminal.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/atlas/internal/model"
)

// Palette. Each color has a light and a dark terminal variant.
var (
	AccentColor  = lipgloss.AdaptiveColor{Light: "#2F5FD0", Dark: "#7AA2F7"}
	GoodColor    = lipgloss.AdaptiveColor{Light: "#1A7F64", Dark: "#73DACA"}
	CautionColor = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#E0AF68"}
	BadColor     = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F7768E"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#737AA2"}
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
	SectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(GoodColor)
	WarningStyle = lipgloss.NewStyle().Foreground(CautionColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(BadColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(AccentColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(MutedColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// Table cells are padded on the right so columns line up.
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor).PaddingRight(2)
	TableCellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	InfoIcon    = "›"
	AtlasIcon   = "🧭"
	LabelIcon   = "🏷️"
)

func iconLine(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string { return iconLine(SuccessStyle, SuccessIcon, message) }

// FormatError prefixes message with a cross.
func FormatError(message string) string { return iconLine(ErrorStyle, ErrorIcon, message) }

// FormatWarning prefixes message with a warning mark.
func FormatWarning(message string) string { return iconLine(WarningStyle, WarningIcon, message) }

// FormatInfo prefixes message with a pointer.
func FormatInfo(message string) string { return iconLine(InfoStyle, InfoIcon, message) }

// FormatTitle renders a heading with the compass icon.
func FormatTitle(title string) string { return iconLine(TitleStyle, AtlasIcon, title) }

// FormatValid renders a validation verdict.
func FormatValid(valid bool) string {
	if valid {
		return iconLine(SuccessStyle, SuccessIcon, "valid")
	}
	return iconLine(ErrorStyle, ErrorIcon, "invalid")
}

// FormatStatus colors a run status: complete is good, unsatisfied a caution,
// anything else bad.
func FormatStatus(status model.RunStatus) string {
	switch status {
	case model.RunComplete:
		return SuccessStyle.Render(string(status))
	case model.RunUnsatisfied:
		return WarningStyle.Render(string(status))
	default:
		return ErrorStyle.Render(string(status))
	}
}

// FormatScore renders a 0..1 score as a ten-cell bar followed by the value.
func FormatScore(score float64) string {
	score = min(max(score, 0), 1)
	filled := int(score*10 + 0.5)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)

	style := SuccessStyle
	switch {
	case score < 0.4:
		style = SubtleStyle
	case score < 0.7:
		style = WarningStyle
	}
	return fmt.Sprintf("%s %.2f", style.Render(bar), score)
}
