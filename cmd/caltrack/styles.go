package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/caltrack/caltrack/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	cautionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

func statusGlyph(status string) string {
	switch status {
	case model.StatusPass:
		return passStyle.Render("✓ PASS")
	case model.StatusFail:
		return failStyle.Render("✗ FAIL")
	case model.StatusError:
		return errorStyle.Render("! ERROR")
	default:
		return skippedStyle.Render("- skipped")
	}
}
