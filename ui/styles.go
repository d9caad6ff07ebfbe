// Package ui provides the terminal interface for the tunnel manager.
// This file contains the lipgloss styles.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.AdaptiveColor{Light: "#1c71d8", Dark: "#3584e4"}
	success = lipgloss.AdaptiveColor{Light: "#26a269", Dark: "#2ec27e"}
	danger  = lipgloss.AdaptiveColor{Light: "#c01c28", Dark: "#e01b24"}
	muted   = lipgloss.AdaptiveColor{Light: "#77767b", Dark: "#9a9996"}

	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(accent).
			Padding(0, 1).
			Bold(true)

	detailBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)

	labelStyle   = lipgloss.NewStyle().Foreground(muted).Width(14)
	valueStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).MarginTop(1)
	statusStyle  = lipgloss.NewStyle().Foreground(success)
	errorStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(muted)
)
