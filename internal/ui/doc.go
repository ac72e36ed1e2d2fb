// Package ui styles terminal output for the classify CLI with lipgloss.
//
// [Palette] renders titles, status lines and tables; [Styles] is the shared instance.
package ui
