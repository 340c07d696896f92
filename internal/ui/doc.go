// Package ui renders terminal output for the gateway with lipgloss styles.
//
// The only screen is the startup banner printed by the serve command: the listen URL,
// whether Blizzard API credentials were found, and how to stop the server.
package ui
