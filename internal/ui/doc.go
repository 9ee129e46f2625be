// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a scene picker: it lists saved scenes, confirms a selection,
// and launches playback of the chosen scene's playlist on its device.
package ui
