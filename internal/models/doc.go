// Package models defines the data model for the sceneset application.
//
// Scenes are the only persistent entity: a saved playlist + playback device
// + volume combination. Playlists and devices are transient views over the
// Spotify API and are never written back to it.
package models
