// Package auth implements the Spotify authorization-code-with-PKCE flow and
// the token lifecycle built on it.
//
// Service owns the token set and user profile: it exchanges authorization
// codes, refreshes access tokens before they expire, and persists both
// records through a durable Store. The PKCE verifier lives in a
// session-scoped Store and never outlives a single login attempt.
package auth
