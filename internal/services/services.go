// package services defines the authenticated Spotify Web API client.
//
// The client never manages credentials itself: every request pulls a
// validity-guaranteed access token from a TokenSource (the auth service).
package services

import "context"

// TokenSource supplies access tokens that are guaranteed to remain valid
// for at least the auth service's refresh window. Implemented by
// [auth.Service].
type TokenSource interface {
	ValidAccessToken(ctx context.Context) (string, error)
}
