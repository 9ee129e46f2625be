// Package server provides HTTP routing, middleware, and the OAuth redirect
// handling for the CLI login flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [CallbackHandler] implements the redirect leg of the authorization-code
// flow with PKCE. It extracts the authorization code, drives the exchange
// through the auth service, and sends the outcome through a channel.
//
// It only processes one callback to prevent replay attacks. The flow carries
// no state parameter; the PKCE verifier binds the exchange to this process.
//
// # Current Usage
//
// When the user runs 'sceneset auth login', a temporary HTTP server starts on
// the configured address, handles the callback, and shuts down after the
// token exchange completes.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
