package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kmdeck/sceneset/internal/server"
	"github.com/kmdeck/sceneset/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the OAuth2 PKCE authorization flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// waits for the redirect callback to complete the token exchange.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: set spotify client_id in config.toml or SPOTIFY_CLIENT_ID", shared.ErrMissingCredentials)
	}

	authURL, err := r.auth.BeginLogin()
	if err != nil {
		return fmt.Errorf("failed to start login: %w", err)
	}

	callbackHandler := server.NewCallbackHandler(r.auth)
	router := server.NewBasicRouter()
	router.Handler(callbackHandler)
	router.Handler(server.NewStatusHandler(r.auth))

	httpServer := &http.Server{
		Addr:    r.config.Server.Addr(),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting callback server at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callbackHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}

	r.writePlainln("✓ Authorization successful")
	if user := r.auth.User(); user != nil {
		r.writePlain("Logged in as %s\n", user.DisplayName)
	}
	r.writePlain("\nYou can now use: sceneset spotify playlists\n")

	return nil
}

// AuthStatus shows the current authentication state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: set spotify client_id in config.toml or SPOTIFY_CLIENT_ID", shared.ErrMissingCredentials)
	}

	if !r.auth.Authenticated() {
		r.writePlain("Authentication: ✗ Not authenticated\n")
		r.writePlain("Run 'sceneset auth login' to log in\n")
		return nil
	}

	r.writePlain("Authentication: ✓ Authenticated\n")
	if user := r.auth.User(); user != nil {
		r.writePlain("User: %s (%s)\n", user.DisplayName, user.ID)
	}
	if tokens := r.auth.Tokens(); tokens != nil {
		r.writePlain("Token expires: %s\n", tokens.ExpiresAt.Local().Format(time.RFC1123))
	}

	return nil
}

// AuthLogout clears all stored authentication state.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: set spotify client_id in config.toml or SPOTIFY_CLIENT_ID", shared.ErrMissingCredentials)
	}

	r.auth.ClearAuth()
	r.writePlain("✓ Logged out\n")

	return nil
}
