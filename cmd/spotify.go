package main

import (
	"context"
	"fmt"

	"github.com/kmdeck/sceneset/internal/shared"
	"github.com/urfave/cli/v3"
)

// SpotifyPlaylists lists the current user's playlists with optional limit.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("listing spotify playlists")

	playlists, err := r.spotify.UserPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   URI: %s\n", p.URI)
		r.writePlain("\n")
	}

	return nil
}

// SpotifyDevices lists the user's available playback devices.
func (r *Runner) SpotifyDevices(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("listing playback devices")

	devices, err := r.spotify.AvailableDevices(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(devices, pretty)
	}

	if len(devices) == 0 {
		r.writePlain("No devices available. Open Spotify on a device first.\n")
		return nil
	}

	r.writePlain("Found %d devices:\n\n", len(devices))
	for i, d := range devices {
		active := ""
		if d.IsActive {
			active = " (active)"
		}
		r.writePlain("%d. %s [%s]%s\n", i+1, d.Name, d.Type, active)
		r.writePlain("   ID: %s\n\n", d.ID)
	}

	return nil
}

// SpotifyPlay starts playback of a context URI on a device.
func (r *Runner) SpotifyPlay(ctx context.Context, cmd *cli.Command) error {
	contextURI := cmd.String("uri")
	deviceID := cmd.String("device")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("starting playback of %v on %v", contextURI, deviceID)

	result := r.spotify.StartPlayback(ctx, contextURI, deviceID)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	r.writePlain("✓ Playback started\n")

	return nil
}
