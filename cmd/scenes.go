package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/kmdeck/sceneset/internal/formatter"
	"github.com/kmdeck/sceneset/internal/models"
	"github.com/kmdeck/sceneset/internal/shared"
	"github.com/urfave/cli/v3"
)

// SceneAdd saves a new scene, resolving the playlist and device by name or ID
// against the live API.
func (r *Runner) SceneAdd(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	playlistQuery := cmd.String("playlist")
	deviceQuery := cmd.String("device")
	volume := cmd.Int("volume")

	if r.scenes == nil {
		return fmt.Errorf("%w: database not initialized, run 'sceneset setup database'", shared.ErrServiceUnavailable)
	}
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("resolving playlist %q and device %q", playlistQuery, deviceQuery)

	playlist, err := r.resolvePlaylist(ctx, playlistQuery)
	if err != nil {
		return err
	}

	device, err := r.resolveDevice(ctx, deviceQuery)
	if err != nil {
		return err
	}

	scene := &models.Scene{
		Name:   name,
		Volume: int(volume),
		Playlist: models.ScenePlaylist{
			ID:       playlist.ID,
			Name:     playlist.Name,
			URI:      playlist.URI,
			ImageURL: playlist.ImageURL,
		},
		Device: models.SceneDevice{
			ID:   device.ID,
			Name: device.Name,
			Type: device.Type,
		},
	}

	if err := r.scenes.Create(scene); err != nil {
		return fmt.Errorf("failed to save scene: %w", err)
	}

	r.writePlain("✓ Scene '%s' saved\n", scene.Name)
	r.writePlain("  Playlist: %s\n", scene.Playlist.Name)
	r.writePlain("  Device: %s (%s)\n", scene.Device.Name, scene.Device.Type)
	r.writePlain("  Volume: %d\n", scene.Volume)

	return nil
}

// SceneList lists saved scenes.
func (r *Runner) SceneList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.scenes == nil {
		return fmt.Errorf("%w: database not initialized, run 'sceneset setup database'", shared.ErrServiceUnavailable)
	}

	scenes, err := r.scenes.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list scenes: %w", err)
	}

	if useJSON {
		return r.writeJSON(scenes, pretty)
	}

	if len(scenes) == 0 {
		r.writePlain("No scenes saved. Create one with 'sceneset scenes add'.\n")
		return nil
	}

	r.writePlain("Found %d scenes:\n\n", len(scenes))
	for i, s := range scenes {
		r.writePlain("%d. %s\n", i+1, s.Name)
		r.writePlain("   Playlist: %s\n", s.Playlist.Name)
		r.writePlain("   Device: %s (%s)\n", s.Device.Name, s.Device.Type)
		r.writePlain("   Volume: %d\n\n", s.Volume)
	}

	return nil
}

// ScenePlay starts playback of a saved scene: the playlist on the scene's
// device, then the scene's volume. A volume failure does not fail the play.
func (r *Runner) ScenePlay(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: scene name is required", shared.ErrMissingArgument)
	}

	if r.scenes == nil {
		return fmt.Errorf("%w: database not initialized, run 'sceneset setup database'", shared.ErrServiceUnavailable)
	}
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client not initialized", shared.ErrServiceUnavailable)
	}

	scene, err := r.scenes.GetByName(name)
	if err != nil {
		return err
	}

	r.logger.Infof("playing scene %v on %v", scene.Name, scene.Device.Name)

	result := r.spotify.StartPlayback(ctx, scene.Playlist.URI, scene.Device.ID)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	r.writePlain("✓ Playing '%s' on %s\n", scene.Name, scene.Device.Name)

	if volResult := r.spotify.SetVolume(ctx, scene.Device.ID, scene.Volume); !volResult.Success {
		r.logger.Warnf("failed to set volume: %v", volResult.Error)
		r.writePlain("⚠ Could not set volume: %s\n", volResult.Error)
	}

	return nil
}

// SceneRemove soft-deletes a saved scene by name.
func (r *Runner) SceneRemove(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: scene name is required", shared.ErrMissingArgument)
	}

	if r.scenes == nil {
		return fmt.Errorf("%w: database not initialized, run 'sceneset setup database'", shared.ErrServiceUnavailable)
	}

	scene, err := r.scenes.GetByName(name)
	if err != nil {
		return err
	}

	if err := r.scenes.Delete(scene.ID); err != nil {
		return fmt.Errorf("failed to remove scene: %w", err)
	}

	r.writePlain("✓ Scene '%s' removed\n", scene.Name)

	return nil
}

// SceneExport writes saved scenes to a file in the requested format.
func (r *Runner) SceneExport(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	output := cmd.String("output")

	if r.scenes == nil {
		return fmt.Errorf("%w: database not initialized, run 'sceneset setup database'", shared.ErrServiceUnavailable)
	}

	scenes, err := r.scenes.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list scenes: %w", err)
	}

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(scenes, strings.TrimSuffix(output, ".csv"))
		if err != nil {
			return err
		}
		r.writePlain("✓ Scenes exported to %s and %s\n", result.ScenesFile, result.MetadataFile)
	case "markdown", "md":
		result, err := formatter.WriteMarkdownExport(scenes, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Scenes exported to %s\n", result.MarkdownFile)
		for _, cover := range result.CoverImages {
			r.writePlain("  saved %s\n", cover)
		}
	case "text", "txt":
		path, err := formatter.WriteTextExport(scenes, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Scenes exported to %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q (expected csv, markdown, or text)", shared.ErrInvalidArgument, format)
	}

	return nil
}

// resolvePlaylist finds a playlist whose ID or name matches the query.
func (r *Runner) resolvePlaylist(ctx context.Context, query string) (*models.Playlist, error) {
	playlists, err := r.spotify.UserPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	for i := range playlists {
		if playlists[i].ID == query || strings.EqualFold(playlists[i].Name, query) {
			return &playlists[i], nil
		}
	}

	return nil, fmt.Errorf("%w: no playlist matching %q", shared.ErrInvalidArgument, query)
}

// resolveDevice finds a device whose ID or name matches the query.
func (r *Runner) resolveDevice(ctx context.Context, query string) (*models.Device, error) {
	devices, err := r.spotify.AvailableDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	for i := range devices {
		if devices[i].ID == query || strings.EqualFold(devices[i].Name, query) {
			return &devices[i], nil
		}
	}

	return nil, fmt.Errorf("%w: no device matching %q (is it online?)", shared.ErrInvalidArgument, query)
}
