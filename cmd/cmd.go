// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2 + PKCE",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show current authentication state",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Clear stored tokens and user profile",
				Action: r.AuthLogout,
			},
		},
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify playback operations",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List Spotify playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to print",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SpotifyPlaylists,
			},
			{
				Name:  "devices",
				Usage: "List available playback devices",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SpotifyDevices,
			},
			{
				Name:  "play",
				Usage: "Start playback of a playlist on a device",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "uri",
						Usage:    "Context URI to play (spotify:playlist:...)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "device",
						Usage:    "Device ID to play on",
						Required: true,
					},
				},
				Action: r.SpotifyPlay,
			},
		},
	}
}

// scenesCommand handles scene persistence and playback operations
func scenesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "scenes",
		Aliases: []string{"scene"},
		Usage:   "Manage saved playback scenes",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Save a new scene from a playlist and device",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Scene name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "playlist",
						Usage:    "Playlist name or ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "device",
						Usage:    "Device name or ID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "volume",
						Usage: "Playback volume (0-100)",
						Value: 50,
					},
				},
				Action: r.SceneAdd,
			},
			{
				Name:  "list",
				Usage: "List saved scenes",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SceneList,
			},
			{
				Name:  "play",
				Usage: "Start playback of a saved scene",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.ScenePlay,
			},
			{
				Name:    "rm",
				Aliases: []string{"remove"},
				Usage:   "Remove a saved scene",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.SceneRemove,
			},
			{
				Name:  "export",
				Usage: "Export saved scenes to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (csv, markdown, text)",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.SceneExport,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive scene playback.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for scene playback",
		Action:  r.TUI,
	}
}
