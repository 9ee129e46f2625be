package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/kmdeck/sceneset/internal/auth"
	"github.com/kmdeck/sceneset/internal/repositories"
	"github.com/kmdeck/sceneset/internal/services"
	"github.com/kmdeck/sceneset/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var (
		db            *sql.DB
		authService   *auth.Service
		spotifyClient *services.Client
		sceneRepo     *repositories.SceneRepository
	)

	if d, err := shared.NewDatabase(config.Database.Path); err != nil {
		logger.Warnf("database unavailable: %v", err)
	} else {
		db = d
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warnf("failed to run migrations: %v", err)
		}
		sceneRepo = repositories.NewSceneRepository(db)
	}

	if db != nil {
		if err := config.Credentials.Spotify.Validate(); err != nil {
			logger.Warnf("spotify credentials not configured: %v", err)
		} else if svc, err := auth.NewService(auth.Options{
			ClientID:    config.Credentials.Spotify.ClientID,
			RedirectURI: config.Credentials.Spotify.RedirectURI,
			Durable:     repositories.NewKVRepository(db),
			Session:     auth.NewMemoryStore(),
			Logger:      logger,
		}); err != nil {
			logger.Warnf("failed to create auth service: %v", err)
		} else {
			authService = svc
			if client, err := services.NewClient(services.ClientOpts{
				Tokens: svc,
				Logger: logger,
			}); err != nil {
				logger.Warnf("failed to create spotify client: %v", err)
			} else {
				spotifyClient = client
			}
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Auth:    authService,
		Spotify: spotifyClient,
		Scenes:  sceneRepo,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "sceneset",
		Usage:    "Save and replay Spotify playback scenes",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}

	if db != nil {
		db.Close()
	}
}
