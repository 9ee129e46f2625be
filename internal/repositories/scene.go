package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kmdeck/sceneset/internal/models"
	"github.com/kmdeck/sceneset/internal/shared"
)

// SceneRepository implements [models.Repository] for [models.Scene] persistence.
type SceneRepository struct {
	db *sql.DB
}

// NewSceneRepository creates a new [SceneRepository] with the given database connection
func NewSceneRepository(db *sql.DB) *SceneRepository {
	return &SceneRepository{db: db}
}

const sceneColumns = `
	id, sequence, name, volume,
	playlist_id, playlist_name, playlist_uri, playlist_image_url,
	device_id, device_name, device_type,
	created_at, updated_at, deleted_at
`

// Create inserts a new scene into the database with generated ID and sequence
func (r *SceneRepository) Create(scene *models.Scene) error {
	sequence, err := NextSequence(r.db, "scenes")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	scene.ID = shared.GenerateID()
	scene.Sequence = sequence

	now := time.Now()
	scene.CreatedAt = now
	scene.UpdatedAt = now

	if err := scene.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO scenes (` + sceneColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = r.db.Exec(query,
		scene.ID, scene.Sequence, scene.Name, scene.Volume,
		scene.Playlist.ID, scene.Playlist.Name, scene.Playlist.URI, scene.Playlist.ImageURL,
		scene.Device.ID, scene.Device.Name, scene.Device.Type,
		scene.CreatedAt, scene.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scene: %w", err)
	}

	return nil
}

// Get retrieves a scene by ID, excluding soft-deleted scenes
func (r *SceneRepository) Get(id string) (*models.Scene, error) {
	query := `
		SELECT ` + sceneColumns + `
		FROM scenes
		WHERE id = ? AND deleted_at IS NULL
	`

	scene, err := scanScene(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrSceneNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scene: %w", err)
	}

	return scene, nil
}

// GetByName retrieves a scene by its name, excluding soft-deleted scenes.
//
// Names are not unique; the oldest matching scene wins.
func (r *SceneRepository) GetByName(name string) (*models.Scene, error) {
	query := `
		SELECT ` + sceneColumns + `
		FROM scenes
		WHERE name = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
		LIMIT 1
	`

	scene, err := scanScene(r.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrSceneNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scene: %w", err)
	}

	return scene, nil
}

// Update modifies an existing scene in the database
func (r *SceneRepository) Update(scene *models.Scene) error {
	if err := scene.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	scene.UpdatedAt = now

	query := `
		UPDATE scenes
		SET name = ?, volume = ?,
			playlist_id = ?, playlist_name = ?, playlist_uri = ?, playlist_image_url = ?,
			device_id = ?, device_name = ?, device_type = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		scene.Name, scene.Volume,
		scene.Playlist.ID, scene.Playlist.Name, scene.Playlist.URI, scene.Playlist.ImageURL,
		scene.Device.ID, scene.Device.Name, scene.Device.Type,
		now, scene.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update scene: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSceneNotFound, scene.ID)
	}

	return nil
}

// Delete soft-deletes a scene by ID
func (r *SceneRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE scenes
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete scene: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSceneNotFound, id)
	}

	return nil
}

// List retrieves all scenes matching the given criteria, excluding soft-deleted scenes
func (r *SceneRepository) List(criteria map[string]any) ([]*models.Scene, error) {
	query := `
		SELECT ` + sceneColumns + `
		FROM scenes
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}
	if deviceID, ok := criteria["device_id"].(string); ok && deviceID != "" {
		query += " AND device_id = ?"
		args = append(args, deviceID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenes: %w", err)
	}
	defer rows.Close()

	var scenes []*models.Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scene: %w", err)
		}
		scenes = append(scenes, scene)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return scenes, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanScene(row scanner) (*models.Scene, error) {
	var (
		scene     models.Scene
		imageURL  sql.NullString
		deletedAt sql.NullTime
	)

	err := row.Scan(
		&scene.ID, &scene.Sequence, &scene.Name, &scene.Volume,
		&scene.Playlist.ID, &scene.Playlist.Name, &scene.Playlist.URI, &imageURL,
		&scene.Device.ID, &scene.Device.Name, &scene.Device.Type,
		&scene.CreatedAt, &scene.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if imageURL.Valid {
		scene.Playlist.ImageURL = imageURL.String
	}
	if deletedAt.Valid {
		scene.DeletedAt = &deletedAt.Time
	}

	return &scene, nil
}
