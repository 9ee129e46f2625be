package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Playlist represents a Spotify playlist as listed for scene building.
type Playlist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URI      string `json:"uri"`
	ImageURL string `json:"image_url,omitempty"`
}

// Device represents a Spotify playback device.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

// PlaybackResult is the outcome of a playback command.
//
// Playback operations report failures here instead of through Go errors:
// transport failures and provider rejections land in Error the same way.
type PlaybackResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ScenePlaylist is the playlist snapshot embedded in a scene.
type ScenePlaylist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URI      string `json:"uri"`
	ImageURL string `json:"image_url,omitempty"`
}

// SceneDevice is the device snapshot embedded in a scene.
type SceneDevice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Scene is a saved playlist + device + volume combination for one-command playback.
type Scene struct {
	ID        string        `json:"id"`
	Sequence  int           `json:"-"`
	Name      string        `json:"name"`
	Volume    int           `json:"volume"`
	Playlist  ScenePlaylist `json:"playlist"`
	Device    SceneDevice   `json:"device"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	DeletedAt *time.Time    `json:"-"`
}

// Validate checks scene invariants before persistence.
func (s *Scene) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scene name is required")
	}
	if s.Volume < 0 || s.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", s.Volume)
	}
	if s.Playlist.URI == "" {
		return fmt.Errorf("scene playlist uri is required")
	}
	if s.Device.ID == "" {
		return fmt.Errorf("scene device id is required")
	}
	return nil
}
