package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/kmdeck/sceneset/internal/models"
)

var _ list.Item = sceneItem{}

// sceneItem wraps [models.Scene] to implement [list.Item].
type sceneItem struct {
	scene *models.Scene
}

func (i sceneItem) FilterValue() string { return i.scene.Name }
func (i sceneItem) Title() string       { return i.scene.Name }
func (i sceneItem) Description() string {
	return fmt.Sprintf("%s → %s • vol %d", i.scene.Playlist.Name, i.scene.Device.Name, i.scene.Volume)
}
