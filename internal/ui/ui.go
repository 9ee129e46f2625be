package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kmdeck/sceneset/internal/models"
)

// ScenePlayer starts playback for a scene. Implemented by [services.Client].
type ScenePlayer interface {
	StartPlayback(ctx context.Context, contextURI, deviceID string) models.PlaybackResult
	SetVolume(ctx context.Context, deviceID string, volume int) models.PlaybackResult
}

// SceneLister loads the saved scenes. Implemented by [repositories.SceneRepository].
type SceneLister interface {
	List(criteria map[string]any) ([]*models.Scene, error)
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SceneListView ViewState = iota
	ConfirmView
	PlayingView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	player    ScenePlayer
	scenes    SceneLister
	width     int
	height    int
	sceneList list.Model
	selected  *models.Scene
	result    models.PlaybackResult
	err       error
	help      help.Model
	keys      keyMap
}

type scenesLoadedMsg struct {
	scenes []*models.Scene
	err    error
}

type playbackDoneMsg struct {
	result models.PlaybackResult
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, player ScenePlayer, scenes SceneLister) *Model {
	return &Model{
		ctx:    ctx,
		view:   SceneListView,
		player: player,
		scenes: scenes,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by loading saved scenes.
func (m *Model) Init() tea.Cmd {
	return m.loadScenes()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.sceneList.Width() == 0 {
			m.sceneList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SceneListView:
			return m.handleSceneListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case scenesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.scenes))
		for i, scene := range msg.scenes {
			items[i] = sceneItem{scene: scene}
		}
		m.sceneList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.sceneList.Title = "Saved Scenes"
		m.sceneList.SetSize(m.width-4, m.height-8)
		return m, nil

	case playbackDoneMsg:
		m.result = msg.result
		m.view = ResultView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case SceneListView:
		return m.renderSceneList()
	case ConfirmView:
		return m.renderConfirm()
	case PlayingView:
		return styles.title.Render("Starting playback...")
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleSceneListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.sceneList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(sceneItem); ok {
				m.selected = item.scene
				m.view = ConfirmView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.sceneList, cmd = m.sceneList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = SceneListView
		return m, nil
	case "y", "enter":
		m.view = PlayingView
		return m, m.playScene()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r", "esc":
		m.view = SceneListView
		m.selected = nil
		m.result = models.PlaybackResult{}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == SceneListView {
		m.sceneList, cmd = m.sceneList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadScenes() tea.Cmd {
	return func() tea.Msg {
		scenes, err := m.scenes.List(nil)
		return scenesLoadedMsg{scenes: scenes, err: err}
	}
}

func (m *Model) playScene() tea.Cmd {
	scene := m.selected
	return func() tea.Msg {
		result := m.player.StartPlayback(m.ctx, scene.Playlist.URI, scene.Device.ID)
		if result.Success {
			// Volume is best-effort; a playing scene with the wrong volume
			// still counts as started.
			m.player.SetVolume(m.ctx, scene.Device.ID, scene.Volume)
		}
		return playbackDoneMsg{result: result}
	}
}

func (m *Model) renderSceneList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.sceneList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Play scene '%s'?", m.selected.Name))
	info := fmt.Sprintf(
		"\nPlaylist: %s\nDevice: %s (%s)\nVolume: %d\n",
		m.selected.Playlist.Name, m.selected.Device.Name, m.selected.Device.Type, m.selected.Volume,
	)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderResult() string {
	var status string
	if m.result.Success {
		status = styles.ok.Render(fmt.Sprintf("✓ Playing '%s'", m.selected.Name))
	} else {
		status = styles.err.Render(fmt.Sprintf("Playback failed: %s", m.result.Error))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s", status, helpView)
}
