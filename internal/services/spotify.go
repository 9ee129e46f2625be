// Spotify Web API client
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/kmdeck/sceneset/internal/models"
	"github.com/kmdeck/sceneset/internal/shared"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// defaultPageSize is the playlist page size requested from the API.
const defaultPageSize = 50

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	URI    string         `json:"uri"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// SpotifyDevice represents a playback device.
type SpotifyDevice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

// spotifyError is the error envelope on non-success resource responses.
type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client issues authenticated requests against the Spotify Web API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ClientOpts contains configuration options for creating a Client.
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *log.Logger
}

// NewClient creates a Spotify API client. Tokens is required.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Tokens == nil {
		return nil, fmt.Errorf("%w: token source is required", shared.ErrInvalidArgument)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		tokens:     opts.Tokens,
		// Spotify's documented guidance is a rolling 30-second window;
		// 10 req/s with a small burst stays well inside it.
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		logger:  opts.Logger,
	}, nil
}

// FetchWithAuth performs an authenticated request against the API.
//
// Fails fast with [shared.ErrNotAuthenticated] when no token is available.
// A 401 is mapped to [shared.ErrTokenExpired] rather than retried: the token
// source guarantees at least five minutes of validity, so a 401 here means
// server-side revocation and the session must be re-established.
func (c *Client) FetchWithAuth(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	token, err := c.tokens.ValidAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request cancelled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: please log in again", shared.ErrTokenExpired)
	}

	return resp, nil
}

// UserPlaylists retrieves all of the current user's playlists, following
// pagination until no next page remains.
//
// Items are accumulated in provider order and never deduplicated.
func (c *Client) UserPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	endpoint := fmt.Sprintf("/me/playlists?limit=%d", defaultPageSize)

	for endpoint != "" {
		page, err := c.playlistPage(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			playlist := models.Playlist{
				ID:   item.ID,
				Name: item.Name,
				URI:  item.URI,
			}
			if len(item.Images) > 0 {
				playlist.ImageURL = item.Images[0].URL
			}
			playlists = append(playlists, playlist)
		}

		if page.Next == nil {
			break
		}

		endpoint, err = nextEndpoint(*page.Next)
		if err != nil {
			return nil, err
		}
	}

	return playlists, nil
}

func (c *Client) playlistPage(ctx context.Context, endpoint string) (*SpotifyPaginatedPlaylists, error) {
	resp, err := c.FetchWithAuth(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: playlists returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var page SpotifyPaginatedPlaylists
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode playlists: %w", err)
	}

	return &page, nil
}

// nextEndpoint converts the provider's absolute next-page URL into a path
// relative to the client's base URL by dropping the version prefix segment.
func nextEndpoint(next string) (string, error) {
	u, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("invalid pagination url %q: %w", next, err)
	}

	endpoint := strings.TrimPrefix(u.Path, "/v1")
	if u.RawQuery != "" {
		endpoint += "?" + u.RawQuery
	}

	return endpoint, nil
}

// AvailableDevices retrieves the user's playback devices.
func (c *Client) AvailableDevices(ctx context.Context) ([]models.Device, error) {
	resp, err := c.FetchWithAuth(ctx, http.MethodGet, "/me/player/devices", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: devices returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload struct {
		Devices []SpotifyDevice `json:"devices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}

	devices := make([]models.Device, 0, len(payload.Devices))
	for _, d := range payload.Devices {
		devices = append(devices, models.Device{
			ID:       d.ID,
			Name:     d.Name,
			Type:     d.Type,
			IsActive: d.IsActive,
		})
	}

	return devices, nil
}

// StartPlayback starts playback of a context (playlist, album) on a device.
//
// By contract this never returns a Go error: every failure, including
// transport errors, is reported through the result. Status codes map to
// user-facing outcomes: 204 success, 404 unreachable device, 403 restricted
// playback with the provider's message when present.
func (c *Client) StartPlayback(ctx context.Context, contextURI, deviceID string) models.PlaybackResult {
	payload, err := json.Marshal(map[string]string{"context_uri": contextURI})
	if err != nil {
		return models.PlaybackResult{Success: false, Error: err.Error()}
	}

	endpoint := "/me/player/play?device_id=" + url.QueryEscape(deviceID)
	resp, err := c.FetchWithAuth(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.PlaybackResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return models.PlaybackResult{Success: true}
	case http.StatusNotFound:
		return models.PlaybackResult{Success: false, Error: "Device not found or offline"}
	case http.StatusForbidden:
		return models.PlaybackResult{
			Success: false,
			Error:   providerMessage(resp.Body, "Playback restricted - Premium required"),
		}
	default:
		return models.PlaybackResult{
			Success: false,
			Error:   providerMessage(resp.Body, "Playback failed"),
		}
	}
}

// SetVolume sets the playback volume (0-100) on a device.
//
// Shares StartPlayback's contract: failures are reported in the result,
// never as a Go error.
func (c *Client) SetVolume(ctx context.Context, deviceID string, volume int) models.PlaybackResult {
	if volume < 0 || volume > 100 {
		return models.PlaybackResult{Success: false, Error: fmt.Sprintf("volume out of range: %d", volume)}
	}

	endpoint := fmt.Sprintf("/me/player/volume?volume_percent=%d&device_id=%s", volume, url.QueryEscape(deviceID))
	resp, err := c.FetchWithAuth(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return models.PlaybackResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return models.PlaybackResult{Success: true}
	}

	return models.PlaybackResult{
		Success: false,
		Error:   providerMessage(resp.Body, "Failed to set volume"),
	}
}

// providerMessage extracts the provider's error message from a response
// body, falling back when the body is empty or malformed.
func providerMessage(body io.Reader, fallback string) string {
	var payload spotifyError
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return fallback
}
