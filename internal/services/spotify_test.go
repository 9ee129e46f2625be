package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/kmdeck/sceneset/internal/shared"
	th "github.com/kmdeck/sceneset/internal/testing"
)

// staticTokens is a TokenSource backed by a fixed token or error.
type staticTokens struct {
	token string
	err   error
}

func (s *staticTokens) ValidAccessToken(ctx context.Context) (string, error) {
	return s.token, s.err
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientOpts{
		BaseURL: srv.URL,
		Tokens:  &staticTokens{token: "test_token"},
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	return client, srv
}

func TestNewClient(t *testing.T) {
	t.Run("requires a token source", func(t *testing.T) {
		_, err := NewClient(ClientOpts{})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestFetchWithAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("fails fast without a token", func(t *testing.T) {
		client, err := NewClient(ClientOpts{
			Tokens: &staticTokens{err: shared.ErrNotAuthenticated},
		})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = client.FetchWithAuth(ctx, http.MethodGet, "/me", nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("attaches bearer token", func(t *testing.T) {
		var gotAuth string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))

		resp, err := client.FetchWithAuth(ctx, http.MethodGet, "/me", nil)
		if err != nil {
			t.Fatalf("FetchWithAuth failed: %v", err)
		}
		resp.Body.Close()

		if gotAuth != "Bearer test_token" {
			t.Errorf("expected bearer token header, got %q", gotAuth)
		}
	})

	t.Run("maps 401 to expired session without retrying", func(t *testing.T) {
		requests := 0
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.FetchWithAuth(ctx, http.MethodGet, "/me", nil)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
		if requests != 1 {
			t.Errorf("expected exactly one request, got %d", requests)
		}
	})
}

func TestUserPlaylists(t *testing.T) {
	ctx := context.Background()

	t.Run("follows pagination in order", func(t *testing.T) {
		pageSizes := []int{50, 50, 12}
		total := 112

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/playlists" {
				http.NotFound(w, r)
				return
			}

			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			pageIndex := offset / 50
			size := pageSizes[pageIndex]

			page := SpotifyPaginatedPlaylists{
				Total:  total,
				Limit:  50,
				Offset: offset,
			}
			for i := 0; i < size; i++ {
				n := offset + i
				page.Items = append(page.Items, SpotifySimplePlaylist{
					ID:   fmt.Sprintf("pl_%03d", n),
					Name: fmt.Sprintf("Playlist %d", n),
					URI:  fmt.Sprintf("spotify:playlist:pl_%03d", n),
				})
			}
			if offset+size < total {
				// Absolute provider URL with the version prefix, as the live
				// API returns it.
				next := fmt.Sprintf("https://api.spotify.com/v1/me/playlists?offset=%d&limit=50", offset+size)
				page.Next = &next
			}

			json.NewEncoder(w).Encode(page)
		})

		client, _ := newTestClient(t, handler)

		playlists, err := client.UserPlaylists(ctx)
		if err != nil {
			t.Fatalf("UserPlaylists failed: %v", err)
		}

		if len(playlists) != total {
			t.Fatalf("expected %d playlists, got %d", total, len(playlists))
		}
		for i, p := range playlists {
			if want := fmt.Sprintf("pl_%03d", i); p.ID != want {
				t.Fatalf("playlist %d out of order: expected %s, got %s", i, want, p.ID)
			}
		}
	})

	t.Run("maps first image URL", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(SpotifyPaginatedPlaylists{
				Items: []SpotifySimplePlaylist{
					{
						ID:   "pl_1",
						Name: "With Image",
						URI:  "spotify:playlist:pl_1",
						Images: []SpotifyImage{
							{URL: "https://img.example/large.jpg", Height: 640, Width: 640},
							{URL: "https://img.example/small.jpg", Height: 64, Width: 64},
						},
					},
					{ID: "pl_2", Name: "No Image", URI: "spotify:playlist:pl_2"},
				},
			})
		})

		client, _ := newTestClient(t, handler)

		playlists, err := client.UserPlaylists(ctx)
		if err != nil {
			t.Fatalf("UserPlaylists failed: %v", err)
		}

		if playlists[0].ImageURL != "https://img.example/large.jpg" {
			t.Errorf("expected first image URL, got %q", playlists[0].ImageURL)
		}
		if playlists[1].ImageURL != "" {
			t.Errorf("expected empty image URL, got %q", playlists[1].ImageURL)
		}
	})

	t.Run("surfaces non-success status", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.UserPlaylists(ctx)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestNextEndpoint(t *testing.T) {
	cases := []struct {
		name string
		next string
		want string
	}{
		{
			name: "strips version prefix and keeps query",
			next: "https://api.spotify.com/v1/me/playlists?offset=50&limit=50",
			want: "/me/playlists?offset=50&limit=50",
		},
		{
			name: "no query",
			next: "https://api.spotify.com/v1/me/playlists",
			want: "/me/playlists",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := nextEndpoint(tc.next)
			if err != nil {
				t.Fatalf("nextEndpoint failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAvailableDevices(t *testing.T) {
	ctx := context.Background()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/player/devices" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"devices":[
			{"id":"dev_1","name":"Office Speaker","type":"Speaker","is_active":true},
			{"id":"dev_2","name":"Laptop","type":"Computer","is_active":false}
		]}`)
	}))

	devices, err := client.AvailableDevices(ctx)
	if err != nil {
		t.Fatalf("AvailableDevices failed: %v", err)
	}

	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[0].ID != "dev_1" || !devices[0].IsActive {
		t.Errorf("unexpected first device %+v", devices[0])
	}
	if devices[1].Type != "Computer" || devices[1].IsActive {
		t.Errorf("unexpected second device %+v", devices[1])
	}
}

func TestStartPlayback(t *testing.T) {
	ctx := context.Background()

	playbackClient := func(t *testing.T, status int, body string) *Client {
		t.Helper()
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("expected PUT, got %s", r.Method)
			}
			w.WriteHeader(status)
			fmt.Fprint(w, body)
		}))
		return client
	}

	t.Run("204 succeeds", func(t *testing.T) {
		client := playbackClient(t, http.StatusNoContent, "")

		result := client.StartPlayback(ctx, "spotify:playlist:pl_1", "dev_1")
		if !result.Success {
			t.Errorf("expected success, got error %q", result.Error)
		}
	})

	t.Run("404 reports unreachable device", func(t *testing.T) {
		client := playbackClient(t, http.StatusNotFound, `{"error":{"status":404,"message":"Device not found"}}`)

		result := client.StartPlayback(ctx, "spotify:playlist:pl_1", "dev_gone")
		if result.Success {
			t.Fatal("expected failure")
		}
		if result.Error != "Device not found or offline" {
			t.Errorf("expected device message, got %q", result.Error)
		}
	})

	t.Run("403 surfaces provider message", func(t *testing.T) {
		client := playbackClient(t, http.StatusForbidden, `{"error":{"status":403,"message":"Player command failed: Restriction violated"}}`)

		result := client.StartPlayback(ctx, "spotify:playlist:pl_1", "dev_1")
		if result.Success {
			t.Fatal("expected failure")
		}
		if result.Error != "Player command failed: Restriction violated" {
			t.Errorf("expected provider message, got %q", result.Error)
		}
	})

	t.Run("403 without message reports premium restriction", func(t *testing.T) {
		client := playbackClient(t, http.StatusForbidden, "")

		result := client.StartPlayback(ctx, "spotify:playlist:pl_1", "dev_1")
		if result.Success {
			t.Fatal("expected failure")
		}
		if result.Error != "Playback restricted - Premium required" {
			t.Errorf("expected premium message, got %q", result.Error)
		}
	})

	t.Run("other statuses fall back to generic failure", func(t *testing.T) {
		client := playbackClient(t, http.StatusBadGateway, "")

		result := client.StartPlayback(ctx, "spotify:playlist:pl_1", "dev_1")
		if result.Success {
			t.Fatal("expected failure")
		}
		if result.Error != "Playback failed" {
			t.Errorf("expected generic message, got %q", result.Error)
		}
	})

	t.Run("transport failure is reported in the result", func(t *testing.T) {
		client, err := NewClient(ClientOpts{
			HTTPClient: &http.Client{
				Transport: th.NewMockRoundTripper(nil, errors.New("connection refused")),
			},
			Tokens: &staticTokens{token: "test_token"},
		})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		result := client.StartPlayback(ctx, "spotify:playlist:pl_1", "dev_1")
		if result.Success {
			t.Fatal("expected failure against a dead endpoint")
		}
		if result.Error == "" {
			t.Error("expected transport error to be reported")
		}
	})

	t.Run("missing token is reported in the result", func(t *testing.T) {
		client, err := NewClient(ClientOpts{
			Tokens: &staticTokens{err: shared.ErrNotAuthenticated},
		})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		result := client.StartPlayback(ctx, "spotify:playlist:pl_1", "dev_1")
		if result.Success {
			t.Fatal("expected failure without authentication")
		}
	})
}

func TestSetVolume(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects out of range volume", func(t *testing.T) {
		client, err := NewClient(ClientOpts{Tokens: &staticTokens{token: "t"}})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		for _, v := range []int{-1, 101} {
			result := client.SetVolume(ctx, "dev_1", v)
			if result.Success {
				t.Errorf("expected failure for volume %d", v)
			}
		}
	})

	t.Run("204 succeeds", func(t *testing.T) {
		var gotQuery string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.WriteHeader(http.StatusNoContent)
		}))

		result := client.SetVolume(ctx, "dev_1", 42)
		if !result.Success {
			t.Fatalf("expected success, got %q", result.Error)
		}
		if gotQuery != "volume_percent=42&device_id=dev_1" {
			t.Errorf("unexpected query %q", gotQuery)
		}
	})

	t.Run("failure surfaces provider message", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"status":403,"message":"Cannot control device volume"}}`)
		}))

		result := client.SetVolume(ctx, "dev_1", 42)
		if result.Success {
			t.Fatal("expected failure")
		}
		if result.Error != "Cannot control device volume" {
			t.Errorf("expected provider message, got %q", result.Error)
		}
	})
}
