package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kmdeck/sceneset/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL    = "https://accounts.spotify.com/authorize"
	spotifyTokenURL   = "https://accounts.spotify.com/api/token"
	spotifyAPIBaseURL = "https://api.spotify.com/v1"
)

// Storage keys for persisted auth state.
const (
	KeyTokens   = "spotify_tokens"
	KeyUser     = "spotify_user"
	KeyVerifier = "pkce_code_verifier"
)

// refreshWindow is the safety margin before expiry within which the access
// token is refreshed rather than handed out.
const refreshWindow = 5 * time.Minute

// Scopes requested at authorization time.
var Scopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-private",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// TokenSet holds the credentials obtained from the token endpoint.
//
// ExpiresAt is the absolute instant past which AccessToken must not be used
// without a refresh attempt.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// UserProfile is the subset of the Spotify profile kept locally.
// ImageURL is empty when the account has no avatar image.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ProviderError is a non-success response from the token endpoint.
type ProviderError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("token endpoint returned status %d", e.StatusCode)
}

// Options configures a [Service].
type Options struct {
	ClientID    string
	RedirectURI string
	Durable     Store
	Session     Store
	HTTPClient  *http.Client
	Logger      *log.Logger

	// Endpoint overrides for tests; production values are the Spotify defaults.
	AuthURL    string
	TokenURL   string
	APIBaseURL string

	// Now overrides the clock for tests.
	Now func() time.Time
}

// Service orchestrates the PKCE login flow and owns all auth state: the
// token set, the user profile, and the transient loading/error flags.
//
// All state access is serialized behind a mutex; callers racing toward an
// expiring token trigger exactly one refresh.
type Service struct {
	conf       *oauth2.Config
	httpClient *http.Client
	durable    Store
	session    Store
	logger     *log.Logger
	tokenURL   string
	apiBaseURL string
	now        func() time.Time

	mu      sync.Mutex
	tokens  *TokenSet
	user    *UserProfile
	loading bool
	lastErr string
}

// NewService creates a Service and restores any persisted token set and user
// profile from the durable store. A missing client id is a configuration
// error and fails construction.
func NewService(opts Options) (*Service, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id is required", shared.ErrMissingCredentials)
	}
	if opts.Durable == nil || opts.Session == nil {
		return nil, fmt.Errorf("%w: auth stores are required", shared.ErrInvalidConfig)
	}

	if opts.RedirectURI == "" {
		opts.RedirectURI = "http://127.0.0.1:8080/callback"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = spotifyAPIBaseURL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Service{
		conf: &oauth2.Config{
			ClientID:    opts.ClientID,
			RedirectURL: opts.RedirectURI,
			Scopes:      Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  opts.AuthURL,
				TokenURL: opts.TokenURL,
			},
		},
		httpClient: opts.HTTPClient,
		durable:    opts.Durable,
		session:    opts.Session,
		logger:     opts.Logger,
		tokenURL:   opts.TokenURL,
		apiBaseURL: opts.APIBaseURL,
		now:        opts.Now,
	}

	s.restore()

	return s, nil
}

// restore loads persisted auth state, treating corrupt records as absent.
func (s *Service) restore() {
	var tokens TokenSet
	found, err := loadRecord(s.durable, KeyTokens, &tokens)
	if err != nil {
		s.logger.Warnf("discarding stored tokens: %v", err)
	} else if found {
		s.tokens = &tokens
	}

	var user UserProfile
	found, err = loadRecord(s.durable, KeyUser, &user)
	if err != nil {
		s.logger.Warnf("discarding stored user profile: %v", err)
	} else if found {
		s.user = &user
	}
}

// BeginLogin generates a PKCE verifier, stores it in the session scope, and
// returns the authorization URL the user must visit. The raw verifier never
// appears in the URL; only its S256 challenge does.
func (s *Service) BeginLogin() (string, error) {
	verifier, err := GenerateVerifier(DefaultVerifierLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate verifier: %w", err)
	}

	if err := s.session.Save(KeyVerifier, []byte(verifier)); err != nil {
		return "", fmt.Errorf("failed to store verifier: %w", err)
	}

	challenge := ChallengeFromVerifier(verifier)
	authURL := s.conf.AuthCodeURL("",
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", challenge),
	)

	return authURL, nil
}

// HandleCallback exchanges the authorization code for a token set.
//
// Returns true iff the token exchange succeeded. Failures never escape as
// errors: the human-readable cause is available via Err. The profile fetch
// after a successful exchange is best-effort and cannot fail the callback.
func (s *Service) HandleCallback(ctx context.Context, code string) bool {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()

	// Loading must reset on every exit path.
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	verifier, err := s.session.Load(KeyVerifier)
	if err != nil {
		s.setErr(fmt.Sprintf("%v - please try logging in again", shared.ErrMissingVerifier))
		return false
	}

	resp, err := s.tokenRequest(ctx, url.Values{
		"client_id":     {s.conf.ClientID},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {s.conf.RedirectURL},
		"code_verifier": {string(verifier)},
	})
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && perr.Description != "" {
			s.setErr(perr.Description)
		} else {
			s.setErr("failed to exchange code for tokens")
		}
		s.logger.Warnf("token exchange failed: %v", err)
		return false
	}

	s.mu.Lock()
	s.saveTokensLocked(&TokenSet{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    s.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	})
	s.mu.Unlock()

	if err := s.session.Clear(KeyVerifier); err != nil {
		s.logger.Warnf("failed to clear verifier: %v", err)
	}

	if err := s.fetchProfile(ctx); err != nil {
		s.logger.Warnf("failed to fetch user profile: %v", err)
	}

	return true
}

// Refresh exchanges the refresh token for a new token set.
//
// Returns false without side effects when no refresh token is held. Any
// rejection or transport failure is treated as an unrecoverable session
// failure and clears all auth state: an invalid refresh token cannot
// self-heal, and retaining it would only hide the forced logout.
func (s *Service) Refresh(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Service) refreshLocked(ctx context.Context) bool {
	if s.tokens == nil || s.tokens.RefreshToken == "" {
		return false
	}

	resp, err := s.tokenRequest(ctx, url.Values{
		"client_id":     {s.conf.ClientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.tokens.RefreshToken},
	})
	if err != nil {
		s.logger.Warnf("token refresh failed, clearing session: %v", err)
		s.clearAuthLocked()
		return false
	}

	// Providers may rotate the refresh token or omit it; keep the old one
	// when no replacement arrives.
	refreshToken := resp.RefreshToken
	if refreshToken == "" {
		refreshToken = s.tokens.RefreshToken
	}

	s.saveTokensLocked(&TokenSet{
		AccessToken:  resp.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    s.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	})

	return true
}

// ValidAccessToken returns an access token guaranteed to remain valid for at
// least the refresh window, refreshing proactively when needed.
//
// Returns [shared.ErrNotAuthenticated] when no token set is held and
// [shared.ErrSessionExpired] when a required refresh fails (auth state has
// been cleared by then).
func (s *Service) ValidAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		return "", shared.ErrNotAuthenticated
	}

	if s.tokens.ExpiresAt.Sub(s.now()) < refreshWindow {
		if !s.refreshLocked(ctx) {
			return "", shared.ErrSessionExpired
		}
	}

	return s.tokens.AccessToken, nil
}

// ClearAuth drops the token set and user profile from memory and durable
// storage (full logout).
func (s *Service) ClearAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearAuthLocked()
}

func (s *Service) clearAuthLocked() {
	s.tokens = nil
	s.user = nil

	if err := s.durable.Clear(KeyTokens); err != nil {
		s.logger.Warnf("failed to clear stored tokens: %v", err)
	}
	if err := s.durable.Clear(KeyUser); err != nil {
		s.logger.Warnf("failed to clear stored user profile: %v", err)
	}
}

// Authenticated reports whether a token set is held.
func (s *Service) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens != nil
}

// Loading reports whether a callback exchange is in flight.
func (s *Service) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last user-facing auth error, or empty.
func (s *Service) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// User returns a copy of the stored user profile, or nil.
func (s *Service) User() *UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// Tokens returns a copy of the current token set, or nil.
func (s *Service) Tokens() *TokenSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		return nil
	}
	tokens := *s.tokens
	return &tokens
}

func (s *Service) setErr(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = msg
}

// saveTokensLocked replaces the in-memory token set and persists it.
// Persistence failures are logged; the in-memory set stays authoritative
// for the rest of the run.
func (s *Service) saveTokensLocked(tokens *TokenSet) {
	s.tokens = tokens
	if err := saveRecord(s.durable, KeyTokens, tokens); err != nil {
		s.logger.Warnf("failed to persist tokens: %v", err)
	}
}

// tokenResponse is the token endpoint's success payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// tokenRequest POSTs a form-encoded grant to the token endpoint.
//
// Non-2xx responses become a [ProviderError] carrying the provider's
// error/error_description fields when present.
func (s *Service) tokenRequest(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := &ProviderError{StatusCode: resp.StatusCode}
		var payload struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			perr.Code = payload.Error
			perr.Description = payload.ErrorDescription
		}
		return nil, perr
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &tok, nil
}

// fetchProfile retrieves /me and stores the mapped profile.
//
// Best-effort by design: authentication has already succeeded by the time
// this runs, so failures are returned for logging and nothing else.
func (s *Service) fetchProfile(ctx context.Context) error {
	token, err := s.ValidAccessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBaseURL+"/me", nil)
	if err != nil {
		return fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: profile fetch returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		Images      []struct {
			URL string `json:"url"`
		} `json:"images"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode profile: %w", err)
	}

	user := &UserProfile{
		ID:          payload.ID,
		DisplayName: payload.DisplayName,
	}
	if user.DisplayName == "" {
		user.DisplayName = payload.ID
	}
	if len(payload.Images) > 0 {
		user.ImageURL = payload.Images[0].URL
	}

	s.mu.Lock()
	s.user = user
	if err := saveRecord(s.durable, KeyUser, user); err != nil {
		s.logger.Warnf("failed to persist user profile: %v", err)
	}
	s.mu.Unlock()

	return nil
}
