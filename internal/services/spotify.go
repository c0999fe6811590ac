// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
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
	"time"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyPageSize    = 100
	spotifyMaxSearch   = 50
	defaultRedirectURI = "http://127.0.0.1:3000/callback"
)

var spotifyScopes = []string{
	"user-read-private",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int64           `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
	IsLocal    bool            `json:"is_local"`
	Type       string          `json:"type"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is nil for removed items.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPlaylistTracks is one page of playlist items.
type SpotifyPlaylistTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifySearchResponse wraps the track page of a search.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyService implements [OAuthService] for the Spotify Web API.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyOAuthConfig builds the OAuth2 configuration for Spotify.
func NewSpotifyOAuthConfig(creds shared.OAuthConfig) (*oauth2.Config, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}, nil
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(creds shared.OAuthConfig) (*SpotifyService, error) {
	config, err := NewSpotifyOAuthConfig(creds)
	if err != nil {
		return nil, err
	}
	return &SpotifyService{config: config, baseURL: spotifyBaseURL}, nil
}

// NewSpotifyServiceWithClient creates a service that sends every request through client to
// baseURL. Authentication is left to the client.
func NewSpotifyServiceWithClient(client *http.Client, baseURL string) *SpotifyService {
	return &SpotifyService{config: &oauth2.Config{}, httpClient: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthCodeURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return tok, nil
}

// Authenticate installs tok; the [oauth2] client refreshes it automatically.
func (s *SpotifyService) Authenticate(ctx context.Context, tok *oauth2.Token, tokenPath string) error {
	client, err := oauthClient(ctx, s.config, tok, tokenPath)
	if err != nil {
		return err
	}
	s.httpClient = client
	return nil
}

// doRequest performs an authenticated request. endpoint is either a path below the base URL or
// an absolute URL (pagination links).
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.baseURL + endpoint
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr spotifyError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return statusError("spotify", resp.StatusCode, apiErr.Error.Message)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Whoami returns the display name (or ID) of the signed-in user.
func (s *SpotifyService) Whoami(ctx context.Context) (string, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	if user.DisplayName != "" {
		return user.DisplayName, nil
	}
	return user.ID, nil
}

// Items retrieves every track of a playlist, following the next links. Local files, episodes and
// removed tracks have no catalog ID and are skipped.
func (s *SpotifyService) Items(ctx context.Context, playlistID string) ([]models.Item, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d", url.PathEscape(playlistID), spotifyPageSize)

	var items []models.Item
	for endpoint != "" {
		var page SpotifyPlaylistTracks
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, pt := range page.Items {
			if pt.Track == nil || pt.Track.ID == "" || pt.Track.IsLocal {
				continue
			}
			if pt.Track.Type != "" && pt.Track.Type != "track" {
				continue
			}
			item := trackItem(*pt.Track)
			if t, err := time.Parse(time.RFC3339, pt.AddedAt); err == nil {
				item.AddedAt = t
			}
			items = append(items, item)
		}

		endpoint = ""
		if page.Next != nil {
			endpoint = *page.Next
		}
	}
	return items, nil
}

// Search queries the track catalog.
func (s *SpotifyService) Search(ctx context.Context, query string, limit int) ([]models.Item, error) {
	if limit <= 0 || limit > spotifyMaxSearch {
		limit = spotifyMaxSearch
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", fmt.Sprint(limit))

	var response SpotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(response.Tracks.Items))
	for _, t := range response.Tracks.Items {
		if t.ID == "" {
			continue
		}
		items = append(items, trackItem(t))
	}
	return items, nil
}

// Insert appends a track to the end of a playlist.
func (s *SpotifyService) Insert(ctx context.Context, playlistID, itemID string) error {
	body := map[string][]string{"uris": {"spotify:track:" + itemID}}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

func trackItem(t SpotifyTrack) models.Item {
	item := models.Item{
		ID:         t.ID,
		Title:      t.Name,
		DurationMs: t.DurationMS,
		Popularity: t.Popularity,
	}
	if len(t.Artists) > 0 {
		item.Artist = t.Artists[0].Name
	}
	return item
}
