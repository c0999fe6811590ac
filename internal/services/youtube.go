// YouTube Data API v3 implementation of [Catalog]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	youtubePageSize  = 50
	youtubeMaxSearch = 50
)

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration parses the ISO-8601 durations YouTube reports ("PT4M55S", "P1DT2H").
func ParseISODuration(s string) (time.Duration, error) {
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("%w: duration %q", shared.ErrInvalidInput, s)
	}

	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("%w: duration %q", shared.ErrInvalidInput, s)
		}
		d += time.Duration(n) * unit
	}
	return d, nil
}

// YouTubeService implements [OAuthService] on top of the YouTube Data API client.
type YouTubeService struct {
	config *oauth2.Config
	svc    *youtube.Service
}

// NewYouTubeOAuthConfig builds the OAuth2 configuration for the Google endpoint with the YouTube scope.
func NewYouTubeOAuthConfig(creds shared.OAuthConfig) (*oauth2.Config, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: youtube client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: youtube client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{youtube.YoutubeScope},
		Endpoint:     google.Endpoint,
	}, nil
}

// NewYouTubeService creates an unauthenticated service; call Authenticate before use.
func NewYouTubeService(creds shared.OAuthConfig) (*YouTubeService, error) {
	config, err := NewYouTubeOAuthConfig(creds)
	if err != nil {
		return nil, err
	}
	return &YouTubeService{config: config}, nil
}

// NewYouTubeServiceWithClient creates a service that sends requests through client to endpoint
// (e.g. an httptest server URL). Authentication is left to the client.
func NewYouTubeServiceWithClient(ctx context.Context, client *http.Client, endpoint string) (*YouTubeService, error) {
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: youtube client: %v", shared.ErrServiceUnavailable, err)
	}
	return &YouTubeService{config: &oauth2.Config{}, svc: svc}, nil
}

func (y *YouTubeService) Name() string {
	return "YouTube"
}

// AuthCodeURL returns the Google consent URL. The "consent" prompt makes Google issue a refresh token.
func (y *YouTubeService) AuthCodeURL(state string) string {
	return y.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token.
func (y *YouTubeService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := y.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return tok, nil
}

// Authenticate builds the API client around tok.
func (y *YouTubeService) Authenticate(ctx context.Context, tok *oauth2.Token, tokenPath string) error {
	client, err := oauthClient(ctx, y.config, tok, tokenPath)
	if err != nil {
		return err
	}
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("%w: youtube client: %v", shared.ErrServiceUnavailable, err)
	}
	y.svc = svc
	return nil
}

func (y *YouTubeService) ready() error {
	if y.svc == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return nil
}

// Whoami returns the title of the signed-in user's channel.
func (y *YouTubeService) Whoami(ctx context.Context) (string, error) {
	if err := y.ready(); err != nil {
		return "", err
	}
	resp, err := y.svc.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return "", apiError(err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", fmt.Errorf("%w: no channel for this account", shared.ErrAPIRequest)
	}
	return resp.Items[0].Snippet.Title, nil
}

// Items lists every video of a playlist in playlist order and enriches them with video details.
// Deleted and private videos, which videos.list no longer returns, are skipped.
func (y *YouTubeService) Items(ctx context.Context, playlistID string) ([]models.Item, error) {
	if err := y.ready(); err != nil {
		return nil, err
	}

	var ids []string
	addedAt := make(map[string]time.Time)
	pageToken := ""
	for {
		call := y.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(youtubePageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, apiError(err)
		}

		for _, pi := range resp.Items {
			if pi.ContentDetails == nil || pi.ContentDetails.VideoId == "" {
				continue
			}
			id := pi.ContentDetails.VideoId
			ids = append(ids, id)
			if pi.Snippet != nil {
				if t, err := time.Parse(time.RFC3339, pi.Snippet.PublishedAt); err == nil {
					addedAt[id] = t
				}
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	videos, err := y.videos(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		item, ok := videos[id]
		if !ok {
			continue
		}
		item.AddedAt = addedAt[id]
		items = append(items, item)
	}
	return items, nil
}

// Search runs search.list for videos and resolves the hits with videos.list, keeping search order.
func (y *YouTubeService) Search(ctx context.Context, query string, limit int) ([]models.Item, error) {
	if err := y.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > youtubeMaxSearch {
		limit = youtubeMaxSearch
	}

	resp, err := y.svc.Search.List([]string{"id"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, apiError(err)
	}

	var ids []string
	for _, r := range resp.Items {
		if r.Id != nil && r.Id.VideoId != "" {
			ids = append(ids, r.Id.VideoId)
		}
	}

	videos, err := y.videos(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := videos[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// Insert appends a video to the end of a playlist.
func (y *YouTubeService) Insert(ctx context.Context, playlistID, itemID string) error {
	if err := y.ready(); err != nil {
		return err
	}

	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: itemID,
			},
		},
	}
	if _, err := y.svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return apiError(err)
	}
	return nil
}

// videos fetches details for ids in batches of fifty.
func (y *YouTubeService) videos(ctx context.Context, ids []string) (map[string]models.Item, error) {
	out := make(map[string]models.Item, len(ids))
	for start := 0; start < len(ids); start += youtubePageSize {
		batch := ids[start:min(start+youtubePageSize, len(ids))]
		resp, err := y.svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
			Id(batch...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, apiError(err)
		}
		for _, v := range resp.Items {
			out[v.Id] = videoItem(v)
		}
	}
	return out, nil
}

func videoItem(v *youtube.Video) models.Item {
	item := models.Item{ID: v.Id}
	if v.Snippet != nil {
		item.Title = v.Snippet.Title
		item.Channel = v.Snippet.ChannelTitle
		item.CategoryID = v.Snippet.CategoryId
		item.Description = v.Snippet.Description
		if t, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt); err == nil {
			item.PublishedAt = t
		}
	}
	if v.ContentDetails != nil {
		if d, err := ParseISODuration(v.ContentDetails.Duration); err == nil {
			item.DurationMs = d.Milliseconds()
		}
	}
	if v.Statistics != nil {
		item.ViewCount = int64(v.Statistics.ViewCount)
	}
	return item
}

// apiError maps a [googleapi.Error] to the shared sentinels.
func apiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusForbidden && quotaError(gerr) {
			return fmt.Errorf("%w: youtube: %s", shared.ErrServiceUnavailable, gerr.Message)
		}
		return statusError("youtube", gerr.Code, gerr.Message)
	}
	return fmt.Errorf("%w: youtube: %v", shared.ErrAPIRequest, err)
}

// quotaError reports whether a 403 carries a quota or rate limit reason.
func quotaError(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "quotaExceeded", "rateLimitExceeded", "dailyLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}
