package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Catalog is a music service holding ordered playlists of [models.Item].
type Catalog interface {
	// Name returns the name of the service (e.g., "Spotify", "YouTube")
	Name() string

	// Items returns every entry of a playlist in playlist order, following pagination.
	Items(ctx context.Context, playlistID string) ([]models.Item, error)

	// Search returns up to limit loosely ranked hits for a free-text query.
	Search(ctx context.Context, query string, limit int) ([]models.Item, error)

	// Insert appends a single item to the end of a playlist. It is not idempotent.
	Insert(ctx context.Context, playlistID, itemID string) error
}

// OAuthService is a [Catalog] that signs in through the OAuth2 authorization code flow.
type OAuthService interface {
	Catalog

	// AuthCodeURL returns the URL the user visits to grant access.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Authenticate installs a token. When tokenPath is set, refreshed tokens are written back to it.
	Authenticate(ctx context.Context, token *oauth2.Token, tokenPath string) error

	// Whoami returns a display name for the signed-in account.
	Whoami(ctx context.Context) (string, error)
}

// oauthClient builds an HTTP client from tok, persisting refreshed tokens when tokenPath is set.
func oauthClient(ctx context.Context, config *oauth2.Config, tok *oauth2.Token, tokenPath string) (*http.Client, error) {
	if tok == nil {
		return nil, shared.ErrNotAuthenticated
	}
	src := config.TokenSource(ctx, tok)
	if tokenPath != "" {
		src = shared.PersistingTokenSource(src, tokenPath, tok)
	}
	return oauth2.NewClient(ctx, src), nil
}

// statusError maps an HTTP status code to one of the shared sentinel errors.
func statusError(service string, code int, detail string) error {
	var base error
	switch {
	case code == http.StatusUnauthorized:
		base = shared.ErrTokenExpired
	case code == http.StatusNotFound:
		base = shared.ErrPlaylistNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		base = shared.ErrServiceUnavailable
	default:
		base = shared.ErrAPIRequest
	}
	if detail != "" {
		return fmt.Errorf("%w: %s status %d: %s", base, service, code, detail)
	}
	return fmt.Errorf("%w: %s status %d", base, service, code)
}

// ThrottledCatalog waits on a shared [rate.Limiter] before every call to the wrapped catalog.
type ThrottledCatalog struct {
	inner   Catalog
	limiter *rate.Limiter
}

// NewThrottledCatalog limits c to rps requests per second. A non-positive rps disables throttling.
func NewThrottledCatalog(c Catalog, rps float64) *ThrottledCatalog {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &ThrottledCatalog{inner: c, limiter: rate.NewLimiter(limit, 1)}
}

func (t *ThrottledCatalog) Name() string { return t.inner.Name() }

func (t *ThrottledCatalog) wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}

func (t *ThrottledCatalog) Items(ctx context.Context, playlistID string) ([]models.Item, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Items(ctx, playlistID)
}

func (t *ThrottledCatalog) Search(ctx context.Context, query string, limit int) ([]models.Item, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Search(ctx, query, limit)
}

func (t *ThrottledCatalog) Insert(ctx context.Context, playlistID, itemID string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.inner.Insert(ctx, playlistID, itemID)
}
