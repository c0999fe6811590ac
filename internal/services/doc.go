// Package services defines the [Catalog] interface for music services and implements it for
// Spotify and YouTube.
//
// # Catalog Interface
//
// A catalog lists playlist items, searches its library and appends items to playlists. Items are
// converted to [models.Item] so the matching engine never sees provider types.
//
// # Spotify Implementation
//
// [SpotifyService] talks to the Web API with net/http. It uses OAuth2 for authentication with
// automatic token refresh; refreshed tokens are written back to disk when a token path is given.
//
// # YouTube Implementation
//
// [YouTubeService] wraps the generated youtube/v3 client. Playlist items and search hits are
// resolved through videos.list to pick up durations (ISO-8601, see [ParseISODuration]), view
// counts and categories.
//
// # Throttling
//
// [ThrottledCatalog] puts a [rate.Limiter] in front of any catalog.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token rejected, reauthorization needed
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
//   - [shared.ErrServiceUnavailable] : rate limited, quota exhausted or server error
//   - [shared.ErrAPIRequest] : any other failed request
package services
