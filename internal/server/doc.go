// Package server provides the local HTTP callback used to complete OAuth logins from the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
// [LoggingMiddleware] logs each request at debug level without its query string.
//
// # OAuth Callback
//
// [OAuthHandler] implements the OAuth2 authorization code callback. It validates the state parameter,
// exchanges the code through an [Exchanger] (the Spotify or YouTube service), and sends the result through a channel.
// It only processes one callback to prevent replay attacks.
//
// [CallbackServer] runs the handler on the configured host and port (127.0.0.1:3000 by default) for one login
// and shuts down once a token arrives, the flow fails, or the wait times out.
package server
