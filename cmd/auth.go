package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/playsync/internal/server"
	"github.com/desertthunder/playsync/internal/services"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthSpotify performs the OAuth2 authorization code flow for Spotify and stores the token.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.spotifyService()
	if err != nil {
		return err
	}
	return r.authorize(ctx, svc, r.config.Credentials.Spotify, cmd.Duration("timeout"))
}

// AuthYouTube performs the Google OAuth2 flow for the YouTube Data API and stores the token.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.youtubeService()
	if err != nil {
		return err
	}
	return r.authorize(ctx, svc, r.config.Credentials.YouTube, cmd.Duration("timeout"))
}

// authorize starts a local callback server, opens the consent page in the browser, waits for the
// redirect and saves the exchanged token to creds.TokenPath.
func (r *Runner) authorize(ctx context.Context, svc services.OAuthService, creds shared.OAuthConfig, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = r.authTimeout
	}

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(svc.Name(), svc, state)

	srv, err := server.NewCallbackServer(r.config.Server.Addr(), handler, r.logger)
	if err != nil {
		return err
	}
	srv.Start()
	r.logger.Infof("started OAuth callback server for %s at %v", svc.Name(), srv.Addr())

	authURL := svc.AuthCodeURL(state)
	r.writePlain("→ Opening browser for %s authorization...\n", svc.Name())
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)
	tok, err := srv.Wait(ctx, timeout)
	if err != nil {
		return err
	}

	if err := shared.SaveToken(creds.TokenPath, tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := svc.Authenticate(ctx, tok, creds.TokenPath); err != nil {
		return fmt.Errorf("failed to authenticate with new token: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n", creds.TokenPath)

	if who, err := svc.Whoami(ctx); err != nil {
		r.logger.Warn("could not look up account", "service", svc.Name(), "error", err)
	} else {
		r.writePlain("✓ Signed in to %s as %s\n", svc.Name(), who)
	}
	return nil
}
