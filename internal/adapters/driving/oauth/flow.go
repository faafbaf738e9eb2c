package oauth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
)

// consentTimeout bounds how long the flow waits for the user to approve
// access in the browser.
const consentTimeout = 5 * time.Minute

// FlowResult carries the outcome of a completed consent flow.
type FlowResult struct {
	// RefreshToken is the long-lived token to persist.
	RefreshToken string

	// AuthURL is the consent URL the user was sent to, kept for
	// re-printing when the browser could not be opened.
	AuthURL string
}

// AuthorizeGDrive runs the installed-app consent flow for the Drive API:
// it starts a local callback server, sends the user's browser to the
// Google consent page, and exchanges the returned code for a refresh
// token. openURL is called with the consent URL; pass OpenBrowser, or a
// function that prints the URL for headless hosts.
func AuthorizeGDrive(ctx context.Context, clientID, clientSecret string, openURL func(string) error) (*FlowResult, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("oauth: client ID and client secret are required")
	}

	state := GenerateState()
	server := NewCallbackServer(0, state)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}
	defer server.Stop()

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  server.RedirectURI(),
		Scopes:       []string{drive.DriveReadonlyScope},
	}

	// prompt=consent forces Google to reissue a refresh token even when
	// the app was already approved.
	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	if err := openURL(authURL); err != nil {
		return nil, fmt.Errorf("opening browser: %w", err)
	}

	code, err := server.WaitForCode(consentTimeout)
	if err != nil {
		return nil, fmt.Errorf("waiting for authorization: %w", err)
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return nil, fmt.Errorf("oauth: no refresh token returned; revoke access at myaccount.google.com and retry")
	}

	return &FlowResult{RefreshToken: token.RefreshToken, AuthURL: authURL}, nil
}
