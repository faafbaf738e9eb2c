package gdrive

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// AuthConfig holds the OAuth credentials for the Drive API.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// NewService creates a Drive API service from stored OAuth credentials.
// The refresh token must carry at least the drive.readonly scope.
func NewService(ctx context.Context, auth AuthConfig) (*drive.Service, error) {
	if auth.ClientID == "" || auth.ClientSecret == "" || auth.RefreshToken == "" {
		return nil, fmt.Errorf("gdrive: client ID, client secret and refresh token are required")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveReadonlyScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: auth.RefreshToken})

	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gdrive: creating drive service: %w", err)
	}
	return svc, nil
}
