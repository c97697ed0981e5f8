package google

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Environment variables for the OAuth client configuration.
const (
	EnvClientID     = "GOOGLE_CLIENT_ID"
	EnvClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvRedirectURL  = "GOOGLE_REDIRECT_URL"
)

// DefaultRedirectURL is used when GOOGLE_REDIRECT_URL is not set. It matches
// the default serve address and the callback route.
const DefaultRedirectURL = "http://localhost:8080/api/auth/callback"

// OAuthConfigFromEnv builds the OAuth2 configuration from environment
// variables. Client ID and secret are required.
func OAuthConfigFromEnv() (*oauth2.Config, error) {
	clientID := os.Getenv(EnvClientID)
	if clientID == "" {
		return nil, fmt.Errorf("%s is not set", EnvClientID)
	}

	clientSecret := os.Getenv(EnvClientSecret)
	if clientSecret == "" {
		return nil, fmt.Errorf("%s is not set", EnvClientSecret)
	}

	redirectURL := os.Getenv(EnvRedirectURL)
	if redirectURL == "" {
		redirectURL = DefaultRedirectURL
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       DefaultOAuthScopes,
	}, nil
}

// AuthURL returns the consent page URL for the given state. Offline access
// is requested so Google issues a refresh token, and consent is forced so a
// refresh token is returned on repeat authorizations as well.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for tokens.
func Exchange(ctx context.Context, conf *oauth2.Config, code string) (*oauth2.Token, error) {
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return token, nil
}
