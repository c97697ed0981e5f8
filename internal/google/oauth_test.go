package google

import (
	"os"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func setOAuthEnv(t *testing.T, id, secret, redirect string) {
	t.Helper()
	t.Setenv(EnvClientID, id)
	t.Setenv(EnvClientSecret, secret)
	t.Setenv(EnvRedirectURL, redirect)
}

func TestOAuthConfigFromEnv(t *testing.T) {
	setOAuthEnv(t, "client-id", "client-secret", "http://localhost:9999/cb")

	conf, err := OAuthConfigFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if conf.ClientID != "client-id" {
		t.Errorf("ClientID = %q, want %q", conf.ClientID, "client-id")
	}
	if conf.RedirectURL != "http://localhost:9999/cb" {
		t.Errorf("RedirectURL = %q, want %q", conf.RedirectURL, "http://localhost:9999/cb")
	}
	if len(conf.Scopes) == 0 {
		t.Error("expected scopes to be set")
	}
}

func TestOAuthConfigFromEnv_DefaultRedirect(t *testing.T) {
	setOAuthEnv(t, "client-id", "client-secret", "")

	conf, err := OAuthConfigFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if conf.RedirectURL != DefaultRedirectURL {
		t.Errorf("RedirectURL = %q, want %q", conf.RedirectURL, DefaultRedirectURL)
	}
}

func TestOAuthConfigFromEnv_MissingClientID(t *testing.T) {
	setOAuthEnv(t, "", "client-secret", "")

	if _, err := OAuthConfigFromEnv(); err == nil {
		t.Error("expected error when client ID is missing")
	}
}

func TestOAuthConfigFromEnv_MissingClientSecret(t *testing.T) {
	setOAuthEnv(t, "client-id", "", "")

	if _, err := OAuthConfigFromEnv(); err == nil {
		t.Error("expected error when client secret is missing")
	}
}

func TestAuthURL(t *testing.T) {
	conf := &oauth2.Config{
		ClientID:    "client-id",
		RedirectURL: "http://localhost:8080/api/auth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL: "https://accounts.example.com/auth",
		},
		Scopes: DefaultOAuthScopes,
	}

	url := AuthURL(conf, "state-token")

	if !strings.Contains(url, "state=state-token") {
		t.Errorf("AuthURL missing state parameter: %s", url)
	}
	if !strings.Contains(url, "access_type=offline") {
		t.Errorf("AuthURL missing offline access: %s", url)
	}
	if !strings.Contains(url, "prompt=consent") {
		t.Errorf("AuthURL missing consent prompt: %s", url)
	}
}

func TestSaveAndHasToken(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if HasToken() {
		t.Error("expected no token before save")
	}

	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}
	if err := SaveToken(token); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	if !HasToken() {
		t.Error("expected token after save")
	}

	data, err := os.ReadFile(tokenFilePath())
	if err != nil {
		t.Fatalf("failed to read token file: %v", err)
	}
	if string(data) != "access refresh" {
		t.Errorf("token file = %q, want %q", string(data), "access refresh")
	}
}
