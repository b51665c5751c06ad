// ABOUTME: OAuth configuration and token storage for the Google Sheets export
// ABOUTME: Tokens live under the XDG data dir with owner-only permissions
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// CallbackAddr is where the local OAuth callback listens.
const CallbackAddr = "localhost:8085"

// ErrNotConfigured is returned when Google client credentials are missing.
var ErrNotConfigured = errors.New("google OAuth credentials not configured; set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")

// NewOAuthConfig creates the OAuth2 config for the Sheets API. Credentials
// come from GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  "http://" + CallbackAddr + "/oauth/callback",
		Scopes:       []string{sheets.SpreadsheetsScope},
		Endpoint:     googleoauth.Endpoint,
	}
}

// RequireConfig returns the OAuth config or ErrNotConfigured.
func RequireConfig() (*oauth2.Config, error) {
	config := NewOAuthConfig()
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	return config, nil
}

// TokenPath returns the XDG path of the stored token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "frontdesk", "google-credentials.json")
}

// SaveToken writes token to TokenPath.
func SaveToken(token *oauth2.Token) error {
	return saveTokenTo(TokenPath(), token)
}

func saveTokenTo(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken reads the token from TokenPath.
func LoadToken() (*oauth2.Token, error) {
	return loadTokenFrom(TokenPath())
}

func loadTokenFrom(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// NewSheetsService creates an authenticated Sheets client. The token is
// refreshed automatically by the oauth2 transport.
func NewSheetsService(ctx context.Context, token *oauth2.Token) (*sheets.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}
	config, err := RequireConfig()
	if err != nil {
		return nil, err
	}
	return newSheetsService(ctx, config.Client(ctx, token))
}

func newSheetsService(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*sheets.Service, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return service, nil
}
