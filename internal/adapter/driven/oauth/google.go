// Package oauth implements the IdentityProvider port for Google and GitHub
// using the OAuth 2.0 authorization-code flow.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IdentityProvider = (*GoogleProvider)(nil)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider authenticates users with Google accounts.
type GoogleProvider struct {
	cfg         *oauth2.Config
	userInfoURL string
	httpClient  *http.Client // nil uses http.DefaultClient.
}

// NewGoogleProvider creates a GoogleProvider for the given OAuth client.
// redirectURL must match the callback registered with Google.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
		userInfoURL: googleUserInfoURL,
	}
}

// NewGoogleProviderWithEndpoints creates a GoogleProvider that talks to the
// given token and userinfo endpoints through httpClient. Intended for tests.
func NewGoogleProviderWithEndpoints(httpClient *http.Client, endpoint oauth2.Endpoint, userInfoURL, redirectURL string) *GoogleProvider {
	p := NewGoogleProvider("test-client", "test-secret", redirectURL)
	p.cfg.Endpoint = endpoint
	p.userInfoURL = userInfoURL
	p.httpClient = httpClient
	return p
}

// Name returns "google".
func (p *GoogleProvider) Name() string { return model.ProviderGoogle }

// AuthCodeURL returns the Google consent page URL.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// googleUserInfo is the subset of the v2 userinfo response we use.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// Exchange trades the code for a token and fetches the Google profile.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*model.FederatedIdentity, error) {
	ctx = withHTTPClient(ctx, p.httpClient)

	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange google code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build google userinfo request: %w", err)
	}

	resp, err := p.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch google userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch google userinfo: status %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode google userinfo: %w", err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("google userinfo has no id")
	}

	return &model.FederatedIdentity{
		Provider:      model.ProviderGoogle,
		Subject:       info.ID,
		Email:         info.Email,
		DisplayName:   info.Name,
		EmailVerified: info.VerifiedEmail,
		AccessToken:   tok.AccessToken,
	}, nil
}

// withHTTPClient makes oauth2 use client for token requests. A nil client
// leaves the context unchanged.
func withHTTPClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
