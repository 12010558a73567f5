package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IdentityProvider = (*GitHubProvider)(nil)

// githubCacheEntries bounds the shared ETag cache.
const githubCacheEntries = 512

// GitHubProvider authenticates users with GitHub accounts. The profile and
// email lookups go through this transport stack:
//  1. httpcache (ETag-based conditional request caching, bounded)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (REST client, authenticated per login with the user's token)
//
// GitHub sends "Vary: Authorization", so cached responses never cross tokens.
type GitHubProvider struct {
	cfg        *oauth2.Config
	gh         *gh.Client
	httpClient *http.Client // token endpoint client; nil uses http.DefaultClient.
}

// NewGitHubProvider creates a GitHubProvider for the given OAuth app.
func NewGitHubProvider(clientID, clientSecret, redirectURL string) *GitHubProvider {
	cacheTransport := httpcache.NewTransport(newBoundedCache(githubCacheEntries))
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	return &GitHubProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		gh: gh.NewClient(rateLimitClient),
	}
}

// NewGitHubProviderWithHTTPClient creates a GitHubProvider whose token endpoint
// and REST API live behind httpClient at the given URLs. Intended for tests.
func NewGitHubProviderWithHTTPClient(httpClient *http.Client, endpoint oauth2.Endpoint, apiBaseURL, redirectURL string) (*GitHubProvider, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	p := NewGitHubProvider("test-client", "test-secret", redirectURL)
	p.cfg.Endpoint = endpoint
	p.gh = client
	p.httpClient = httpClient

	return p, nil
}

// Name returns "github".
func (p *GitHubProvider) Name() string { return model.ProviderGitHub }

// AuthCodeURL returns the GitHub authorization page URL.
func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// Exchange trades the code for a token, then resolves the user's profile and
// primary verified email. GitHub profiles may hide the email, so the email
// list endpoint is the source of truth.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*model.FederatedIdentity, error) {
	tok, err := p.cfg.Exchange(withHTTPClient(ctx, p.httpClient), code)
	if err != nil {
		return nil, fmt.Errorf("exchange github code: %w", err)
	}

	client := p.gh.WithAuthToken(tok.AccessToken)

	user, resp, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch github user: %w", err)
	}
	logRateLimit(resp, "users.get")

	emails, resp, err := client.Users.ListEmails(ctx, &gh.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("list github emails for %s: %w", user.GetLogin(), err)
	}
	logRateLimit(resp, "users.list_emails")

	email, verified := pickEmail(emails)

	name := user.GetName()
	if name == "" {
		name = user.GetLogin()
	}

	return &model.FederatedIdentity{
		Provider:      model.ProviderGitHub,
		Subject:       strconv.FormatInt(user.GetID(), 10),
		Email:         email,
		DisplayName:   name,
		EmailVerified: verified,
		AccessToken:   tok.AccessToken,
	}, nil
}

// pickEmail prefers the primary verified address, then any verified address,
// then the primary address (reported unverified).
func pickEmail(emails []*gh.UserEmail) (string, bool) {
	for _, e := range emails {
		if e.GetPrimary() && e.GetVerified() {
			return e.GetEmail(), true
		}
	}
	for _, e := range emails {
		if e.GetVerified() {
			return e.GetEmail(), true
		}
	}
	for _, e := range emails {
		if e.GetPrimary() {
			return e.GetEmail(), false
		}
	}
	return "", false
}

// logRateLimit logs GitHub rate limit state after an API call.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < resp.Rate.Limit/10 {
		slog.Warn("github rate limit low",
			"endpoint", endpoint,
			"remaining", resp.Rate.Remaining,
			"reset", resp.Rate.Reset.Time,
		)
	}
}
