package model

import "time"

// Supported federated identity providers.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// FederatedIdentity is the identity an OAuth provider attests to after a
// successful code exchange.
type FederatedIdentity struct {
	Provider      string
	Subject       string
	Email         string
	DisplayName   string
	EmailVerified bool
	AccessToken   string
}

// ProviderLink records which provider identity is linked to which account.
// AccessToken is empty when token storage is disabled.
type ProviderLink struct {
	AccountID   string
	Provider    string
	Subject     string
	AccessToken string
	UpdatedAt   time.Time
}
