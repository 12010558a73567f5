package model

// Credential is a proof of identity presented to the authenticator. It is a
// closed set: OTPCredential or FederatedCredential.
type Credential interface {
	credential()
}

// OTPCredential is an email plus the one-time code delivered to it.
// DisplayName and IsSignUp only matter when the account does not exist yet.
type OTPCredential struct {
	Email       string
	Code        string
	DisplayName string
	IsSignUp    bool
}

// FederatedCredential is an OAuth authorization code returned by a provider
// to the callback endpoint.
type FederatedCredential struct {
	Provider string
	Code     string
}

func (OTPCredential) credential()       {}
func (FederatedCredential) credential() {}
