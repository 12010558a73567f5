// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// ProviderButton is a "Continue with ..." link on the login page.
type ProviderButton struct {
	Name  string
	Label string
	URL   string
}

// LoginViewModel holds the state of the two-step login form. When CodeSent is
// false the email step is shown; otherwise the code step for Email.
type LoginViewModel struct {
	ClinicName string
	CSRFToken  string

	Email    string
	Name     string
	IsSignUp bool
	CodeSent bool

	Error  string
	Notice string

	Providers []ProviderButton
}

// HomeViewModel holds the signed-in landing page data.
type HomeViewModel struct {
	ClinicName  string
	CSRFToken   string
	DisplayName string
	Email       string
	VerifiedAt  string
}
