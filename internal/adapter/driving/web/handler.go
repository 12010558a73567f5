// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"

	httphandler "github.com/ericfisherdev/clinicauth/internal/adapter/driving/http"
	"github.com/ericfisherdev/clinicauth/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/clinicauth/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/clinicauth/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/clinicauth/internal/application"
	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// Keys in the scs flow session.
const (
	keyPendingEmail  = "pending_email"
	keyPendingName   = "pending_name"
	keyPendingSignUp = "pending_signup"
	keyOAuthState    = "oauth_state"
	keyOAuthProvider = "oauth_provider"
)

// flowLifetime bounds how long a half-finished login survives.
const flowLifetime = 30 * time.Minute

// NewSessionManager returns the scs manager that carries in-progress login
// state (pending email, OAuth state). It never holds the session token.
func NewSessionManager(secure bool) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = flowLifetime
	sm.IdleTimeout = flowLifetime
	sm.Cookie.Name = "clinicauth_flow"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	sm.Cookie.Persist = false
	return sm
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	clinicName string
	issuer     *application.IssuanceService
	auth       *application.Authenticator
	federated  *application.FederatedService
	sessions   *application.SessionService
	session    *scs.SessionManager
	cookies    httphandler.CookieConfig
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	clinicName string,
	issuer *application.IssuanceService,
	auth *application.Authenticator,
	federated *application.FederatedService,
	sessions *application.SessionService,
	session *scs.SessionManager,
	cookies httphandler.CookieConfig,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		clinicName: clinicName,
		issuer:     issuer,
		auth:       auth,
		federated:  federated,
		sessions:   sessions,
		session:    session,
		cookies:    cookies,
		logger:     logger,
	}
}

// Home renders the signed-in landing page, or redirects to /login.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	account, err := h.sessions.Resolve(r.Context(), httphandler.SessionToken(r))
	if err != nil {
		if application.KindOf(err) != application.KindUnauthorized {
			h.logger.Error("failed to resolve session", "error", err)
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.render(w, r, http.StatusOK, "Welcome", pages.Home(toHomeViewModel(h.clinicName, h.csrfToken(w, r), *account)))
}

// Login renders the email step. Any half-finished login is discarded.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Resolve(r.Context(), httphandler.SessionToken(r)); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.clearPending(r)

	h.render(w, r, http.StatusOK, "Sign in", pages.Login(h.loginViewModel(w, r)))
}

// RequestOTP handles the email step: it sends a code and shows the code step.
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	name := strings.TrimSpace(r.FormValue("name"))
	signUp := r.FormValue("signup") == "true"

	vm := h.loginViewModel(w, r)
	vm.Email, vm.Name, vm.IsSignUp = email, name, signUp

	err := h.issuer.RequestOTP(r.Context(), application.OTPRequest{
		Email:       email,
		DisplayName: name,
		IsSignUp:    signUp,
	})
	if err != nil {
		h.renderLoginError(w, r, vm, "request otp", err)
		return
	}

	h.session.Put(r.Context(), keyPendingEmail, email)
	h.session.Put(r.Context(), keyPendingName, name)
	h.session.Put(r.Context(), keyPendingSignUp, signUp)

	vm.CodeSent = true
	vm.Notice = "OTP sent successfully."
	h.render(w, r, http.StatusOK, "Enter your code", pages.Login(vm))
}

// VerifyOTP handles the code step. On success it sets the session cookie and
// redirects to the landing page.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	ctx := r.Context()
	email := h.session.GetString(ctx, keyPendingEmail)
	if email == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	cred := model.OTPCredential{
		Email:       email,
		Code:        strings.TrimSpace(r.FormValue("otp")),
		DisplayName: h.session.GetString(ctx, keyPendingName),
		IsSignUp:    h.session.GetBool(ctx, keyPendingSignUp),
	}

	session, err := h.auth.Authenticate(ctx, cred)
	if err != nil {
		vm := h.loginViewModel(w, r)
		vm.Email, vm.Name, vm.IsSignUp = cred.Email, cred.DisplayName, cred.IsSignUp
		// A wrong code may be retried; any other failure restarts at the email step.
		vm.CodeSent = errors.Is(err, application.ErrOTPInvalid)
		if !vm.CodeSent {
			h.clearPending(r)
		}
		h.renderLoginError(w, r, vm, "verify otp", err)
		return
	}

	h.signIn(w, r, session)
}

// Logout clears the session cookie and the flow session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	h.cookies.Clear(w)
	if err := h.session.Destroy(r.Context()); err != nil {
		h.logger.Warn("failed to destroy flow session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// OAuthStart stores a fresh state value and redirects to the provider.
func (h *Handler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	state := generateToken()

	url, err := h.federated.AuthCodeURL(provider, state)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	h.session.Put(r.Context(), keyOAuthState, state)
	h.session.Put(r.Context(), keyOAuthProvider, provider)
	http.Redirect(w, r, url, http.StatusFound)
}

// OAuthCallback verifies the state, exchanges the code, and signs the user in.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := r.PathValue("provider")
	query := r.URL.Query()

	wantState := h.session.PopString(ctx, keyOAuthState)
	wantProvider := h.session.PopString(ctx, keyOAuthProvider)
	gotState := query.Get("state")

	vm := h.loginViewModel(w, r)

	if denied := query.Get("error"); denied != "" {
		h.logger.Info("oauth consent not granted", "provider", provider, "error", denied)
		h.renderLoginError(w, r, vm, "oauth callback", application.ErrAuthProvider)
		return
	}

	if wantState == "" || provider != wantProvider ||
		subtle.ConstantTimeCompare([]byte(gotState), []byte(wantState)) != 1 {
		h.logger.Warn("oauth state mismatch", "provider", provider)
		vm.Error = application.ErrAuthProvider.Error()
		h.render(w, r, http.StatusBadRequest, "Sign in", pages.Login(vm))
		return
	}

	session, err := h.auth.Authenticate(ctx, model.FederatedCredential{
		Provider: provider,
		Code:     query.Get("code"),
	})
	if err != nil {
		h.renderLoginError(w, r, vm, "oauth callback", err)
		return
	}

	h.signIn(w, r, session)
}

// signIn sets the session cookie, rotates the flow session, and redirects home.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, session *model.Session) {
	h.clearPending(r)
	if err := h.session.RenewToken(r.Context()); err != nil {
		h.logger.Warn("failed to renew flow session", "error", err)
	}

	h.cookies.Set(w, session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) clearPending(r *http.Request) {
	ctx := r.Context()
	h.session.Remove(ctx, keyPendingEmail)
	h.session.Remove(ctx, keyPendingName)
	h.session.Remove(ctx, keyPendingSignUp)
}

func (h *Handler) loginViewModel(w http.ResponseWriter, r *http.Request) viewmodel.LoginViewModel {
	var providers []string
	if h.federated != nil {
		providers = h.federated.Providers()
	}
	return toLoginViewModel(h.clinicName, h.csrfToken(w, r), providers)
}

// renderLoginError re-renders the login page with the user-facing message
// for err and the matching status code.
func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, vm viewmodel.LoginViewModel, op string, err error) {
	status := httphandler.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("web request failed", "op", op, "error", err)
	}
	vm.Error = application.UserMessage(err)
	h.render(w, r, status, "Sign in", pages.Login(vm))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title string, component templ.Component) {
	layout := templates.Layout(title+" | "+h.clinicName, component)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "title", title, "error", err)
	}
}
