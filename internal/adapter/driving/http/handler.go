package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/application"
	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Handler is the HTTP driving adapter that serves the JSON auth API.
type Handler struct {
	issuer   *application.IssuanceService
	auth     *application.Authenticator
	sessions *application.SessionService
	health   *application.HealthService
	cookies  CookieConfig
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	issuer *application.IssuanceService,
	auth *application.Authenticator,
	sessions *application.SessionService,
	health *application.HealthService,
	cookies CookieConfig,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		issuer:   issuer,
		auth:     auth,
		sessions: sessions,
		health:   health,
		cookies:  cookies,
		logger:   logger,
	}
}

// RegisterAPIRoutes registers the JSON API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /auth/otp", h.RequestOTP)
	mux.HandleFunc("POST /auth/verify", h.VerifyOTP)
	mux.HandleFunc("GET /api/v1/session", h.Session)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// ApplyMiddleware wraps next with logging and recovery middleware.
func ApplyMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, next)
	wrapped = noStoreMiddleware(wrapped)
	wrapped = loggingMiddleware(logger, wrapped)
	return wrapped
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// RequestOTP issues a one-time code for a sign-up or a login.
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.issuer.RequestOTP(r.Context(), application.OTPRequest{
		Email:       req.Email,
		DisplayName: req.Name,
		IsSignUp:    req.IsSignUp,
	})
	if err != nil {
		h.writeAppError(w, "request otp", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "OTP sent successfully."})
}

// VerifyOTP exchanges an email and code for a session. The session token is
// returned in the body and set as an HttpOnly cookie.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.auth.Authenticate(r.Context(), model.OTPCredential{
		Email:       req.Email,
		Code:        req.OTP,
		DisplayName: req.Name,
		IsSignUp:    req.IsSignUp,
	})
	if err != nil {
		h.writeAppError(w, "verify otp", err)
		return
	}

	account, err := h.sessions.Resolve(r.Context(), session.Token)
	if err != nil {
		h.writeAppError(w, "load session account", err)
		return
	}

	h.cookies.Set(w, session)
	writeJSON(w, http.StatusOK, SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
		Account:   toAccountResponse(*account),
	})
}

// Session returns the account behind the bearer token or session cookie.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	account, err := h.sessions.Resolve(r.Context(), h.sessionToken(r))
	if err != nil {
		h.writeAppError(w, "resolve session", err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(*account))
}

// Health reports process liveness and the state of the backing store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.health.Check(r.Context())

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status: report.Status,
		Time:   time.Now().UTC().Format(time.RFC3339),
		Checks: report.Checks,
	})
}

// decode reads a JSON body into v. On failure it writes the 400 response and
// returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if !errors.Is(err, io.EOF) {
			h.logger.Debug("malformed request body", "path", r.URL.Path, "error", err)
		}
		writeError(w, http.StatusBadRequest, application.ErrInvalidRequest.Error())
		return false
	}
	return true
}

// sessionToken prefers the Authorization header and falls back to the cookie.
func (h *Handler) sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return SessionToken(r)
}

// writeAppError maps an application error to its status code and
// user-facing message. Unexpected errors are logged with their detail.
func (h *Handler) writeAppError(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "op", op, "error", err)
	}
	writeError(w, status, application.UserMessage(err))
}

// StatusFor returns the HTTP status code for an application error.
func StatusFor(err error) int {
	switch application.KindOf(err) {
	case application.KindValidation:
		return http.StatusBadRequest
	case application.KindConflict:
		return http.StatusConflict
	case application.KindNotFound:
		return http.StatusNotFound
	case application.KindOTPExpiredOrInvalid, application.KindOTPInvalid,
		application.KindAuthProvider, application.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
