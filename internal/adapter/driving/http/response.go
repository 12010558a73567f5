package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"An error occurred."}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// OTPRequest is the JSON body for POST /auth/otp.
type OTPRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsSignUp bool   `json:"isSignUp"`
}

// VerifyRequest is the JSON body for POST /auth/verify.
type VerifyRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Name     string `json:"name"`
	IsSignUp bool   `json:"isSignUp"`
}

// MessageResponse is a plain success message.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountResponse is the JSON representation of an account.
type AccountResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	VerifiedAt string `json:"verified_at,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// SessionResponse is returned by a successful verification.
type SessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt string          `json:"expires_at"`
	Account   AccountResponse `json:"account"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// toAccountResponse converts a domain Account to its JSON representation.
func toAccountResponse(a model.Account) AccountResponse {
	resp := AccountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.DisplayName,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.IsVerified() {
		resp.VerifiedAt = a.VerifiedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
