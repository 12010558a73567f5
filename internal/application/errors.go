package application

import "errors"

// Sentinel errors returned by the authentication services. Each message is
// safe to show to the user as-is.
//
//nolint:staticcheck // ST1005: these strings are user-facing sentences.
var (
	ErrEmailRequired       = errors.New("Email is required.")
	ErrCredentialsRequired = errors.New("Email and OTP are required.")
	ErrInvalidRequest      = errors.New("Invalid request body.")

	ErrAccountExists   = errors.New("User already exists.")
	ErrAccountNotFound = errors.New("User not found.")

	ErrOTPExpiredOrInvalid = errors.New("OTP expired or invalid.")
	ErrOTPInvalid          = errors.New("Invalid OTP.")

	ErrAuthProvider    = errors.New("Sign-in with the provider failed. Please try again.")
	ErrUnknownProvider = errors.New("Unknown sign-in provider.")

	ErrUnauthorized = errors.New("Unauthorized.")
)

// ErrUnsupportedCredential is returned by Authenticator for a credential
// variant it has no verifier for. It is a programming error, not a user error.
var ErrUnsupportedCredential = errors.New("unsupported credential type")

// GenericErrorMessage is shown for every unexpected failure.
const GenericErrorMessage = "An error occurred."

// ErrorKind classifies an error for presentation.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindConflict            ErrorKind = "conflict"
	KindNotFound            ErrorKind = "not_found"
	KindOTPExpiredOrInvalid ErrorKind = "otp_expired_or_invalid"
	KindOTPInvalid          ErrorKind = "otp_invalid"
	KindAuthProvider        ErrorKind = "auth_provider"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindUnexpected          ErrorKind = "unexpected"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrEmailRequired, KindValidation},
	{ErrCredentialsRequired, KindValidation},
	{ErrInvalidRequest, KindValidation},
	{ErrAccountExists, KindConflict},
	{ErrAccountNotFound, KindNotFound},
	{ErrUnknownProvider, KindNotFound},
	{ErrOTPExpiredOrInvalid, KindOTPExpiredOrInvalid},
	{ErrOTPInvalid, KindOTPInvalid},
	{ErrAuthProvider, KindAuthProvider},
	{ErrUnauthorized, KindUnauthorized},
}

// KindOf returns the kind of err. Errors that do not wrap one of the
// sentinels above are KindUnexpected.
func KindOf(err error) ErrorKind {
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindUnexpected
}

// UserMessage returns the message to display for err. Unexpected errors
// collapse to GenericErrorMessage so internal detail never reaches the user.
func UserMessage(err error) string {
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.err.Error()
		}
	}
	return GenericErrorMessage
}
