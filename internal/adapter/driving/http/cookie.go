package httphandler

import (
	"net/http"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "clinicauth_session"

// CookieConfig controls the attributes of the session cookie. Secure should
// be true whenever the service is reached over HTTPS.
type CookieConfig struct {
	Secure bool
}

// Set writes the session cookie. It expires with the session.
func (c CookieConfig) Set(w http.ResponseWriter, session *model.Session) {
	maxAge := int(session.ExpiresAt.Sub(session.IssuedAt) / time.Second)
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear removes the session cookie.
func (c CookieConfig) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken returns the session cookie value, or "" if there is none.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
