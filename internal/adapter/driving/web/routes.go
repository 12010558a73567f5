package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Page and OAuth routes run inside the scs session so the pending email and
// OAuth state survive between requests. Static assets are served from the
// embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	page := func(fn http.HandlerFunc) http.Handler {
		return h.session.LoadAndSave(fn)
	}

	mux.Handle("GET /{$}", page(h.Home))
	mux.Handle("GET /login", page(h.Login))
	mux.Handle("POST /login/otp", page(h.RequestOTP))
	mux.Handle("POST /login/verify", page(h.VerifyOTP))
	mux.Handle("POST /logout", page(h.Logout))
	mux.Handle("GET /auth/oauth/{provider}", page(h.OAuthStart))
	mux.Handle("GET /auth/oauth/{provider}/callback", page(h.OAuthCallback))
}
