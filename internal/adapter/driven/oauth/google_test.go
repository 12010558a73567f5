package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/ericfisherdev/clinicauth/internal/adapter/driven/oauth"
)

// tokenHandler answers an OAuth token request for the expected code.
func tokenHandler(t *testing.T, wantCode, accessToken string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.Form.Get("code") != wantCode {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": accessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}
}

func newGoogleTestProvider(t *testing.T, mux *http.ServeMux) *oauth.GoogleProvider {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	endpoint := oauth2.Endpoint{
		AuthURL:   server.URL + "/auth",
		TokenURL:  server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return oauth.NewGoogleProviderWithEndpoints(server.Client(), endpoint, server.URL+"/userinfo", "http://localhost:8080/auth/oauth/google/callback")
}

func TestGoogleProvider_Exchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(t, "good-code", "ya29.test"))
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ya29.test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"10769150350006150715113082367","email":"asha@gmail.com","verified_email":true,"name":"Asha Rao"}`))
	})

	p := newGoogleTestProvider(t, mux)

	identity, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "google", identity.Provider)
	assert.Equal(t, "10769150350006150715113082367", identity.Subject)
	assert.Equal(t, "asha@gmail.com", identity.Email)
	assert.Equal(t, "Asha Rao", identity.DisplayName)
	assert.True(t, identity.EmailVerified)
	assert.Equal(t, "ya29.test", identity.AccessToken)
}

func TestGoogleProvider_Exchange_BadCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(t, "good-code", "ya29.test"))

	p := newGoogleTestProvider(t, mux)

	_, err := p.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange google code")
}

func TestGoogleProvider_Exchange_UserInfoError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", tokenHandler(t, "good-code", "ya29.test"))
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	p := newGoogleTestProvider(t, mux)

	_, err := p.Exchange(context.Background(), "good-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := oauth.NewGoogleProvider("client-123", "secret", "http://localhost:8080/auth/oauth/google/callback")

	raw := p.AuthCodeURL("state-xyz")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "http://localhost:8080/auth/oauth/google/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "userinfo.email")
	assert.Equal(t, "google", p.Name())
}
