package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viajesoeste/apiserver/internal/github"
)

// fakeGitHub serves the token, profile and emails endpoints.
func fakeGitHub(t *testing.T, calls *atomic.Int32) github.Config {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = r.ParseForm()
		if r.PostForm.Get("code") == "expired" {
			_, _ = w.Write([]byte(`{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"gho_test","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         42,
			"login":      "octocat",
			"name":       "The Octocat",
			"email":      "",
			"avatar_url": "https://avatars.example/42",
		})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"email": "octo@example.com", "primary": true, "verified": true},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return github.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:5173/auth/github/callback",
		AuthURL:      server.URL + "/login/oauth/authorize",
		TokenURL:     server.URL + "/login/oauth/access_token",
		APIBaseURL:   server.URL,
	}
}

func TestGitHubAuthURL(t *testing.T) {
	var calls atomic.Int32
	api := newTestAPI(t, withGitHub(fakeGitHub(t, &calls)))

	rec := api.do(t, http.MethodGet, "/api/auth/github", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	authURL := decode[AuthURLResponse](t, rec).AuthURL
	assert.True(t, strings.Contains(authURL, "client_id=client-id"), authURL)
	assert.Zero(t, calls.Load())
}

func TestGitHubAuthURL_NotConfigured(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/auth/github", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "github_not_configured", decode[ErrorResponse](t, rec).Error)
}

func TestGitHubCallback(t *testing.T) {
	var calls atomic.Int32
	api := newTestAPI(t, withGitHub(fakeGitHub(t, &calls)))
	local := api.register(t, "octo@example.com", "secret1")

	rec := api.do(t, http.MethodPost, "/api/auth/github/callback", "", CallbackRequest{Code: "abc"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[GitHubLoginResponse](t, rec)
	assert.Equal(t, "Autenticación con GitHub exitosa", resp.Message)
	assert.Equal(t, local.ID, resp.User.ID, "linked to the existing account")
	assert.Equal(t, "octocat", resp.User.GitHubUsername)
	assert.Equal(t, "github", resp.User.Provider)

	users, err := api.users.List(t.Context())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "42", users[0].GitHubID)

	rec = api.do(t, http.MethodGet, "/api/auth/verify", resp.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGitHubCallback_Errors(t *testing.T) {
	var calls atomic.Int32
	api := newTestAPI(t, withGitHub(fakeGitHub(t, &calls)))

	rec := api.do(t, http.MethodPost, "/api/auth/github/callback", "", CallbackRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_code", decode[ErrorResponse](t, rec).Error)
	assert.Zero(t, calls.Load(), "no network call without a code")

	rec = api.do(t, http.MethodPost, "/api/auth/github/callback", "", CallbackRequest{Code: "expired"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "upstream_auth_error", resp.Error)
	assert.Contains(t, resp.Message, "incorrect or expired")
}
