package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/viajesoeste/apiserver/internal/services"
	"github.com/viajesoeste/apiserver/types"
)

// GitHubHandler provides the GitHub OAuth login endpoints.
type GitHubHandler struct {
	githubService *services.GitHubAuthService
	log           logrus.FieldLogger
}

func NewGitHubHandler(githubService *services.GitHubAuthService, log logrus.FieldLogger) *GitHubHandler {
	return &GitHubHandler{
		githubService: githubService,
		log:           log.WithField("component", "github_handler"),
	}
}

// GitHubRouter registers GitHub OAuth routes on the given router.
func GitHubRouter(r chi.Router, githubService *services.GitHubAuthService, log logrus.FieldLogger) {
	handler := NewGitHubHandler(githubService, log)

	r.Get("/", handler.AuthURL)
	r.Post("/callback", handler.Callback)
}

// AuthURL returns the GitHub authorization URL for the browser to visit.
func (h *GitHubHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.githubService.AuthorizationURL()
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthURLResponse{AuthURL: authURL})
}

// Callback completes the login with the authorization code GitHub handed
// to the frontend.
func (h *GitHubHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	login, err := h.githubService.HandleCallback(r.Context(), req.Code)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, GitHubLoginResponse{
		Message: "Autenticación con GitHub exitosa",
		Token:   login.Token,
		User: GitHubUser{
			ID:             login.User.ID,
			Email:          login.User.Email,
			Name:           login.Name,
			AvatarURL:      login.AvatarURL,
			GitHubUsername: login.GitHubUsername,
			Provider:       types.ProviderGitHub,
		},
	})
}

type AuthURLResponse struct {
	AuthURL string `json:"authUrl"`
}

type CallbackRequest struct {
	Code string `json:"code"`
}

type GitHubUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatarUrl"`
	GitHubUsername string `json:"githubUsername"`
	Provider       string `json:"provider"`
}

type GitHubLoginResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    GitHubUser `json:"user"`
}
