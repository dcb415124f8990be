package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/viajesoeste/apiserver/internal/services"
)

// AuthHandler provides local account and session endpoints.
type AuthHandler struct {
	authService *services.AuthService
	log         logrus.FieldLogger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.WithField("component", "auth_handler"),
	}
}

// AuthRouter registers auth routes, including the GitHub flow, on the given
// router.
func AuthRouter(r chi.Router, authService *services.AuthService, githubService *services.GitHubAuthService, log logrus.FieldLogger) {
	handler := NewAuthHandler(authService, log)
	requireAuth := RequireAuth(authService, handler.log)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(requireAuth).Post("/logout", handler.Logout)
	r.With(requireAuth).Get("/me", handler.Me)
	r.With(requireAuth).Get("/verify", handler.Verify)

	r.Route("/github", func(r chi.Router) {
		GitHubRouter(r, githubService, log)
	})
}

// Register creates a new local account and returns a JWT.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "Usuario registrado exitosamente",
		ID:      session.User.ID,
		Token:   session.Token,
	})
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message: "Inicio de sesión exitoso",
		Token:   session.Token,
		User:    SessionUser{ID: session.User.ID, Email: session.User.Email},
	})
}

// Logout revokes the bearer token of the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(tokenFromContext(r.Context()))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Sesión cerrada exitosamente"})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "token_missing", "Se requiere autenticación para acceder a este recurso")
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// Verify confirms the token is valid and echoes its identity.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, VerifyResponse{
		Valid: true,
		User:  SessionUser{ID: claims.UserID, Email: claims.Email},
	})
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Token   string `json:"token"`
}

type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    SessionUser `json:"user"`
}

type MeResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type VerifyResponse struct {
	Valid bool        `json:"valid"`
	User  SessionUser `json:"user"`
}
