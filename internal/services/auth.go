package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/viajesoeste/apiserver/internal/auth"
	"github.com/viajesoeste/apiserver/internal/store"
	"github.com/viajesoeste/apiserver/types"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Session is an issued token together with the account it belongs to.
type Session struct {
	Token string
	User  types.User
}

// AuthService implements local registration and login, logout and token
// authentication.
type AuthService struct {
	users   UserRepository
	hasher  auth.PasswordHasher
	tokens  *auth.TokenIssuer
	revoked auth.RevocationRegistry
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewAuthService(
	users UserRepository,
	hasher auth.PasswordHasher,
	tokens *auth.TokenIssuer,
	revoked auth.RevocationRegistry,
	log logrus.FieldLogger,
) *AuthService {
	return &AuthService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		revoked: revoked,
		log:     log.WithField("component", "auth"),
		now:     time.Now,
	}
}

// Register creates a local account and returns a session for it.
func (s *AuthService) Register(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, &Error{
			Kind:    KindValidation,
			Code:    "missing_fields",
			Message: "El email y la contraseña son requeridos",
		}
	}
	if !ValidEmail(email) {
		return Session{}, &Error{
			Kind:    KindValidation,
			Code:    "invalid_email",
			Message: "El formato del email no es válido",
		}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return Session{}, &Error{
			Kind:    KindValidation,
			Code:    "invalid_password",
			Message: "La contraseña debe tener al menos 6 caracteres",
		}
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return Session{}, &Error{
			Kind:    KindConflict,
			Code:    "user_exists",
			Message: "Ya existe un usuario registrado con este email",
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return Session{}, ServerError("Error al procesar el registro", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return Session{}, ServerError("Error al procesar el registro", err)
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        email,
		PasswordHash: hashed,
		Provider:     types.ProviderLocal,
	})
	if err != nil {
		return Session{}, ServerError("Error al procesar el registro", err)
	}

	token, err := s.tokens.Issue(auth.Claims{UserID: user.ID, Email: user.Email})
	if err != nil {
		return Session{}, ServerError("Error al procesar el registro", err)
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return Session{Token: token, User: user}, nil
}

// Login checks local credentials. Unknown emails and wrong passwords fail
// with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, &Error{
			Kind:    KindValidation,
			Code:    "missing_fields",
			Message: "El email y la contraseña son requeridos",
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, invalidCredentials()
		}
		return Session{}, ServerError("Error al procesar el inicio de sesión", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return Session{}, invalidCredentials()
	}

	now := s.now().UTC()
	user.LastLogin = &now
	user, err = s.users.Update(ctx, user)
	if err != nil {
		return Session{}, ServerError("Error al procesar el inicio de sesión", err)
	}

	token, err := s.tokens.Issue(auth.Claims{UserID: user.ID, Email: user.Email})
	if err != nil {
		return Session{}, ServerError("Error al procesar el inicio de sesión", err)
	}

	s.log.WithField("user_id", user.ID).Info("user logged in")
	return Session{Token: token, User: user}, nil
}

// Logout revokes token. It never fails and an empty token is ignored.
func (s *AuthService) Logout(token string) {
	if token == "" {
		return
	}
	s.revoked.Revoke(token)
	s.log.Info("session closed")
}

// CurrentUser loads the account behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, id string) (types.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, &Error{
				Kind:    KindNotFound,
				Code:    "user_not_found",
				Message: "No se encontró el usuario",
			}
		}
		return types.User{}, ServerError("Error al obtener información del usuario", err)
	}
	return user, nil
}

// Authenticate validates a bearer token. Revocation is checked before the
// signature, so a revoked token reports a closed session even if it has
// also expired.
func (s *AuthService) Authenticate(token string) (auth.Claims, error) {
	if token == "" {
		return auth.Claims{}, &Error{
			Kind:    KindUnauthorized,
			Code:    "token_missing",
			Message: "Se requiere autenticación para acceder a este recurso",
		}
	}
	if s.revoked.IsRevoked(token) {
		return auth.Claims{}, &Error{
			Kind:    KindUnauthorized,
			Code:    "session_closed",
			Message: "La sesión ha sido cerrada. Por favor inicie sesión nuevamente",
		}
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return auth.Claims{}, &Error{
				Kind:    KindUnauthorized,
				Code:    "token_expired",
				Message: "La sesión ha expirado. Por favor inicie sesión nuevamente",
				Err:     err,
			}
		}
		return auth.Claims{}, &Error{
			Kind:    KindForbidden,
			Code:    "token_invalid",
			Message: "El token de autenticación no es válido",
			Err:     err,
		}
	}
	return claims, nil
}

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func invalidCredentials() *Error {
	return &Error{
		Kind:    KindUnauthorized,
		Code:    "invalid_credentials",
		Message: "Email o contraseña incorrectos",
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
