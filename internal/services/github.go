package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viajesoeste/apiserver/internal/auth"
	"github.com/viajesoeste/apiserver/internal/github"
	"github.com/viajesoeste/apiserver/internal/store"
	"github.com/viajesoeste/apiserver/types"
	"golang.org/x/oauth2"
)

const (
	placeholderEmailDomain = "github.local"
	githubFailureMessage   = "Error al procesar la autenticación con GitHub"
)

// GitHubProvider is the subset of github.Client used by the login flow.
type GitHubProvider interface {
	Configured() bool
	AuthCodeURL() string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUser(ctx context.Context, token *oauth2.Token) (github.Profile, error)
	FetchEmails(ctx context.Context, token *oauth2.Token) ([]github.Email, error)
}

// GitHubLogin is the outcome of a successful callback. Name and AvatarURL
// prefer the stored account and fall back to the GitHub profile.
type GitHubLogin struct {
	Token          string
	User           types.User
	Name           string
	AvatarURL      string
	GitHubUsername string
}

// GitHubAuthService implements login through the GitHub authorization-code
// flow.
type GitHubAuthService struct {
	provider GitHubProvider
	users    UserRepository
	linker   AccountLinker
	tokens   *auth.TokenIssuer
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewGitHubAuthService(
	provider GitHubProvider,
	users UserRepository,
	linker AccountLinker,
	tokens *auth.TokenIssuer,
	log logrus.FieldLogger,
) *GitHubAuthService {
	return &GitHubAuthService{
		provider: provider,
		users:    users,
		linker:   linker,
		tokens:   tokens,
		log:      log.WithField("component", "github_auth"),
		now:      time.Now,
	}
}

// AuthorizationURL returns the GitHub URL the browser should visit.
func (s *GitHubAuthService) AuthorizationURL() (string, error) {
	if !s.provider.Configured() {
		return "", &Error{
			Kind:    KindMisconfigured,
			Code:    "github_not_configured",
			Message: "GitHub OAuth no está configurado correctamente",
		}
	}
	return s.provider.AuthCodeURL(), nil
}

// HandleCallback exchanges code, resolves the local account and issues a
// session token.
func (s *GitHubAuthService) HandleCallback(ctx context.Context, code string) (GitHubLogin, error) {
	if code == "" {
		return GitHubLogin{}, &Error{
			Kind:    KindValidation,
			Code:    "missing_code",
			Message: "No se recibió el código de autorización de GitHub",
		}
	}

	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		var providerErr *github.ProviderError
		if errors.As(err, &providerErr) {
			message := providerErr.Description
			if message == "" {
				message = "No se pudo autenticar con GitHub"
			}
			s.log.WithField("code", providerErr.Code).Warn("github rejected authorization code")
			return GitHubLogin{}, &Error{Kind: KindUpstreamAuth, Message: message, Err: err}
		}
		s.log.WithError(err).Error("github code exchange failed")
		return GitHubLogin{}, newError(KindUpstream, githubFailureMessage, err)
	}

	profile, err := s.provider.FetchUser(ctx, token)
	if err != nil {
		s.log.WithError(err).Error("failed to fetch github user")
		return GitHubLogin{}, newError(KindUpstream, githubFailureMessage, err)
	}

	email := profile.Email
	if email == "" {
		emails, err := s.provider.FetchEmails(ctx, token)
		switch {
		case err == nil:
			email = github.PrimaryEmail(emails)
		case errors.Is(err, github.ErrUnexpectedStatus):
			s.log.WithError(err).WithField("login", profile.Login).Warn("github emails unavailable")
		default:
			s.log.WithError(err).Error("failed to fetch github emails")
			return GitHubLogin{}, newError(KindUpstream, githubFailureMessage, err)
		}
	}

	user, err := s.resolve(ctx, profile, email)
	if err != nil {
		return GitHubLogin{}, err
	}

	signed, err := s.tokens.Issue(auth.Claims{
		UserID:         user.ID,
		Email:          user.Email,
		Provider:       types.ProviderGitHub,
		GitHubUsername: profile.Login,
	})
	if err != nil {
		return GitHubLogin{}, ServerError(githubFailureMessage, err)
	}

	return GitHubLogin{
		Token:          signed,
		User:           user,
		Name:           firstNonEmpty(user.Name, profile.Name, profile.Login),
		AvatarURL:      firstNonEmpty(user.AvatarURL, profile.AvatarURL),
		GitHubUsername: profile.Login,
	}, nil
}

// resolve finds the account for profile by GitHub id, then by email, and
// creates one if neither matches.
func (s *GitHubAuthService) resolve(ctx context.Context, profile github.Profile, email string) (types.User, error) {
	githubID := strconv.FormatInt(profile.ID, 10)
	log := s.log.WithField("login", profile.Login)

	user, err := s.users.GetByGitHubID(ctx, githubID)
	switch {
	case err == nil:
		now := s.now().UTC()
		user.GitHubUsername = profile.Login
		user.AvatarURL = profile.AvatarURL
		if profile.Name != "" {
			user.Name = profile.Name
		}
		user.LastLogin = &now
		user, err = s.users.Update(ctx, user)
		if err != nil {
			return types.User{}, ServerError(githubFailureMessage, err)
		}
		log.WithField("user_id", user.ID).Info("github user logged in")
		return user, nil
	case !errors.Is(err, store.ErrNotFound):
		return types.User{}, ServerError(githubFailureMessage, err)
	}

	if email != "" {
		existing, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			user, err := s.linker.Link(ctx, existing, profile)
			if err != nil {
				return types.User{}, ServerError(githubFailureMessage, err)
			}
			log.WithField("user_id", user.ID).Info("github identity linked to existing account")
			return user, nil
		case !errors.Is(err, store.ErrNotFound):
			return types.User{}, ServerError(githubFailureMessage, err)
		}
	}

	if email == "" {
		email = profile.Login + "@" + placeholderEmailDomain
	}
	now := s.now().UTC()
	user, err = s.users.Create(ctx, types.User{
		Email:          email,
		Provider:       types.ProviderGitHub,
		GitHubID:       githubID,
		GitHubUsername: profile.Login,
		AvatarURL:      profile.AvatarURL,
		Name:           firstNonEmpty(profile.Name, profile.Login),
		LastLogin:      &now,
	})
	if errors.Is(err, store.ErrDuplicate) {
		// A concurrent callback created the account first.
		user, err = s.users.GetByGitHubID(ctx, githubID)
		if err != nil {
			return types.User{}, ServerError(githubFailureMessage, err)
		}
		return user, nil
	}
	if err != nil {
		return types.User{}, ServerError(githubFailureMessage, err)
	}
	log.WithField("user_id", user.ID).Info("user created from github")
	return user, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
