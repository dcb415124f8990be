package services

import (
	"context"
	"strconv"
	"time"

	"github.com/viajesoeste/apiserver/internal/github"
	"github.com/viajesoeste/apiserver/types"
)

// AccountLinker attaches a GitHub identity to an existing account whose email
// matches the one GitHub reported.
type AccountLinker interface {
	Link(ctx context.Context, existing types.User, profile github.Profile) (types.User, error)
}

// EmailMatchLinker links on email match alone. The account owner is not asked
// to confirm with their password.
type EmailMatchLinker struct {
	users UserRepository
	now   func() time.Time
}

func NewEmailMatchLinker(users UserRepository) *EmailMatchLinker {
	return &EmailMatchLinker{users: users, now: time.Now}
}

func (l *EmailMatchLinker) Link(ctx context.Context, existing types.User, profile github.Profile) (types.User, error) {
	now := l.now().UTC()
	existing.GitHubID = strconv.FormatInt(profile.ID, 10)
	existing.GitHubUsername = profile.Login
	existing.AvatarURL = profile.AvatarURL
	if profile.Name != "" {
		existing.Name = profile.Name
	}
	existing.LastLogin = &now
	return l.users.Update(ctx, existing)
}
