package services

import (
	"context"

	"github.com/viajesoeste/apiserver/types"
)

// UserRepository defines persistence operations for users. Lookups return
// store.ErrNotFound when no record matches.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByGitHubID(ctx context.Context, githubID string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id string) error
}
