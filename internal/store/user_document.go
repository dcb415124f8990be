package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viajesoeste/apiserver/internal/storage"
	"github.com/viajesoeste/apiserver/types"
)

const usersDocumentKey = "users.json"

// userRecord is the persisted form of types.User. Unlike the API form it
// keeps the password hash.
type userRecord struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"passwordHash,omitempty"`
	Provider       string     `json:"provider"`
	GitHubID       string     `json:"githubId,omitempty"`
	GitHubUsername string     `json:"githubUsername,omitempty"`
	AvatarURL      string     `json:"avatarUrl,omitempty"`
	Name           string     `json:"name,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastLogin      *time.Time `json:"lastLogin"`
}

type usersFile struct {
	Users []userRecord `json:"users"`
}

func toUserRecord(u types.User) userRecord {
	return userRecord(u)
}

func (r userRecord) user() types.User {
	return types.User(r)
}

// DocumentUserRepository persists users in a single JSON document.
type DocumentUserRepository struct {
	doc *document[usersFile]
}

func NewDocumentUserRepository(s *storage.Storage) *DocumentUserRepository {
	return &DocumentUserRepository{
		doc: newDocument(s, usersDocumentKey, func() usersFile {
			return usersFile{Users: []userRecord{}}
		}),
	}
}

func (r *DocumentUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	return r.find(ctx, func(u userRecord) bool { return u.ID == id })
}

// GetByEmail matches case-insensitively.
func (r *DocumentUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.find(ctx, func(u userRecord) bool { return strings.EqualFold(u.Email, email) })
}

func (r *DocumentUserRepository) GetByGitHubID(ctx context.Context, githubID string) (types.User, error) {
	if githubID == "" {
		return types.User{}, ErrNotFound
	}
	return r.find(ctx, func(u userRecord) bool { return u.GitHubID == githubID })
}

func (r *DocumentUserRepository) List(ctx context.Context) ([]types.User, error) {
	file, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]types.User, 0, len(file.Users))
	for _, rec := range file.Users {
		users = append(users, rec.user())
	}
	return users, nil
}

// Create assigns the id and creation time and stores the user.
func (r *DocumentUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	file, err := r.doc.load(ctx)
	if err != nil {
		return types.User{}, err
	}

	user.ID = uuid.NewString()
	if githubIDTaken(file.Users, user) {
		return types.User{}, ErrDuplicate
	}
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now().UTC()

	file.Users = append(file.Users, toUserRecord(user))
	if err := r.doc.save(ctx, file); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Update replaces the stored user with the same id.
func (r *DocumentUserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	file, err := r.doc.load(ctx)
	if err != nil {
		return types.User{}, err
	}

	if githubIDTaken(file.Users, user) {
		return types.User{}, ErrDuplicate
	}
	for i := range file.Users {
		if file.Users[i].ID != user.ID {
			continue
		}
		user.Email = strings.ToLower(user.Email)
		user.CreatedAt = file.Users[i].CreatedAt
		file.Users[i] = toUserRecord(user)
		if err := r.doc.save(ctx, file); err != nil {
			return types.User{}, err
		}
		return user, nil
	}
	return types.User{}, ErrNotFound
}

func (r *DocumentUserRepository) Delete(ctx context.Context, id string) error {
	file, err := r.doc.load(ctx)
	if err != nil {
		return err
	}

	for i := range file.Users {
		if file.Users[i].ID == id {
			file.Users = append(file.Users[:i], file.Users[i+1:]...)
			return r.doc.save(ctx, file)
		}
	}
	return ErrNotFound
}

func (r *DocumentUserRepository) find(ctx context.Context, match func(userRecord) bool) (types.User, error) {
	file, err := r.doc.load(ctx)
	if err != nil {
		return types.User{}, err
	}
	for _, rec := range file.Users {
		if match(rec) {
			return rec.user(), nil
		}
	}
	return types.User{}, ErrNotFound
}

// githubIDTaken reports whether another stored user already carries user's
// GitHub id.
func githubIDTaken(records []userRecord, user types.User) bool {
	if user.GitHubID == "" {
		return false
	}
	for _, rec := range records {
		if rec.GitHubID == user.GitHubID && rec.ID != user.ID {
			return true
		}
	}
	return false
}
