package types

import "time"

// Authentication providers a user account can originate from.
const (
	ProviderLocal  = "local"
	ProviderGitHub = "github"
)

// User represents an account in the system.
// It contains identity, linked provider metadata, and audit timestamps.
type User struct {
	// ID is the opaque unique identifier of the user, generated at creation.
	ID string `json:"id" db:"id"`

	// Email is the lower-cased email address. It is the lookup key for
	// local accounts.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// Only local accounts carry one. This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Provider is the flow that created the account ("local" or "github").
	Provider string `json:"provider" db:"provider"`

	// GitHubID is the numeric GitHub user id, as a string, once linked.
	GitHubID string `json:"githubId,omitempty" db:"github_id"`

	// GitHubUsername is the GitHub login, refreshed on every OAuth login.
	GitHubUsername string `json:"githubUsername,omitempty" db:"github_username"`

	// AvatarURL is the GitHub avatar, refreshed on every OAuth login.
	AvatarURL string `json:"avatarUrl,omitempty" db:"avatar_url"`

	// Name is the display name taken from GitHub.
	Name string `json:"name,omitempty" db:"name"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// LastLogin is the timestamp of the most recent successful authentication.
	LastLogin *time.Time `json:"lastLogin" db:"last_login"`
}

// HasPassword reports whether the account can use the local login flow.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

// HasGitHub reports whether a GitHub identity is linked to the account.
func (u User) HasGitHub() bool {
	return u.GitHubID != ""
}
