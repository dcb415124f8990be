package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viajesoeste/apiserver/types"
)

const userColumns = `id, email, password_hash, provider, github_id, github_username, avatar_url, name, created_at, last_login`

// UserRepository handles persistence for users in Postgres.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail matches case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) ORDER BY created_at LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByGitHubID(ctx context.Context, githubID string) (types.User, error) {
	if githubID == "" {
		return types.User{}, ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE github_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, githubID))
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = uuid.NewString()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		nullString(user.PasswordHash),
		user.Provider,
		nullString(user.GitHubID),
		nullString(user.GitHubUsername),
		nullString(user.AvatarURL),
		nullString(user.Name),
		user.CreatedAt,
		user.LastLogin,
	); err != nil {
		return types.User{}, translateError(err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.Email = strings.ToLower(user.Email)

	const query = `
		UPDATE users
		SET email = $1,
			password_hash = $2,
			provider = $3,
			github_id = $4,
			github_username = $5,
			avatar_url = $6,
			name = $7,
			last_login = $8
		WHERE id = $9
		RETURNING created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		nullString(user.PasswordHash),
		user.Provider,
		nullString(user.GitHubID),
		nullString(user.GitHubUsername),
		nullString(user.AvatarURL),
		nullString(user.Name),
		user.LastLogin,
		user.ID,
	).Scan(&user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, translateError(err)
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var (
		user       types.User
		password   sql.NullString
		githubID   sql.NullString
		githubUser sql.NullString
		avatar     sql.NullString
		name       sql.NullString
		lastLogin  sql.NullTime
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&password,
		&user.Provider,
		&githubID,
		&githubUser,
		&avatar,
		&name,
		&user.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	user.PasswordHash = password.String
	user.GitHubID = githubID.String
	user.GitHubUsername = githubUser.String
	user.AvatarURL = avatar.String
	user.Name = name.String
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
