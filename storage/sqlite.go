package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"courseforge/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema/sqlite/schema.sql
var sqliteSchema string

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	// Foreign keys are off by default in sqlite and the token cascade on
	// user deletion depends on them. The pragma rides on the DSN so every
	// connection the pool opens gets it, not just the first.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &SQLiteRepository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) initSchema() error {
	_, err := r.db.Exec(sqliteSchema)
	return err
}

const userColumns = `id, nickname, email, password_hash, full_name, avatar_url, bio, email_verified, created_at, updated_at`

func (r *SQLiteRepository) scanUser(row *sql.Row) (*core.User, error) {
	var user core.User
	var idStr string
	var fullName, avatarURL, bio sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&idStr,
		&user.Nickname,
		&user.Email,
		&user.PasswordHash,
		&fullName,
		&avatarURL,
		&bio,
		&user.EmailVerified,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	user.ID = uuid.MustParse(idStr)
	user.FullName = nullableString(fullName)
	user.AvatarURL = nullableString(avatarURL)
	user.Bio = nullableString(bio)
	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	user.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &user, nil
}

func (r *SQLiteRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id.String()))
}

func (r *SQLiteRepository) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLiteRepository) FindUserByNickname(ctx context.Context, nickname string) (*core.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE nickname = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, nickname))
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *core.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID.String(),
		user.Nickname,
		user.Email,
		user.PasswordHash,
		nullString(user.FullName),
		nullString(user.AvatarURL),
		nullString(user.Bio),
		user.EmailVerified,
		user.CreatedAt.Unix(),
		user.UpdatedAt.Unix(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return core.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrNotFound
	}

	return nil
}

func (r *SQLiteRepository) CreateRefreshToken(ctx context.Context, token *core.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, type, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		token.Token,
		string(token.Type),
		token.UserID.String(),
		token.CreatedAt.Unix(),
		token.ExpiresAt.Unix(),
	)
	if err != nil && isUniqueConstraintError(err) {
		return core.ErrAlreadyExists
	}

	return err
}

func (r *SQLiteRepository) FindRefreshToken(ctx context.Context, value string) (*core.RefreshToken, error) {
	query := `
		SELECT token, type, user_id, created_at, expires_at
		FROM refresh_tokens
		WHERE token = ?
	`

	var refreshToken core.RefreshToken
	var typeStr, userIDStr string
	var createdAt, expiresAt int64

	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&refreshToken.Token,
		&typeStr,
		&userIDStr,
		&createdAt,
		&expiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	refreshToken.Type = core.TokenType(typeStr)
	refreshToken.UserID = uuid.MustParse(userIDStr)
	refreshToken.CreatedAt = time.Unix(createdAt, 0).UTC()
	refreshToken.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	return &refreshToken, nil
}

func (r *SQLiteRepository) DeleteRefreshToken(ctx context.Context, value string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, value)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrNotFound
	}

	return nil
}

func (r *SQLiteRepository) DeleteAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID.String())
	return err
}

func (r *SQLiteRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, err
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return count, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "UNIQUE constraint failed") ||
		strings.Contains(errMsg, "UNIQUE") ||
		strings.Contains(errMsg, "unique")
}
