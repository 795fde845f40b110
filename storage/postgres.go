package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"courseforge/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	if err := migrate(dsn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.Up(db, "migrations")
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const pgUserColumns = `id, nickname, email, password_hash, full_name, avatar_url, bio, email_verified, created_at, updated_at`

func (r *PostgresRepository) scanUser(row pgx.Row) (*core.User, error) {
	var user core.User

	err := row.Scan(
		&user.ID,
		&user.Nickname,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.AvatarURL,
		&user.Bio,
		&user.EmailVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	query := `SELECT ` + pgUserColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	query := `SELECT ` + pgUserColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresRepository) FindUserByNickname(ctx context.Context, nickname string) (*core.User, error) {
	query := `SELECT ` + pgUserColumns + ` FROM users WHERE nickname = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, nickname))
}

func (r *PostgresRepository) CreateUser(ctx context.Context, user *core.User) error {
	query := `
		INSERT INTO users (` + pgUserColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Nickname,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.AvatarURL,
		user.Bio,
		user.EmailVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return core.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateRefreshToken(ctx context.Context, token *core.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, type, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		token.Token,
		string(token.Type),
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return core.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (r *PostgresRepository) FindRefreshToken(ctx context.Context, value string) (*core.RefreshToken, error) {
	query := `
		SELECT token, type, user_id, created_at, expires_at
		FROM refresh_tokens
		WHERE token = $1
	`

	var refreshToken core.RefreshToken
	var typeStr string

	err := r.pool.QueryRow(ctx, query, value).Scan(
		&refreshToken.Token,
		&typeStr,
		&refreshToken.UserID,
		&refreshToken.CreatedAt,
		&refreshToken.ExpiresAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	refreshToken.Type = core.TokenType(typeStr)

	return &refreshToken, nil
}

func (r *PostgresRepository) DeleteRefreshToken(ctx context.Context, value string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, value)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

func (r *PostgresRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
