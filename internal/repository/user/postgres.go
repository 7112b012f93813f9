package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"storefront-auth/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("user_repo")}
}

const userColumns = `id, user_name, password_hash, COALESCE(real_name, ''), COALESCE(email, '')`

func (r *postgresRepo) GetByName(ctx context.Context, name string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE user_name = $1`
	return r.scan(r.pool.QueryRow(ctx, q, name))
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	q := `
INSERT INTO users (user_name, password_hash, real_name, email)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
RETURNING ` + userColumns
	return r.scan(r.pool.QueryRow(ctx, q, u.UserName, u.Password, u.RealName, u.Email))
}

// Upsert creates u or replaces the hash and profile of the user with the same name.
func (r *postgresRepo) Upsert(ctx context.Context, u domain.User) (*domain.User, error) {
	q := `
INSERT INTO users (user_name, password_hash, real_name, email)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
ON CONFLICT (user_name) DO UPDATE SET
    password_hash = EXCLUDED.password_hash,
    real_name = EXCLUDED.real_name,
    email = EXCLUDED.email
RETURNING ` + userColumns
	return r.scan(r.pool.QueryRow(ctx, q, u.UserName, u.Password, u.RealName, u.Email))
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.UserName, &u.Password, &u.RealName, &u.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("scan user", zap.Error(err))
		return nil, err
	}
	return &u, nil
}
