package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmakri/userhub/internal/domain/user"
	"github.com/nmakri/userhub/internal/observability"
	"github.com/nmakri/userhub/internal/users"
)

const uniqueViolation = "23505"

// UsersRepo implements users.Repository over a pgx pool. Uniqueness of
// username and email is enforced by the users table constraints, so under a
// concurrent duplicate save exactly the losing writer gets ErrAlreadyExists.
type UsersRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, metrics *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, metrics: metrics}
}

func (r *UsersRepo) Save(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         "user",
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	u.UpdatedAt = u.CreatedAt

	err := r.metrics.ObserveDB("users.save", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, username, email, password_hash, role, is_active, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.Active, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.User{}, users.ErrAlreadyExists
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.get(ctx, "users.get_by_email", `WHERE email = $1`, email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.get(ctx, "users.get_by_id", `WHERE id = $1`, id)
}

func (r *UsersRepo) get(ctx context.Context, op, where string, arg any) (user.User, error) {
	var u user.User

	err := r.metrics.ObserveDB(op, func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, username, email, password_hash, role, is_active, created_at, updated_at
			 FROM users `+where,
			arg,
		).Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.Role,
			&u.Active,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, users.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}
