package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"movie-watchlist/internal/metrics"
	"movie-watchlist/internal/model"
)

const userColumns = `id, username, email, password_hash, role, status, created_at, updated_at`

type UserRepository struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

func NewUserRepository(pool *pgxpool.Pool, m *metrics.Metrics) *UserRepository {
	return &UserRepository{pool: pool, metrics: m}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (u model.User, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("select_user_by_id", start, err) }(time.Now())

	u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (u model.User, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("select_user_by_email", start, err) }(time.Now())

	u, err = scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// EmailTaken reports whether another identity than excludeID already uses email.
// Pass 0 to check against every identity.
func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (taken bool, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("exists_user_email", start, err) }(time.Now())

	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)`,
		strings.TrimSpace(email), excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return taken, nil
}

func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID int64) (taken bool, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("exists_user_username", start, err) }(time.Now())

	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND id <> $2)`,
		strings.TrimSpace(username), excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return taken, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (created model.User, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("insert_user", start, err) }(time.Now())

	created, err = scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.Role, u.Status, u.CreatedAt, u.UpdatedAt))
	if err != nil {
		if mapped := userConstraintError(err); mapped != nil {
			return model.User{}, mapped
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) Update(ctx context.Context, u model.User) (updated model.User, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("update_user", start, err) }(time.Now())

	updated, err = scanUser(r.pool.QueryRow(ctx,
		`UPDATE users
		 SET username = $2, email = $3, password_hash = $4, role = $5, updated_at = $6
		 WHERE id = $1
		 RETURNING `+userColumns,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.UpdatedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		if mapped := userConstraintError(err); mapped != nil {
			return model.User{}, mapped
		}
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// Delete removes the identity; login sessions and watchlist entries go with it
// through ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id int64) (deleted model.DeletedUser, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("delete_user", start, err) }(time.Now())

	err = r.pool.QueryRow(ctx,
		`DELETE FROM users WHERE id = $1 RETURNING id, username, email`, id).
		Scan(&deleted.ID, &deleted.Username, &deleted.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.DeletedUser{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.DeletedUser{}, fmt.Errorf("delete user: %w", err)
	}
	return deleted, nil
}

func (r *UserRepository) List(ctx context.Context) (users []model.User, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("list_users", start, err) }(time.Now())

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users = make([]model.User, 0)
	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			err = fmt.Errorf("scan user: %w", scanErr)
			return nil, err
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func userConstraintError(err error) error {
	code, constraint := pgErrorCode(err)
	if code != pgUniqueViolation {
		return nil
	}
	if strings.Contains(constraint, "username") {
		return model.ErrDuplicateUsername
	}
	return model.ErrDuplicateEmail
}
