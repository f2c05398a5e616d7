package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"movie-watchlist/internal/metrics"
	"movie-watchlist/internal/model"
)

type SessionRepository struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

func NewSessionRepository(pool *pgxpool.Pool, m *metrics.Metrics) *SessionRepository {
	return &SessionRepository{pool: pool, metrics: m}
}

func (r *SessionRepository) Create(ctx context.Context, s model.LoginSession) (created model.LoginSession, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("insert_login_session", start, err) }(time.Now())

	err = r.pool.QueryRow(ctx,
		`INSERT INTO user_logins (user_id, token, status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, token, status, created_at, expires_at`,
		s.UserID, s.Token, s.Status, s.CreatedAt, s.ExpiresAt).
		Scan(&created.ID, &created.UserID, &created.Token, &created.Status, &created.CreatedAt, &created.ExpiresAt)
	if err != nil {
		return model.LoginSession{}, fmt.Errorf("store login session: %w", err)
	}
	return created, nil
}

func (r *SessionRepository) FindByToken(ctx context.Context, token string) (s model.LoginSession, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("select_login_session_by_token", start, err) }(time.Now())

	err = r.pool.QueryRow(ctx,
		`SELECT id, user_id, token, status, created_at, expires_at
		 FROM user_logins WHERE token = $1`, token).
		Scan(&s.ID, &s.UserID, &s.Token, &s.Status, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LoginSession{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.LoginSession{}, fmt.Errorf("find login session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) UpdateStatus(ctx context.Context, id int64, status string) (err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("update_login_session_status", start, err) }(time.Now())

	tag, err := r.pool.Exec(ctx, `UPDATE user_logins SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update login session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		err = model.ErrSessionNotFound
		return err
	}
	return nil
}
