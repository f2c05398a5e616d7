package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"movie-watchlist/internal/model"
)

// Postgres SQLSTATE codes the repositories translate into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id int64) (model.DeletedUser, error)
	List(ctx context.Context) ([]model.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, s model.LoginSession) (model.LoginSession, error)
	FindByToken(ctx context.Context, token string) (model.LoginSession, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type WatchlistStore interface {
	// WithinTx runs fn against a store bound to one transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(store WatchlistStore) error) error
	MovieExists(ctx context.Context, movieID int64) (bool, error)
	Find(ctx context.Context, userID int64, movieID int64) (model.WatchlistEntry, error)
	Insert(ctx context.Context, userID int64, movieID int64, status string) (model.WatchlistEntry, error)
	UpdateStatus(ctx context.Context, userID int64, movieID int64, status string) (model.WatchlistEntry, error)
	Delete(ctx context.Context, userID int64, movieID int64) (bool, error)
	DeleteMany(ctx context.Context, userID int64, movieIDs []int64) (int64, error)
	List(ctx context.Context, query model.WatchlistQuery) (model.WatchlistPage, error)
	Summary(ctx context.Context, userID int64) (model.WatchlistSummary, error)
}

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

func pgErrorCode(err error) (code string, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}
