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

type WatchlistRepository struct {
	pool    *pgxpool.Pool
	db      dbtx
	metrics *metrics.Metrics
}

func NewWatchlistRepository(pool *pgxpool.Pool, m *metrics.Metrics) *WatchlistRepository {
	return &WatchlistRepository{pool: pool, db: pool, metrics: m}
}

func (r *WatchlistRepository) WithinTx(ctx context.Context, fn func(store WatchlistStore) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&WatchlistRepository{pool: r.pool, db: tx, metrics: r.metrics})
	})
}

func (r *WatchlistRepository) MovieExists(ctx context.Context, movieID int64) (exists bool, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("exists_movie", start, err) }(time.Now())

	err = r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM movies WHERE id = $1)`, movieID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check movie exists: %w", err)
	}
	return exists, nil
}

func (r *WatchlistRepository) Find(ctx context.Context, userID int64, movieID int64) (e model.WatchlistEntry, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("select_watchlist_entry", start, err) }(time.Now())

	err = r.db.QueryRow(ctx,
		`SELECT id, user_id, movie_id, status, created_at
		 FROM watchlist WHERE user_id = $1 AND movie_id = $2`, userID, movieID).
		Scan(&e.ID, &e.UserID, &e.MovieID, &e.Status, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.WatchlistEntry{}, model.ErrNotInWatchlist
	}
	if err != nil {
		return model.WatchlistEntry{}, fmt.Errorf("find watchlist entry: %w", err)
	}
	return e, nil
}

func (r *WatchlistRepository) Insert(ctx context.Context, userID int64, movieID int64, status string) (e model.WatchlistEntry, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("insert_watchlist_entry", start, err) }(time.Now())

	err = r.db.QueryRow(ctx,
		`INSERT INTO watchlist (user_id, movie_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, movie_id, status, created_at`, userID, movieID, status).
		Scan(&e.ID, &e.UserID, &e.MovieID, &e.Status, &e.CreatedAt)
	if err != nil {
		switch code, _ := pgErrorCode(err); code {
		case pgUniqueViolation:
			return model.WatchlistEntry{}, model.ErrAlreadyInWatchlist
		case pgForeignKeyViolation:
			return model.WatchlistEntry{}, model.ErrMovieNotFound
		}
		return model.WatchlistEntry{}, fmt.Errorf("insert watchlist entry: %w", err)
	}
	return e, nil
}

func (r *WatchlistRepository) UpdateStatus(ctx context.Context, userID int64, movieID int64, status string) (e model.WatchlistEntry, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("update_watchlist_status", start, err) }(time.Now())

	err = r.db.QueryRow(ctx,
		`UPDATE watchlist SET status = $3
		 WHERE user_id = $1 AND movie_id = $2
		 RETURNING id, user_id, movie_id, status, created_at`, userID, movieID, status).
		Scan(&e.ID, &e.UserID, &e.MovieID, &e.Status, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.WatchlistEntry{}, model.ErrNotInWatchlist
	}
	if err != nil {
		return model.WatchlistEntry{}, fmt.Errorf("update watchlist status: %w", err)
	}
	return e, nil
}

func (r *WatchlistRepository) Delete(ctx context.Context, userID int64, movieID int64) (deleted bool, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("delete_watchlist_entry", start, err) }(time.Now())

	tag, err := r.db.Exec(ctx, `DELETE FROM watchlist WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteMany removes the listed movies from the user's watchlist and reports
// how many rows went away. Identifiers not on the list are ignored.
func (r *WatchlistRepository) DeleteMany(ctx context.Context, userID int64, movieIDs []int64) (removed int64, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("delete_watchlist_entries", start, err) }(time.Now())

	if len(movieIDs) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM watchlist WHERE user_id = $1 AND movie_id = ANY($2)`, userID, movieIDs)
	if err != nil {
		return 0, fmt.Errorf("delete watchlist entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *WatchlistRepository) List(ctx context.Context, query model.WatchlistQuery) (page model.WatchlistPage, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("list_watchlist", start, err) }(time.Now())

	column, ok := model.WatchlistSortColumns[query.SortColumn]
	if !ok {
		return model.WatchlistPage{}, model.ErrInvalidSortField
	}
	direction := "ASC"
	if query.Descending {
		direction = "DESC"
	}

	where := "WHERE w.user_id = $1"
	args := []any{query.UserID}
	if query.Status != "" {
		where += " AND w.status = $2"
		args = append(args, query.Status)
	}

	countQuery := "SELECT COUNT(*) FROM watchlist w " + where
	if err = r.db.QueryRow(ctx, countQuery, args...).Scan(&page.Total); err != nil {
		return model.WatchlistPage{}, fmt.Errorf("count watchlist: %w", err)
	}

	offset := (query.Page - 1) * query.Size
	dataQuery := fmt.Sprintf(
		`SELECT w.id, w.movie_id, m.title, w.status, w.created_at
		 FROM watchlist w
		 JOIN movies m ON m.id = w.movie_id
		 %s
		 ORDER BY %s %s, w.id %s
		 LIMIT $%d OFFSET $%d`, where, column, direction, direction, len(args)+1, len(args)+2)
	args = append(args, query.Size, offset)

	rows, err := r.db.Query(ctx, dataQuery, args...)
	if err != nil {
		return model.WatchlistPage{}, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	page.Items = make([]model.WatchlistItem, 0)
	for rows.Next() {
		var item model.WatchlistItem
		if scanErr := rows.Scan(&item.ID, &item.MovieID, &item.MovieTitle, &item.Status, &item.CreatedAt); scanErr != nil {
			err = fmt.Errorf("scan watchlist item: %w", scanErr)
			return model.WatchlistPage{}, err
		}
		page.Items = append(page.Items, item)
	}
	if err = rows.Err(); err != nil {
		return model.WatchlistPage{}, fmt.Errorf("list watchlist: %w", err)
	}
	return page, nil
}

func (r *WatchlistRepository) Summary(ctx context.Context, userID int64) (s model.WatchlistSummary, err error) {
	defer func(start time.Time) { r.metrics.ObserveDB("watchlist_summary", start, err) }(time.Now())

	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = $2),
		        COUNT(*) FILTER (WHERE status = $3)
		 FROM watchlist WHERE user_id = $1`,
		userID, model.WatchStatusToWatch, model.WatchStatusWatched).
		Scan(&s.Total, &s.ToWatch, &s.Watched)
	if err != nil {
		return model.WatchlistSummary{}, fmt.Errorf("watchlist summary: %w", err)
	}
	return s, nil
}
