package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"movie-watchlist/internal/model"
	"movie-watchlist/internal/repository"
	"movie-watchlist/pkg/apierror"
)

const (
	defaultWatchlistPage     = 1
	defaultWatchlistPageSize = 10
	maxWatchlistPageSize     = 100
	defaultWatchlistSort     = "created_at"
)

type WatchlistService struct {
	store repository.WatchlistStore
	audit *AuditService
}

func NewWatchlistService(store repository.WatchlistStore, audit *AuditService) *WatchlistService {
	return &WatchlistService{store: store, audit: audit}
}

// ListParams is the raw listing request. Zero values select the defaults.
type ListParams struct {
	Status     string
	Sort       string
	Descending bool
	Page       int
	Size       int
}

// Add puts every movie on the user's watchlist in one transaction. The first
// failing movie aborts the call and rolls back the entries added before it.
func (s *WatchlistService) Add(ctx context.Context, userID int64, movieIDs []int64, status string, actor model.AuditActor) ([]model.WatchlistEntry, error) {
	entries, err := s.add(ctx, userID, movieIDs, status)
	s.audit.Outcome(ctx, "watchlist_add", actor, watchlistResource(userID, movieIDs...), entries, err)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *WatchlistService) add(ctx context.Context, userID int64, movieIDs []int64, status string) ([]model.WatchlistEntry, error) {
	if len(movieIDs) == 0 {
		return nil, apierror.InvalidInput("at least one movie id is required", "").Wrap(model.ErrInvalidInput)
	}

	status, err := normalizeWatchStatus(status, model.WatchStatusToWatch)
	if err != nil {
		return nil, err
	}

	entries := make([]model.WatchlistEntry, 0, len(movieIDs))
	err = s.store.WithinTx(ctx, func(tx repository.WatchlistStore) error {
		for _, movieID := range movieIDs {
			_, findErr := tx.Find(ctx, userID, movieID)
			if findErr == nil {
				return alreadyInWatchlist(movieID)
			}
			if !errors.Is(findErr, model.ErrNotInWatchlist) {
				return findErr
			}

			exists, existsErr := tx.MovieExists(ctx, movieID)
			if existsErr != nil {
				return existsErr
			}
			if !exists {
				return movieNotFound(movieID)
			}

			entry, insertErr := tx.Insert(ctx, userID, movieID, status)
			if insertErr != nil {
				return translateWatchlistError(insertErr, movieID)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *WatchlistService) UpdateStatus(ctx context.Context, userID int64, movieID int64, status string, actor model.AuditActor) (model.WatchlistEntry, error) {
	entry, err := s.updateStatus(ctx, userID, movieID, status)
	s.audit.Outcome(ctx, "watchlist_update", actor, watchlistResource(userID, movieID), entry, err)
	return entry, err
}

func (s *WatchlistService) updateStatus(ctx context.Context, userID int64, movieID int64, status string) (model.WatchlistEntry, error) {
	if strings.TrimSpace(status) == "" {
		return model.WatchlistEntry{}, apierror.InvalidInput("status is required", "status").Wrap(model.ErrInvalidStatus)
	}
	status, err := normalizeWatchStatus(status, "")
	if err != nil {
		return model.WatchlistEntry{}, err
	}

	entry, err := s.store.UpdateStatus(ctx, userID, movieID, status)
	if err != nil {
		return model.WatchlistEntry{}, translateWatchlistError(err, movieID)
	}
	return entry, nil
}

func (s *WatchlistService) Remove(ctx context.Context, userID int64, movieID int64, actor model.AuditActor) (model.MessageResponse, error) {
	deleted, err := s.store.Delete(ctx, userID, movieID)
	if err == nil && !deleted {
		err = notInWatchlist(movieID)
	}
	s.audit.Outcome(ctx, "watchlist_remove", actor, watchlistResource(userID, movieID), nil, err)
	if err != nil {
		return model.MessageResponse{}, err
	}
	return model.MessageResponse{Message: "movie removed from watchlist"}, nil
}

// RemoveBulk deletes the matching entries in one statement. Identifiers that
// are not on the watchlist are ignored.
func (s *WatchlistService) RemoveBulk(ctx context.Context, userID int64, movieIDs []int64, actor model.AuditActor) (model.MessageResponse, error) {
	removed, err := s.store.DeleteMany(ctx, userID, movieIDs)
	s.audit.Outcome(ctx, "watchlist_remove_bulk", actor, watchlistResource(userID, movieIDs...), map[string]any{"removed": removed}, err)
	if err != nil {
		return model.MessageResponse{}, err
	}
	return model.MessageResponse{Message: "movies removed from watchlist"}, nil
}

func (s *WatchlistService) List(ctx context.Context, userID int64, params ListParams) (model.WatchlistPage, error) {
	query, err := buildWatchlistQuery(userID, params)
	if err != nil {
		return model.WatchlistPage{}, err
	}
	return s.store.List(ctx, query)
}

// Exists never reports a missing entry as an error.
func (s *WatchlistService) Exists(ctx context.Context, userID int64, movieID int64) (model.WatchlistPresence, error) {
	entry, err := s.store.Find(ctx, userID, movieID)
	if errors.Is(err, model.ErrNotInWatchlist) {
		return model.WatchlistPresence{InWatchlist: false}, nil
	}
	if err != nil {
		return model.WatchlistPresence{}, err
	}
	return model.WatchlistPresence{InWatchlist: true, Status: entry.Status}, nil
}

func (s *WatchlistService) Summary(ctx context.Context, userID int64) (model.WatchlistSummary, error) {
	return s.store.Summary(ctx, userID)
}

func buildWatchlistQuery(userID int64, params ListParams) (model.WatchlistQuery, error) {
	sort := strings.TrimSpace(params.Sort)
	if sort == "" {
		sort = defaultWatchlistSort
	}
	if _, ok := model.WatchlistSortColumns[sort]; !ok {
		return model.WatchlistQuery{}, apierror.InvalidInput("invalid sort field", sort).Wrap(model.ErrInvalidSortField)
	}

	status := strings.TrimSpace(params.Status)
	if status != "" {
		var err error
		if status, err = normalizeWatchStatus(status, ""); err != nil {
			return model.WatchlistQuery{}, err
		}
	}

	page := params.Page
	if page < 1 {
		page = defaultWatchlistPage
	}
	size := params.Size
	if size < 1 {
		size = defaultWatchlistPageSize
	}
	if size > maxWatchlistPageSize {
		size = maxWatchlistPageSize
	}

	return model.WatchlistQuery{
		UserID:     userID,
		Status:     status,
		SortColumn: sort,
		Descending: params.Descending,
		Page:       page,
		Size:       size,
	}, nil
}

// normalizeWatchStatus returns fallback for an empty status and rejects
// anything outside the known statuses.
func normalizeWatchStatus(raw string, fallback string) (string, error) {
	status := strings.TrimSpace(raw)
	if status == "" {
		return fallback, nil
	}
	if !model.IsValidWatchStatus(status) {
		return "", apierror.InvalidInput("status must be 'To Watch' or 'Watched'", status).Wrap(model.ErrInvalidStatus)
	}
	return status, nil
}

func translateWatchlistError(err error, movieID int64) error {
	switch {
	case errors.Is(err, model.ErrAlreadyInWatchlist):
		return alreadyInWatchlist(movieID)
	case errors.Is(err, model.ErrMovieNotFound):
		return movieNotFound(movieID)
	case errors.Is(err, model.ErrNotInWatchlist):
		return notInWatchlist(movieID)
	default:
		return err
	}
}

func alreadyInWatchlist(movieID int64) error {
	return apierror.Conflict("movie already in watchlist", strconv.FormatInt(movieID, 10)).Wrap(model.ErrAlreadyInWatchlist)
}

func movieNotFound(movieID int64) error {
	return apierror.NotFound("movie not found", strconv.FormatInt(movieID, 10)).Wrap(model.ErrMovieNotFound)
}

func notInWatchlist(movieID int64) error {
	return apierror.NotFound("movie not in watchlist", strconv.FormatInt(movieID, 10)).Wrap(model.ErrNotInWatchlist)
}

func watchlistResource(userID int64, movieIDs ...int64) string {
	ids := make([]string, 0, len(movieIDs))
	for _, id := range movieIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return "watchlist:" + strconv.FormatInt(userID, 10) + ":" + strings.Join(ids, ",")
}
