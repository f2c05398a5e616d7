package handler

import (
	"net/http"
	"strconv"
	"strings"

	"movie-watchlist/internal/middleware"
	"movie-watchlist/internal/model"
	"movie-watchlist/internal/service"
	"movie-watchlist/pkg/apierror"
)

const totalCountHeader = "X-Total-Count"

type WatchlistHandler struct {
	watchlist *service.WatchlistService
}

func NewWatchlistHandler(watchlist *service.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{watchlist: watchlist}
}

func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	movieID, err := pathID(r, "movieId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload model.WatchlistStatusRequest
	if err := decodeJSON(r, &payload, true); err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.watchlist.Add(r.Context(), userID, []int64{movieID}, payload.Status, actorFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, entries, nil)
}

func (h *WatchlistHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	movieID, err := pathID(r, "movieId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload model.WatchlistStatusRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.watchlist.UpdateStatus(r.Context(), userID, movieID, payload.Status, actorFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, entry, nil)
}

// List answers with the page items only; the total goes in X-Total-Count.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	descending := true
	if raw := strings.TrimSpace(query.Get("desc")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, apierror.InvalidInput("desc must be a boolean", raw).Wrap(model.ErrInvalidInput))
			return
		}
		descending = parsed
	}

	page, err := h.watchlist.List(r.Context(), userID, service.ListParams{
		Status:     query.Get("status_filter"),
		Sort:       query.Get("sort"),
		Descending: descending,
		Page:       parseIntOrDefault(query.Get("page"), 1),
		Size:       parseIntOrDefault(query.Get("size"), 10),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set(totalCountHeader, strconv.Itoa(page.Total))
	writeSuccess(w, http.StatusOK, page.Items, nil)
}

func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	movieID, err := pathID(r, "movieId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := h.watchlist.Remove(r.Context(), userID, movieID, actorFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, msg, nil)
}

// RemoveBulk takes a JSON array of movie ids.
func (h *WatchlistHandler) RemoveBulk(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var movieIDs []int64
	if err := decodeJSON(r, &movieIDs, true); err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := h.watchlist.RemoveBulk(r.Context(), userID, movieIDs, actorFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, msg, nil)
}

func (h *WatchlistHandler) Exists(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	movieID, err := pathID(r, "movieId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	presence, err := h.watchlist.Exists(r.Context(), userID, movieID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, presence, nil)
}

func (h *WatchlistHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	summary, err := h.watchlist.Summary(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, summary, nil)
}

func (h *WatchlistHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Unauthenticated("authentication required").Wrap(model.ErrUnauthenticated))
		return 0, false
	}
	return principal.User.ID, true
}
