package model

import "time"

const (
	WatchStatusToWatch = "To Watch"
	WatchStatusWatched = "Watched"
)

func IsValidWatchStatus(status string) bool {
	return status == WatchStatusToWatch || status == WatchStatusWatched
}

type WatchlistEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type WatchlistItem struct {
	ID         int64     `json:"id"`
	MovieID    int64     `json:"movie_id"`
	MovieTitle string    `json:"movie_title"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// WatchlistQuery is validated by the service before it reaches the repository:
// SortColumn is always one of the fixed columns in WatchlistSortColumns.
type WatchlistQuery struct {
	UserID     int64
	Status     string
	SortColumn string
	Descending bool
	Page       int
	Size       int
}

// WatchlistSortColumns maps the accepted sort fields to their columns.
var WatchlistSortColumns = map[string]string{
	"id":         "w.id",
	"movie_id":   "w.movie_id",
	"status":     "w.status",
	"created_at": "w.created_at",
}

type WatchlistPage struct {
	Total int             `json:"total"`
	Items []WatchlistItem `json:"items"`
}

type WatchlistPresence struct {
	InWatchlist bool   `json:"inWatchlist"`
	Status      string `json:"status,omitempty"`
}

type WatchlistSummary struct {
	Total   int `json:"total_movies"`
	ToWatch int `json:"to_watch"`
	Watched int `json:"watched"`
}
