package middleware

import (
	"encoding/json"
	"net/http"

	"movie-watchlist/internal/model"
	"movie-watchlist/pkg/apierror"
)

func jsonEncode(w http.ResponseWriter, value any) error {
	return json.NewEncoder(w).Encode(value)
}

func writeJSONError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}

func writeAPIError(w http.ResponseWriter, err *apierror.APIError) {
	writeJSONError(w, err.HTTPStatus, err.Code, err.Message)
}
