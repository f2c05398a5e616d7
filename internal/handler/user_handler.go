package handler

import (
	"net/http"

	"movie-watchlist/internal/model"
	"movie-watchlist/internal/service"
)

type UserHandler struct {
	accounts *service.AccountService
}

func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, users, nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload model.UpdateUserRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), userID, model.UserChanges{
		Username: payload.Username,
		Email:    payload.Email,
		Role:     payload.Role,
		Password: payload.Password,
	}, actorFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := h.accounts.DeleteUser(r.Context(), userID, actorFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, msg, nil)
}
