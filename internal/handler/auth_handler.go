package handler

import (
	"net/http"

	"movie-watchlist/internal/middleware"
	"movie-watchlist/internal/model"
	"movie-watchlist/internal/service"
	"movie-watchlist/pkg/apierror"
)

type AuthHandler struct {
	accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.accounts.Login(r.Context(), payload, actorFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, token, nil)
}

// Me answers with a single-element list, the shape clients of this API expect.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Unauthenticated("authentication required").Wrap(model.ErrUnauthenticated))
		return
	}

	user, err := h.accounts.Profile(r.Context(), principal.User.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, []model.PublicUser{user}, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.Unauthenticated("authentication required").Wrap(model.ErrUnauthenticated))
		return
	}

	msg, err := h.accounts.Logout(r.Context(), principal.Token, actorFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, msg, nil)
}
