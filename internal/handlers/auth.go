package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
)

// Register creates an account and returns a token for it.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Login exchanges credentials for a token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Validate reports whether the bearer token is live.
func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, r, apperr.New(apperr.KindInvalidToken, "Invalid or expired token"))
		return
	}
	status, err := h.accounts.ValidateToken(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// CheckUsername reports whether a username is free.
func (h *Handlers) CheckUsername(w http.ResponseWriter, r *http.Request) {
	available, err := h.accounts.UsernameAvailable(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// CheckEmail reports whether an email is free.
func (h *Handlers) CheckEmail(w http.ResponseWriter, r *http.Request) {
	available, err := h.accounts.EmailAvailable(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}
