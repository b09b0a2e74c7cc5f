package handlers

import (
	"net/http"

	"expense-api/internal/models"
)

// Profile returns the authenticated user's profile.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request, user *models.User) {
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the supplied profile fields.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request, user *models.User) {
	var upd models.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.accounts.UpdateProfile(r.Context(), user, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// UpdatePassword changes the password after checking the current one.
func (h *Handlers) UpdatePassword(w http.ResponseWriter, r *http.Request, user *models.User) {
	var upd models.PasswordUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.accounts.UpdatePassword(r.Context(), user, upd); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "Password updated successfully")
}

// DeleteAccount removes the user and all of their expenses.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := h.accounts.DeleteAccount(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "Account deleted successfully")
}
