package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
)

// ListExpenses returns every expense of the user.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request, user *models.User) {
	list, err := h.expenses.List(r.Context(), user.ID)
	writeList(w, r, list, err)
}

// GetExpense returns one expense of the user.
func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := expenseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.expenses.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateExpense stores a new expense owned by the user.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request, user *models.User) {
	var in models.ExpenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.expenses.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// UpdateExpense replaces an expense of the user.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := expenseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in models.ExpenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.expenses.Update(r.Context(), user.ID, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteExpense removes an expense of the user.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := expenseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.expenses.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "Expense deleted successfully")
}

// ExpensesByCategory returns the user's expenses in one category.
func (h *Handlers) ExpensesByCategory(w http.ResponseWriter, r *http.Request, user *models.User) {
	list, err := h.expenses.ByCategory(r.Context(), user.ID, mux.Vars(r)["category"])
	writeList(w, r, list, err)
}

// ExpensesByDateRange returns the user's expenses between startDate and endDate inclusive.
func (h *Handlers) ExpensesByDateRange(w http.ResponseWriter, r *http.Request, user *models.User) {
	start, err := dateParam(r, "startDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := dateParam(r, "endDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.expenses.ByDateRange(r.Context(), user.ID, start, end)
	writeList(w, r, list, err)
}

// CurrentMonthExpenses returns the user's expenses in the current calendar month.
func (h *Handlers) CurrentMonthExpenses(w http.ResponseWriter, r *http.Request, user *models.User) {
	list, err := h.expenses.CurrentMonth(r.Context(), user.ID)
	writeList(w, r, list, err)
}

func writeList(w http.ResponseWriter, r *http.Request, list []models.Expense, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Expense{}
	}
	writeJSON(w, http.StatusOK, list)
}

// expenseID parses the {id} route variable. Ids that do not fit are reported
// as not found, like any other id the user does not own.
func expenseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.KindNotFound, "Expense not found")
	}
	return id, nil
}

func dateParam(r *http.Request, name string) (models.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return models.Date{}, apperr.Validation("%s is required", name)
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, apperr.Validation("%s must be in %s format", name, models.DateLayout)
	}
	return d, nil
}
