package handlers

import (
	"errors"
	"net/http"

	"expense-api/internal/charts"
	"expense-api/internal/models"
)

// Statistics returns totals, count and average of the user's expenses.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request, user *models.User) {
	stats, err := h.expenses.Statistics(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// CategoryChart returns category to total.
func (h *Handlers) CategoryChart(w http.ResponseWriter, r *http.Request, user *models.User) {
	totals, err := h.expenses.CategoryTotals(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// MonthlyChart returns "YYYY-MM" to total in ascending month order.
func (h *Handlers) MonthlyChart(w http.ResponseWriter, r *http.Request, user *models.User) {
	totals, err := h.expenses.MonthlyTotals(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// CategoryChartPNG renders the category totals as a pie chart.
func (h *Handlers) CategoryChartPNG(w http.ResponseWriter, r *http.Request, user *models.User) {
	totals, err := h.expenses.CategoryBreakdown(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	img, err := h.charts.CategoryPie(totals)
	writePNG(w, r, img, err)
}

// MonthlyChartPNG renders the monthly totals as a bar chart.
func (h *Handlers) MonthlyChartPNG(w http.ResponseWriter, r *http.Request, user *models.User) {
	totals, err := h.expenses.MonthlyTotals(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	img, err := h.charts.MonthlyBar(totals)
	writePNG(w, r, img, err)
}

func writePNG(w http.ResponseWriter, r *http.Request, img []byte, err error) {
	if errors.Is(err, charts.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
