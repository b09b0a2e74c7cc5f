// Package handlers exposes the JSON API over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"expense-api/internal/apperr"
	"expense-api/internal/charts"
	"expense-api/internal/log"
	"expense-api/internal/models"
	"expense-api/internal/service"
)

const maxBodyBytes = 1 << 20

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	accounts *service.Accounts
	expenses *service.Expenses
	charts   *charts.Renderer
	store    Pinger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(accounts *service.Accounts, expenses *service.Expenses, renderer *charts.Renderer, store Pinger) *Handlers {
	return &Handlers{accounts: accounts, expenses: expenses, charts: renderer, store: store}
}

// UserHandlerFunc is a handler that runs on behalf of an authenticated user.
type UserHandlerFunc func(w http.ResponseWriter, r *http.Request, user *models.User)

// Routes registers every API route on r.
func (h *Handlers) Routes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	// Public
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/validate", h.Validate).Methods(http.MethodPost)
	api.HandleFunc("/auth/check-username/{username}", h.CheckUsername).Methods(http.MethodGet)
	api.HandleFunc("/auth/check-email/{email}", h.CheckEmail).Methods(http.MethodGet)

	// Expenses
	api.HandleFunc("/expenses", h.Authenticated(h.ListExpenses)).Methods(http.MethodGet)
	api.HandleFunc("/expenses", h.Authenticated(h.CreateExpense)).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id:[0-9]+}", h.Authenticated(h.GetExpense)).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id:[0-9]+}", h.Authenticated(h.UpdateExpense)).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id:[0-9]+}", h.Authenticated(h.DeleteExpense)).Methods(http.MethodDelete)
	api.HandleFunc("/expenses/category/{category}", h.Authenticated(h.ExpensesByCategory)).Methods(http.MethodGet)
	api.HandleFunc("/expenses/date-range", h.Authenticated(h.ExpensesByDateRange)).Methods(http.MethodGet)
	api.HandleFunc("/expenses/current-month", h.Authenticated(h.CurrentMonthExpenses)).Methods(http.MethodGet)

	// Aggregates
	api.HandleFunc("/expenses/statistics", h.Authenticated(h.Statistics)).Methods(http.MethodGet)
	api.HandleFunc("/expenses/chart/category", h.Authenticated(h.CategoryChart)).Methods(http.MethodGet)
	api.HandleFunc("/expenses/chart/monthly", h.Authenticated(h.MonthlyChart)).Methods(http.MethodGet)
	api.HandleFunc("/expenses/chart/category.png", h.Authenticated(h.CategoryChartPNG)).Methods(http.MethodGet)
	api.HandleFunc("/expenses/chart/monthly.png", h.Authenticated(h.MonthlyChartPNG)).Methods(http.MethodGet)

	// Account
	api.HandleFunc("/user/profile", h.Authenticated(h.Profile)).Methods(http.MethodGet)
	api.HandleFunc("/user/profile", h.Authenticated(h.UpdateProfile)).Methods(http.MethodPut)
	api.HandleFunc("/user/password", h.Authenticated(h.UpdatePassword)).Methods(http.MethodPut)
	api.HandleFunc("/user/account", h.Authenticated(h.DeleteAccount)).Methods(http.MethodDelete)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperr.New(apperr.KindNotFound, "Route not found"))
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed", Code: codeMethodNotAllowed})
	})
}

// Authenticated resolves the bearer token to a user and passes it to next.
// Requests without a live account are rejected with 401.
func (h *Handlers) Authenticated(next UserHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, apperr.New(apperr.KindUnauthenticated, "Authentication required"))
			return
		}
		user, err := h.accounts.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r, user)
	}
}

// Health reports whether the store is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		log.FromContext(r.Context()).Error("health check failed", log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindDuplicateUsername, apperr.KindDuplicateEmail,
		apperr.KindInvalidCredentials, apperr.KindInvalidToken:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

const codeMethodNotAllowed apperr.Kind = "method_not_allowed"

type errorBody struct {
	Error string      `json:"error"`
	Code  apperr.Kind `json:"code"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	msg := apperr.MessageOf(err)
	logger := log.FromContext(r.Context())
	if kind == apperr.KindInternal {
		logger.Error("request failed", log.FieldError, err)
		msg = "internal server error"
	} else {
		logger.Debug("request rejected", "code", kind, log.FieldError, err)
	}
	writeJSON(w, statusFor(kind), errorBody{Error: msg, Code: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Validation("request body too large")
		case errors.Is(err, models.ErrInvalidAmount):
			return apperr.Validation("amount must be a decimal number")
		}
		return apperr.Wrap(apperr.KindValidation, "invalid request body: "+err.Error(), err)
	}
	return nil
}
