package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"expense-api/internal/auth"
	"expense-api/internal/charts"
	"expense-api/internal/handlers"
	applog "expense-api/internal/log"
	"expense-api/internal/service"
	"expense-api/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRouter(t *testing.T) {
	// Setup dependencies
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create database")
	defer db.Close()

	tokens, err := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	logger := applog.Discard()
	h := handlers.NewHandlers(
		service.NewAccounts(db, tokens, time.Now, logger),
		service.NewExpenses(db, time.Now, logger),
		charts.NewRenderer(),
		db,
	)

	router := setupRouter(h, logger, []string{"http://localhost:3000"})

	// Verify routes
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "Health check is public",
			method:     "GET",
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Availability check is public",
			method:     "GET",
			path:       "/api/auth/check-username/alice",
			wantStatus: http.StatusOK,
		},
		{
			name:       "List Expenses requires auth",
			method:     "GET",
			path:       "/api/expenses",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Statistics requires auth",
			method:     "GET",
			path:       "/api/expenses/statistics",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Profile requires auth",
			method:     "GET",
			path:       "/api/user/profile",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Unknown API route",
			method:     "GET",
			path:       "/api/unknown",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Wrong method",
			method:     "DELETE",
			path:       "/api/auth/login",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code,
				"%s %s returned unexpected status", tt.method, tt.path)
			assert.NotEmpty(t, w.Header().Get(applog.RequestIDHeader), "every request gets an id")
		})
	}
}

func TestSetupRouterCORS(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create database")
	defer db.Close()

	tokens, err := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	logger := applog.Discard()
	h := handlers.NewHandlers(
		service.NewAccounts(db, tokens, time.Now, logger),
		service.NewExpenses(db, time.Now, logger),
		charts.NewRenderer(),
		db,
	)
	router := setupRouter(h, logger, []string{"http://localhost:3000"})

	// Preflight from an allowed origin
	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	// Simple request from a foreign origin gets no CORS grant
	req = httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
