// Package service implements account management and the owner-scoped
// expense operations on top of the store.
package service

import (
	"context"
	"time"

	"expense-api/internal/models"
)

// Store is the persistence surface the services depend on.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByLogin(ctx context.Context, username, email string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateUserProfile(ctx context.Context, u *models.User) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string, updatedAt time.Time) error
	DeleteUser(ctx context.Context, id int64) error
	UserCount(ctx context.Context) (int, error)

	CreateExpense(ctx context.Context, e *models.Expense) (*models.Expense, error)
	GetExpense(ctx context.Context, ownerID, id int64) (*models.Expense, error)
	UpdateExpense(ctx context.Context, e *models.Expense) (*models.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id int64) error
	ListExpenses(ctx context.Context, ownerID int64) ([]models.Expense, error)
	ListExpensesByCategory(ctx context.Context, ownerID int64, category string) ([]models.Expense, error)
	ListExpensesBetween(ctx context.Context, ownerID int64, start, end models.Date) ([]models.Expense, error)
	SumExpenses(ctx context.Context, ownerID int64) (models.Money, error)
	SumExpensesBetween(ctx context.Context, ownerID int64, start, end models.Date) (models.Money, error)
	CountExpenses(ctx context.Context, ownerID int64) (int64, error)
	CategoryTotals(ctx context.Context, ownerID int64) ([]models.CategoryTotal, error)
	MonthlyTotals(ctx context.Context, ownerID int64) ([]models.MonthTotal, error)
}

// Clock returns the current time.
type Clock func() time.Time
