package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"expense-api/internal/apperr"
	"expense-api/internal/log"
	"expense-api/internal/models"
	"expense-api/internal/storage"
)

const (
	maxTitleLen       = 255
	maxDescriptionLen = 1000
	maxCategoryLen    = 100
)

// Expenses is the owner-scoped query and aggregation layer. Every method
// takes the authenticated owner's id and never touches another owner's rows.
type Expenses struct {
	store  Store
	now    Clock
	logger *log.Logger
}

// NewExpenses creates an expense service. now supplies the current date for
// current-month queries and the server timestamps.
func NewExpenses(store Store, now Clock, logger *log.Logger) *Expenses {
	return &Expenses{store: store, now: now, logger: logger.WithComponent(log.ComponentExpenses)}
}

// ValidateExpense checks the input and normalizes it in place.
func ValidateExpense(in *models.ExpenseInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLen {
		return apperr.Validation("title must be at most %d characters", maxTitleLen)
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > maxDescriptionLen {
		return apperr.Validation("description must be at most %d characters", maxDescriptionLen)
	}
	if in.Amount <= 0 {
		return apperr.Validation("amount must be greater than 0")
	}
	if in.Amount > models.MaxAmount {
		return apperr.Validation("amount must be at most %s", models.MaxAmount)
	}
	if in.ExpenseDate.IsZero() {
		return apperr.Validation("expenseDate is required")
	}
	in.Category = strings.TrimSpace(in.Category)
	if in.Category == "" {
		in.Category = models.DefaultCategory
	}
	if utf8.RuneCountInString(in.Category) > maxCategoryLen {
		return apperr.Validation("category must be at most %d characters", maxCategoryLen)
	}
	return nil
}

// List returns every expense of the owner, newest first.
func (s *Expenses) List(ctx context.Context, ownerID int64) ([]models.Expense, error) {
	list, err := s.store.ListExpenses(ctx, ownerID)
	return list, s.wrap("list expenses", err)
}

// Get returns one expense, or not_found when it is missing or owned by someone else.
func (s *Expenses) Get(ctx context.Context, ownerID, id int64) (*models.Expense, error) {
	e, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return nil, s.wrap("get expense", err)
	}
	return e, nil
}

// Create validates and stores a new expense owned by ownerID.
func (s *Expenses) Create(ctx context.Context, ownerID int64, in models.ExpenseInput) (*models.Expense, error) {
	if err := ValidateExpense(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	e, err := s.store.CreateExpense(ctx, &models.Expense{
		Title:       in.Title,
		Description: in.Description,
		Amount:      in.Amount,
		ExpenseDate: in.ExpenseDate,
		Category:    in.Category,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, s.wrap("create expense", err)
	}
	return e, nil
}

// Update replaces every client-controlled field of the expense.
func (s *Expenses) Update(ctx context.Context, ownerID, id int64, in models.ExpenseInput) (*models.Expense, error) {
	if err := ValidateExpense(&in); err != nil {
		return nil, err
	}
	e, err := s.store.UpdateExpense(ctx, &models.Expense{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Amount:      in.Amount,
		ExpenseDate: in.ExpenseDate,
		Category:    in.Category,
		UserID:      ownerID,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, s.wrap("update expense", err)
	}
	return e, nil
}

// Delete removes the expense.
func (s *Expenses) Delete(ctx context.Context, ownerID, id int64) error {
	return s.wrap("delete expense", s.store.DeleteExpense(ctx, ownerID, id))
}

// ByCategory returns the owner's expenses in one category.
func (s *Expenses) ByCategory(ctx context.Context, ownerID int64, category string) ([]models.Expense, error) {
	list, err := s.store.ListExpensesByCategory(ctx, ownerID, category)
	return list, s.wrap("list by category", err)
}

// ByDateRange returns the owner's expenses dated within [start, end].
// An end before start matches nothing.
func (s *Expenses) ByDateRange(ctx context.Context, ownerID int64, start, end models.Date) ([]models.Expense, error) {
	if start.IsZero() || end.IsZero() {
		return nil, apperr.Validation("startDate and endDate are required")
	}
	list, err := s.store.ListExpensesBetween(ctx, ownerID, start, end)
	return list, s.wrap("list by date range", err)
}

// CurrentMonth returns the owner's expenses in the calendar month of today.
func (s *Expenses) CurrentMonth(ctx context.Context, ownerID int64) ([]models.Expense, error) {
	start, end := s.today().MonthBounds()
	list, err := s.store.ListExpensesBetween(ctx, ownerID, start, end)
	return list, s.wrap("list current month", err)
}

// Statistics summarizes the owner's expenses. The average is the total
// divided by the count, rounded half-up to the cent, and 0 without expenses.
func (s *Expenses) Statistics(ctx context.Context, ownerID int64) (*models.Statistics, error) {
	total, err := s.store.SumExpenses(ctx, ownerID)
	if err != nil {
		return nil, s.wrap("sum expenses", err)
	}
	count, err := s.store.CountExpenses(ctx, ownerID)
	if err != nil {
		return nil, s.wrap("count expenses", err)
	}
	start, end := s.today().MonthBounds()
	month, err := s.store.SumExpensesBetween(ctx, ownerID, start, end)
	if err != nil {
		return nil, s.wrap("sum current month", err)
	}
	return &models.Statistics{
		TotalExpenses:     total,
		CurrentMonthTotal: month,
		TotalCount:        count,
		AverageExpense:    total.DivRound(count),
	}, nil
}

// CategoryTotals returns category to summed amount for the owner.
func (s *Expenses) CategoryTotals(ctx context.Context, ownerID int64) (models.CategoryTotals, error) {
	rows, err := s.CategoryBreakdown(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	totals := make(models.CategoryTotals, len(rows))
	for _, r := range rows {
		totals[r.Category] = r.Total
	}
	return totals, nil
}

// CategoryBreakdown returns the category totals ordered by descending total.
func (s *Expenses) CategoryBreakdown(ctx context.Context, ownerID int64) ([]models.CategoryTotal, error) {
	rows, err := s.store.CategoryTotals(ctx, ownerID)
	return rows, s.wrap("category totals", err)
}

// MonthlyTotals returns "YYYY-MM" to summed amount in ascending month order.
func (s *Expenses) MonthlyTotals(ctx context.Context, ownerID int64) (models.MonthlyTotals, error) {
	rows, err := s.store.MonthlyTotals(ctx, ownerID)
	if err != nil {
		return nil, s.wrap("monthly totals", err)
	}
	return models.MonthlyTotals(rows), nil
}

func (s *Expenses) today() models.Date {
	return models.DateOf(s.now())
}

func (s *Expenses) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Wrap(apperr.KindNotFound, "Expense not found", err)
	}
	s.logger.Error("store operation failed", log.FieldOperation, op, log.FieldError, err)
	return apperr.Internal(op, err)
}
