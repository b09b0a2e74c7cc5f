package storage

import (
	"context"
	"database/sql"
	"errors"

	"expense-api/internal/models"
)

const expenseColumns = "id, user_id, title, description, amount_cents, expense_date, category, created_at, updated_at"

// Every listing shares this order: newest expense date first, then newest id.
const expenseOrder = " ORDER BY expense_date DESC, id DESC"

func scanExpense(row scanner) (*models.Expense, error) {
	var (
		e    models.Expense
		desc sql.NullString
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &desc, &e.Amount, &e.ExpenseDate, &e.Category, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		e.Description = &desc.String
	}
	return &e, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateExpense inserts a new expense for e.UserID.
func (db *DB) CreateExpense(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	var id int64
	err := db.queryRow(ctx,
		`INSERT INTO expenses (user_id, title, description, amount_cents, expense_date, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		e.UserID, e.Title, nullable(e.Description), e.Amount, e.ExpenseDate, e.Category, e.CreatedAt, e.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	return db.GetExpense(ctx, e.UserID, id)
}

// GetExpense retrieves a single expense owned by ownerID.
func (db *DB) GetExpense(ctx context.Context, ownerID, id int64) (*models.Expense, error) {
	return scanExpense(db.queryRow(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND user_id = ?",
		id, ownerID,
	))
}

// UpdateExpense overwrites every client-controlled field of an expense owned
// by e.UserID. CreatedAt is left untouched.
func (db *DB) UpdateExpense(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	res, err := db.exec(ctx,
		`UPDATE expenses
		 SET title = ?, description = ?, amount_cents = ?, expense_date = ?, category = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		e.Title, nullable(e.Description), e.Amount, e.ExpenseDate, e.Category, e.UpdatedAt, e.ID, e.UserID,
	)
	if err != nil {
		return nil, err
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return db.GetExpense(ctx, e.UserID, e.ID)
}

// DeleteExpense removes an expense owned by ownerID.
func (db *DB) DeleteExpense(ctx context.Context, ownerID, id int64) error {
	res, err := db.exec(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// ListExpenses retrieves every expense owned by ownerID.
func (db *DB) ListExpenses(ctx context.Context, ownerID int64) ([]models.Expense, error) {
	return db.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ?"+expenseOrder,
		ownerID,
	)
}

// ListExpensesByCategory retrieves the expenses of ownerID in one category.
func (db *DB) ListExpensesByCategory(ctx context.Context, ownerID int64, category string) ([]models.Expense, error) {
	return db.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND category = ?"+expenseOrder,
		ownerID, category,
	)
}

// ListExpensesBetween retrieves the expenses of ownerID dated within [start, end].
func (db *DB) ListExpensesBetween(ctx context.Context, ownerID int64, start, end models.Date) ([]models.Expense, error) {
	return db.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? AND expense_date BETWEEN ? AND ?"+expenseOrder,
		ownerID, start, end,
	)
}

func (db *DB) listExpenses(ctx context.Context, query string, args ...any) ([]models.Expense, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}

	return expenses, rows.Err()
}

// SumExpenses returns the total amount owned by ownerID, 0 when there is none.
func (db *DB) SumExpenses(ctx context.Context, ownerID int64) (models.Money, error) {
	var total models.Money
	err := db.queryRow(ctx,
		"SELECT CAST(COALESCE(SUM(amount_cents), 0) AS BIGINT) FROM expenses WHERE user_id = ?",
		ownerID,
	).Scan(&total)
	return total, err
}

// SumExpensesBetween returns the total amount of ownerID dated within [start, end].
func (db *DB) SumExpensesBetween(ctx context.Context, ownerID int64, start, end models.Date) (models.Money, error) {
	var total models.Money
	err := db.queryRow(ctx,
		`SELECT CAST(COALESCE(SUM(amount_cents), 0) AS BIGINT) FROM expenses
		 WHERE user_id = ? AND expense_date BETWEEN ? AND ?`,
		ownerID, start, end,
	).Scan(&total)
	return total, err
}

// CountExpenses returns the number of expenses owned by ownerID.
func (db *DB) CountExpenses(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	err := db.queryRow(ctx, "SELECT COUNT(*) FROM expenses WHERE user_id = ?", ownerID).Scan(&count)
	return count, err
}

// CategoryTotals sums the expenses of ownerID per category, largest first.
func (db *DB) CategoryTotals(ctx context.Context, ownerID int64) ([]models.CategoryTotal, error) {
	rows, err := db.query(ctx,
		`SELECT category, CAST(SUM(amount_cents) AS BIGINT) AS total
		 FROM expenses
		 WHERE user_id = ?
		 GROUP BY category
		 ORDER BY total DESC, category ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []models.CategoryTotal
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, err
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// MonthlyTotals sums the expenses of ownerID per calendar month, oldest first.
// Month keys are "YYYY-MM", taken from the stored ISO date.
func (db *DB) MonthlyTotals(ctx context.Context, ownerID int64) ([]models.MonthTotal, error) {
	rows, err := db.query(ctx,
		`SELECT substr(expense_date, 1, 7) AS month, CAST(SUM(amount_cents) AS BIGINT) AS total
		 FROM expenses
		 WHERE user_id = ?
		 GROUP BY substr(expense_date, 1, 7)
		 ORDER BY month ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []models.MonthTotal
	for rows.Next() {
		var mt models.MonthTotal
		if err := rows.Scan(&mt.Month, &mt.Total); err != nil {
			return nil, err
		}
		totals = append(totals, mt)
	}
	return totals, rows.Err()
}
