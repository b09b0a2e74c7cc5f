package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// DefaultCategory is assigned to expenses submitted without a category.
const DefaultCategory = "General"

// Expense represents a financial expense record owned by one user.
type Expense struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Amount      Money     `json:"amount"`
	ExpenseDate Date      `json:"expenseDate"`
	Category    string    `json:"category"`
	UserID      int64     `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ExpenseInput holds the client-controlled fields of an expense.
// Updates replace every field with the submitted value.
type ExpenseInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Amount      Money   `json:"amount"`
	ExpenseDate Date    `json:"expenseDate"`
	Category    string  `json:"category"`
}

// Statistics summarizes a user's expenses.
type Statistics struct {
	TotalExpenses     Money `json:"totalExpenses"`
	CurrentMonthTotal Money `json:"currentMonthTotal"`
	TotalCount        int64 `json:"totalCount"`
	AverageExpense    Money `json:"averageExpense"`
}

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category string
	Total    Money
}

// MonthTotal is the summed amount of one calendar month ("YYYY-MM").
type MonthTotal struct {
	Month string
	Total Money
}

// CategoryTotals maps category to summed amount. Key order carries no meaning.
type CategoryTotals map[string]Money

// MonthlyTotals is an ascending list of month totals. It is serialized as a
// JSON object whose keys keep the slice order.
type MonthlyTotals []MonthTotal

// MarshalJSON implements json.Marshaler.
func (m MonthlyTotals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, mt := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(mt.Month)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(mt.Total.String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
