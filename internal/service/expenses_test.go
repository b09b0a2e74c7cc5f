package service

import (
	"context"
	"testing"
	"time"

	"expense-api/internal/apperr"
	"expense-api/internal/log"
	"expense-api/internal/models"
	"expense-api/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ExpensesTestSuite exercises Expenses against an in-memory store with a fixed clock.
type ExpensesTestSuite struct {
	suite.Suite
	db       *storage.DB
	expenses *Expenses
	ctx      context.Context
	alice    int64
	bob      int64
}

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

// SetupTest runs before each test
func (suite *ExpensesTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()
	suite.expenses = NewExpenses(db, func() time.Time { return fixedNow }, log.Discard())

	for _, name := range []string{"alice", "bob"} {
		u, err := db.CreateUser(suite.ctx, &models.User{
			Username: name, Email: name + "@example.com", PasswordHash: "x",
			CreatedAt: fixedNow, UpdatedAt: fixedNow,
		})
		require.NoError(suite.T(), err)
		if name == "alice" {
			suite.alice = u.ID
		} else {
			suite.bob = u.ID
		}
	}
}

// TearDownTest runs after each test
func (suite *ExpensesTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *ExpensesTestSuite) create(owner int64, title string, amount models.Money, date models.Date, category string) *models.Expense {
	e, err := suite.expenses.Create(suite.ctx, owner, models.ExpenseInput{
		Title: title, Amount: amount, ExpenseDate: date, Category: category,
	})
	require.NoError(suite.T(), err, "failed to create expense: %s", title)
	return e
}

func (suite *ExpensesTestSuite) TestCreateThenGet() {
	created, err := suite.expenses.Create(suite.ctx, suite.alice, models.ExpenseInput{
		Title:       "Coffee",
		Description: strPtr("Flat white"),
		Amount:      350,
		ExpenseDate: models.NewDate(2024, 3, 1),
		Category:    "Food",
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.alice, created.UserID)
	assert.True(suite.T(), created.CreatedAt.Equal(fixedNow))

	got, err := suite.expenses.Get(suite.ctx, suite.alice, created.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Coffee", got.Title)
	assert.Equal(suite.T(), "Flat white", *got.Description)
	assert.Equal(suite.T(), models.Money(350), got.Amount)
	assert.Equal(suite.T(), "2024-03-01", got.ExpenseDate.String())
	assert.Equal(suite.T(), "Food", got.Category)
}

func (suite *ExpensesTestSuite) TestCategoryDefaults() {
	e := suite.create(suite.alice, "Misc", 100, models.NewDate(2024, 3, 1), "  ")
	assert.Equal(suite.T(), models.DefaultCategory, e.Category)

	updated, err := suite.expenses.Update(suite.ctx, suite.alice, e.ID, models.ExpenseInput{
		Title: "Misc", Amount: 100, ExpenseDate: models.NewDate(2024, 3, 1),
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.DefaultCategory, updated.Category)
}

func (suite *ExpensesTestSuite) TestValidation() {
	long := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'a'
		}
		return string(b)
	}
	date := models.NewDate(2024, 3, 1)
	tests := []struct {
		name string
		in   models.ExpenseInput
	}{
		{"missing title", models.ExpenseInput{Title: " ", Amount: 100, ExpenseDate: date}},
		{"long title", models.ExpenseInput{Title: long(256), Amount: 100, ExpenseDate: date}},
		{"long description", models.ExpenseInput{Title: "x", Description: strPtr(long(1001)), Amount: 100, ExpenseDate: date}},
		{"zero amount", models.ExpenseInput{Title: "x", Amount: 0, ExpenseDate: date}},
		{"negative amount", models.ExpenseInput{Title: "x", Amount: -5, ExpenseDate: date}},
		{"too large amount", models.ExpenseInput{Title: "x", Amount: models.MaxAmount + 1, ExpenseDate: date}},
		{"missing date", models.ExpenseInput{Title: "x", Amount: 100}},
		{"long category", models.ExpenseInput{Title: "x", Amount: 100, ExpenseDate: date, Category: long(101)}},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.expenses.Create(suite.ctx, suite.alice, tt.in)
			assert.ErrorIs(suite.T(), err, apperr.ErrValidation)
		})
	}

	ok := models.ExpenseInput{Title: long(255), Description: strPtr(long(1000)), Amount: models.MaxAmount, ExpenseDate: date, Category: long(100)}
	_, err := suite.expenses.Create(suite.ctx, suite.alice, ok)
	assert.NoError(suite.T(), err, "boundary values are accepted")
}

func (suite *ExpensesTestSuite) TestOtherOwnerSeesNotFound() {
	e := suite.create(suite.alice, "Rent", 80000, models.NewDate(2024, 3, 1), "Housing")

	_, err := suite.expenses.Get(suite.ctx, suite.bob, e.ID)
	assert.ErrorIs(suite.T(), err, apperr.ErrNotFound)

	_, err = suite.expenses.Update(suite.ctx, suite.bob, e.ID, models.ExpenseInput{
		Title: "Mine now", Amount: 1, ExpenseDate: models.NewDate(2024, 3, 1),
	})
	assert.ErrorIs(suite.T(), err, apperr.ErrNotFound)

	assert.ErrorIs(suite.T(), suite.expenses.Delete(suite.ctx, suite.bob, e.ID), apperr.ErrNotFound)

	list, err := suite.expenses.List(suite.ctx, suite.bob)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), list)
}

func (suite *ExpensesTestSuite) TestUpdateIsFullReplace() {
	created, err := suite.expenses.Create(suite.ctx, suite.alice, models.ExpenseInput{
		Title: "Lunch", Description: strPtr("with team"), Amount: 1500,
		ExpenseDate: models.NewDate(2024, 3, 1), Category: "Food",
	})
	require.NoError(suite.T(), err)

	updated, err := suite.expenses.Update(suite.ctx, suite.alice, created.ID, models.ExpenseInput{
		Title: "X", Amount: 1500, ExpenseDate: models.NewDate(2024, 3, 1),
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "X", updated.Title)
	assert.Nil(suite.T(), updated.Description)
	assert.Equal(suite.T(), models.DefaultCategory, updated.Category)
}

func (suite *ExpensesTestSuite) TestDelete() {
	e := suite.create(suite.alice, "Taxi", 2000, models.NewDate(2024, 3, 1), "Transport")
	require.NoError(suite.T(), suite.expenses.Delete(suite.ctx, suite.alice, e.ID))

	_, err := suite.expenses.Get(suite.ctx, suite.alice, e.ID)
	assert.ErrorIs(suite.T(), err, apperr.ErrNotFound)
}

func (suite *ExpensesTestSuite) TestCurrentMonthAndRange() {
	suite.create(suite.alice, "February", 100, models.NewDate(2024, 2, 29), "General")
	suite.create(suite.alice, "March 1", 200, models.NewDate(2024, 3, 1), "General")
	suite.create(suite.alice, "March 31", 300, models.NewDate(2024, 3, 31), "General")
	suite.create(suite.bob, "Bob March", 400, models.NewDate(2024, 3, 10), "General")

	month, err := suite.expenses.CurrentMonth(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), month, 2)
	assert.Equal(suite.T(), "March 31", month[0].Title)
	assert.Equal(suite.T(), "March 1", month[1].Title)

	ranged, err := suite.expenses.ByDateRange(suite.ctx, suite.alice, models.NewDate(2024, 2, 29), models.NewDate(2024, 3, 1))
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), ranged, 2)

	inverted, err := suite.expenses.ByDateRange(suite.ctx, suite.alice, models.NewDate(2024, 3, 2), models.NewDate(2024, 3, 1))
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), inverted)
	assert.Empty(suite.T(), inverted)

	_, err = suite.expenses.ByDateRange(suite.ctx, suite.alice, models.Date{}, models.NewDate(2024, 3, 1))
	assert.ErrorIs(suite.T(), err, apperr.ErrValidation)
}

func (suite *ExpensesTestSuite) TestByCategory() {
	suite.create(suite.alice, "Coffee", 350, models.NewDate(2024, 3, 1), "Food")
	suite.create(suite.alice, "Bus", 250, models.NewDate(2024, 3, 2), "Transport")

	food, err := suite.expenses.ByCategory(suite.ctx, suite.alice, "Food")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), food, 1)
	assert.Equal(suite.T(), "Coffee", food[0].Title)
}

func (suite *ExpensesTestSuite) TestStatisticsEmpty() {
	stats, err := suite.expenses.Statistics(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), &models.Statistics{}, stats)
}

func (suite *ExpensesTestSuite) TestStatisticsSingleExpense() {
	suite.create(suite.alice, "Coffee", 350, models.NewDate(2024, 3, 1), "Food")

	stats, err := suite.expenses.Statistics(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.Money(350), stats.TotalExpenses)
	assert.Equal(suite.T(), models.Money(350), stats.CurrentMonthTotal)
	assert.Equal(suite.T(), int64(1), stats.TotalCount)
	assert.Equal(suite.T(), models.Money(350), stats.AverageExpense)
}

func (suite *ExpensesTestSuite) TestStatisticsAverageRoundsHalfUp() {
	suite.create(suite.alice, "A", 100, models.NewDate(2024, 3, 1), "General")
	suite.create(suite.alice, "B", 100, models.NewDate(2024, 1, 1), "General")
	suite.create(suite.alice, "C", 101, models.NewDate(2023, 12, 1), "General")

	stats, err := suite.expenses.Statistics(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.Money(301), stats.TotalExpenses)
	assert.Equal(suite.T(), models.Money(100), stats.CurrentMonthTotal)
	assert.Equal(suite.T(), int64(3), stats.TotalCount)
	// 3.01 / 3 = 1.00333...
	assert.Equal(suite.T(), models.Money(100), stats.AverageExpense)

	suite.create(suite.alice, "D", 1, models.NewDate(2023, 12, 2), "General")
	stats, err = suite.expenses.Statistics(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	// 3.02 / 4 = 0.755
	assert.Equal(suite.T(), models.Money(76), stats.AverageExpense)
}

func (suite *ExpensesTestSuite) TestChartAggregates() {
	suite.create(suite.alice, "Coffee", 350, models.NewDate(2024, 3, 1), "Food")
	suite.create(suite.alice, "Dinner", 4200, models.NewDate(2024, 2, 3), "Food")
	suite.create(suite.alice, "Rent", 80000, models.NewDate(2024, 2, 1), "Housing")

	categories, err := suite.expenses.CategoryTotals(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.CategoryTotals{"Food": 4550, "Housing": 80000}, categories)

	months, err := suite.expenses.MonthlyTotals(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.MonthlyTotals{
		{Month: "2024-02", Total: 84200},
		{Month: "2024-03", Total: 350},
	}, months)

	breakdown, err := suite.expenses.CategoryBreakdown(suite.ctx, suite.alice)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), breakdown, 2)
	assert.Equal(suite.T(), "Housing", breakdown[0].Category)
}

func TestExpensesSuite(t *testing.T) {
	suite.Run(t, new(ExpensesTestSuite))
}
