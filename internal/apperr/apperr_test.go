package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := New(KindNotFound, "Expense not found")
	wrapped := fmt.Errorf("get expense: %w", err)

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrValidation)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "Expense not found", MessageOf(wrapped))
}

func TestInternalWrapsCause(t *testing.T) {
	err := Internal("list expenses", sql.ErrConnDone)

	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Contains(t, err.Error(), "list expenses")
}

func TestForeignErrorsAreInternal(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal server error", MessageOf(err))
}

func TestKindCodes(t *testing.T) {
	assert.Equal(t, Kind("validation"), KindOf(Validation("bad %s", "input")))
	assert.Equal(t, Kind("internal"), KindOf(errors.New("boom")))
	assert.Equal(t, Kind("not_found"), KindNotFound)
	assert.Equal(t, Kind("unauthenticated"), KindUnauthenticated)
}
