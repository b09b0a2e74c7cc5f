package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(t *testing.T, now *time.Time) *TokenIssuer {
	t.Helper()
	ti, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	return ti.WithClock(func() time.Time { return *now })
}

func TestIssueAndValidate(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ti := newTestIssuer(t, &now)

	token, err := ti.Issue("alice")
	require.NoError(t, err)

	username, err := ti.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestTokenExpiry(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	ti := newTestIssuer(t, &now)

	token, err := ti.Issue("alice")
	require.NoError(t, err)

	now = issuedAt.Add(time.Hour - time.Second)
	_, err = ti.Validate(token)
	assert.NoError(t, err, "token should be valid just before expiry")

	now = issuedAt.Add(time.Hour)
	_, err = ti.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "token should be invalid at expiry")

	now = issuedAt.Add(2 * time.Hour)
	_, err = ti.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpiryWithFractionalIssueTime(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 900*int(time.Millisecond), time.UTC)
	now := issuedAt
	ti := newTestIssuer(t, &now)

	token, err := ti.Issue("alice")
	require.NoError(t, err)

	now = issuedAt.Add(time.Hour - 500*time.Millisecond)
	_, err = ti.Validate(token)
	assert.NoError(t, err, "token must last its full lifetime")

	now = issuedAt.Add(time.Hour + time.Second)
	_, err = ti.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsTampering(t *testing.T) {
	now := time.Now()
	ti := newTestIssuer(t, &now)

	token, err := ti.Issue("alice")
	require.NoError(t, err)

	other, err := NewTokenIssuer(strings.Repeat("x", MinSecretLength), time.Hour)
	require.NoError(t, err)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "foreign key must not validate")

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	_, err = ti.Validate(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	for _, bad := range []string{"", "garbage", "a.b.c"} {
		_, err = ti.Validate(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", bad)
	}
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	now := time.Now()
	ti := newTestIssuer(t, &now)

	// {"alg":"none","typ":"JWT"} . {"sub":"alice","exp":9999999999}
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJhbGljZSIsImV4cCI6OTk5OTk5OTk5OX0."
	_, err := ti.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerRejectsShortSecret(t *testing.T) {
	_, err := NewTokenIssuer("short", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenIssuer(testSecret, 0)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, CheckPassword("s3cret!", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckDummy("s3cret!"))

	other, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes must be salted")
}
