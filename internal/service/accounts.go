package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"expense-api/internal/apperr"
	"expense-api/internal/auth"
	"expense-api/internal/log"
	"expense-api/internal/models"
	"expense-api/internal/storage"
)

// TokenType is the scheme reported in auth responses.
const TokenType = "Bearer"

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	maxEmailLen    = 100
	maxNameLen     = 50
	minPasswordLen = 6
)

const invalidCredentialsMessage = "Invalid username/email or password"

// Accounts handles registration, login, token checks and profile changes.
type Accounts struct {
	store  Store
	tokens *auth.TokenIssuer
	now    Clock
	logger *log.Logger
}

// NewAccounts creates an account service.
func NewAccounts(store Store, tokens *auth.TokenIssuer, now Clock, logger *log.Logger) *Accounts {
	return &Accounts{store: store, tokens: tokens, now: now, logger: logger.WithComponent(log.ComponentAccounts)}
}

// Register creates an account and returns a token for it.
func (a *Accounts) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}

	// Early exit only; the unique constraints decide under concurrency.
	if exists, err := a.store.UsernameExists(ctx, req.Username); err != nil {
		return nil, a.internal("username exists", err)
	} else if exists {
		return nil, apperr.New(apperr.KindDuplicateUsername, "Username is already taken")
	}
	if exists, err := a.store.EmailExists(ctx, req.Email); err != nil {
		return nil, a.internal("email exists", err)
	} else if exists {
		return nil, apperr.New(apperr.KindDuplicateEmail, "Email is already in use")
	}

	user, err := a.createUser(ctx, req)
	if err != nil {
		return nil, err
	}
	a.logger.Info("user registered", log.FieldUserID, user.ID)
	return a.respond(user)
}

func (a *Accounts) createUser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, a.internal("hash password", err)
	}
	now := a.now().UTC()
	user, err := a.store.CreateUser(ctx, &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, a.storeError("create user", err)
	}
	return user, nil
}

// Login verifies credentials. Unknown accounts and wrong passwords fail identically.
func (a *Accounts) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	login := strings.TrimSpace(req.UsernameOrEmail)
	if login == "" || req.Password == "" {
		return nil, apperr.Validation("usernameOrEmail and password are required")
	}

	user, err := a.store.GetUserByLogin(ctx, login, login)
	if errors.Is(err, storage.ErrNotFound) {
		auth.CheckDummy(req.Password)
		return nil, apperr.New(apperr.KindInvalidCredentials, invalidCredentialsMessage)
	}
	if err != nil {
		return nil, a.internal("lookup login", err)
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return nil, apperr.New(apperr.KindInvalidCredentials, invalidCredentialsMessage)
	}
	return a.respond(user)
}

// ValidateToken reports the account a token belongs to.
func (a *Accounts) ValidateToken(ctx context.Context, token string) (*models.TokenStatus, error) {
	user, err := a.resolve(ctx, token, apperr.KindInvalidToken)
	if err != nil {
		return nil, err
	}
	return &models.TokenStatus{Valid: true, Username: user.Username, Email: user.Email, ID: user.ID}, nil
}

// Authenticate resolves a bearer token to a live account.
func (a *Accounts) Authenticate(ctx context.Context, token string) (*models.User, error) {
	return a.resolve(ctx, token, apperr.KindUnauthenticated)
}

// resolve validates the token and re-reads the account so deleted users are rejected.
func (a *Accounts) resolve(ctx context.Context, token string, kind apperr.Kind) (*models.User, error) {
	reject := apperr.New(kind, "Invalid or expired token")
	if token == "" {
		return nil, reject
	}
	username, err := a.tokens.Validate(token)
	if err != nil {
		return nil, reject
	}
	user, err := a.store.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, reject
	}
	if err != nil {
		return nil, a.internal("lookup token user", err)
	}
	return user, nil
}

// UsernameAvailable reports whether no account uses the username. Advisory only.
func (a *Accounts) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	exists, err := a.store.UsernameExists(ctx, strings.TrimSpace(username))
	if err != nil {
		return false, a.internal("username exists", err)
	}
	return !exists, nil
}

// EmailAvailable reports whether no account uses the email. Advisory only.
func (a *Accounts) EmailAvailable(ctx context.Context, email string) (bool, error) {
	exists, err := a.store.EmailExists(ctx, strings.TrimSpace(email))
	if err != nil {
		return false, a.internal("email exists", err)
	}
	return !exists, nil
}

// UpdateProfile applies the supplied fields to the user's profile.
func (a *Accounts) UpdateProfile(ctx context.Context, user *models.User, upd models.ProfileUpdate) (*models.User, error) {
	changed := *user
	if upd.FirstName != nil {
		changed.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		changed.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Email != nil {
		changed.Email = strings.TrimSpace(*upd.Email)
	}
	if err := validateNames(changed.FirstName, changed.LastName); err != nil {
		return nil, err
	}
	if changed.Email != user.Email {
		if err := validateEmail(changed.Email); err != nil {
			return nil, err
		}
		if exists, err := a.store.EmailExists(ctx, changed.Email); err != nil {
			return nil, a.internal("email exists", err)
		} else if exists {
			return nil, apperr.New(apperr.KindDuplicateEmail, "Email is already in use")
		}
	}

	changed.UpdatedAt = a.now().UTC()
	updated, err := a.store.UpdateUserProfile(ctx, &changed)
	if err != nil {
		return nil, a.storeError("update profile", err)
	}
	return updated, nil
}

// UpdatePassword replaces the password after verifying the current one.
func (a *Accounts) UpdatePassword(ctx context.Context, user *models.User, upd models.PasswordUpdate) error {
	if upd.CurrentPassword == nil || upd.NewPassword == nil || *upd.CurrentPassword == "" || *upd.NewPassword == "" {
		return apperr.Validation("currentPassword and newPassword are required")
	}
	if !auth.CheckPassword(*upd.CurrentPassword, user.PasswordHash) {
		return apperr.New(apperr.KindInvalidCredentials, "Current password is incorrect")
	}
	if err := validatePassword(*upd.NewPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(*upd.NewPassword)
	if err != nil {
		return a.internal("hash password", err)
	}
	if err := a.store.UpdatePasswordHash(ctx, user.ID, hash, a.now().UTC()); err != nil {
		return a.storeError("update password", err)
	}
	a.logger.Info("password changed", log.FieldUserID, user.ID)
	return nil
}

// DeleteAccount removes the user together with every expense they own.
// Tokens already issued stay structurally valid but no longer authenticate.
func (a *Accounts) DeleteAccount(ctx context.Context, user *models.User) error {
	if err := a.store.DeleteUser(ctx, user.ID); err != nil {
		return a.storeError("delete user", err)
	}
	a.logger.Info("account deleted", log.FieldUserID, user.ID)
	return nil
}

// EnsureAdmin creates the bootstrap account when the store has no users.
// It returns false when users already exist.
func (a *Accounts) EnsureAdmin(ctx context.Context, req models.RegisterRequest) (bool, error) {
	count, err := a.store.UserCount(ctx)
	if err != nil {
		return false, a.internal("count users", err)
	}
	if count > 0 {
		return false, nil
	}
	if err := ValidateRegistration(req); err != nil {
		return false, fmt.Errorf("bootstrap account: %w", err)
	}
	user, err := a.createUser(ctx, req)
	if err != nil {
		return false, err
	}
	a.logger.Info("bootstrap account created", log.FieldUserID, user.ID, "username", user.Username)
	return true, nil
}

func (a *Accounts) respond(user *models.User) (*models.AuthResponse, error) {
	token, err := a.tokens.Issue(user.Username)
	if err != nil {
		return nil, a.internal("issue token", err)
	}
	return &models.AuthResponse{
		Token:    token,
		Type:     TokenType,
		Username: user.Username,
		Email:    user.Email,
		ID:       user.ID,
	}, nil
}

func (a *Accounts) storeError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrDuplicateUsername):
		return apperr.Wrap(apperr.KindDuplicateUsername, "Username is already taken", err)
	case errors.Is(err, storage.ErrDuplicateEmail):
		return apperr.Wrap(apperr.KindDuplicateEmail, "Email is already in use", err)
	case errors.Is(err, storage.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, "User not found", err)
	}
	return a.internal(op, err)
}

func (a *Accounts) internal(op string, err error) error {
	a.logger.Error("store operation failed", log.FieldOperation, op, log.FieldError, err)
	return apperr.Internal(op, err)
}

// ValidateRegistration checks the registration payload.
func ValidateRegistration(req models.RegisterRequest) error {
	n := utf8.RuneCountInString(req.Username)
	if n < minUsernameLen || n > maxUsernameLen {
		return apperr.Validation("username must be between %d and %d characters", minUsernameLen, maxUsernameLen)
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	return validateNames(req.FirstName, req.LastName)
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email is required")
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return apperr.Validation("email must be at most %d characters", maxEmailLen)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return apperr.Validation("email must be a valid address")
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return apperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

func validateNames(first, last string) error {
	if utf8.RuneCountInString(first) > maxNameLen {
		return apperr.Validation("firstName must be at most %d characters", maxNameLen)
	}
	if utf8.RuneCountInString(last) > maxNameLen {
		return apperr.Validation("lastName must be at most %d characters", maxNameLen)
	}
	return nil
}
