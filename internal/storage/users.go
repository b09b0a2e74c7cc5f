package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expense-api/internal/models"
)

const userColumns = "id, username, email, password_hash, first_name, last_name, created_at, updated_at"

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user. Unique constraint violations are reported
// as ErrDuplicateUsername or ErrDuplicateEmail.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	var id int64
	err := db.queryRow(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return nil, classifyUnique(err)
	}
	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(db.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(db.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username))
}

// GetUserByLogin retrieves the user whose username or email equals login.
// Usernames take precedence when a value matches both columns.
func (db *DB) GetUserByLogin(ctx context.Context, username, email string) (*models.User, error) {
	return scanUser(db.queryRow(ctx,
		"SELECT "+userColumns+` FROM users WHERE username = ? OR email = ?
		 ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END
		 LIMIT 1`,
		username, email, username,
	))
}

// UsernameExists reports whether a user with the given username exists.
func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := db.queryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", username).Scan(&exists)
	return exists, err
}

// EmailExists reports whether a user with the given email exists.
func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.queryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", email).Scan(&exists)
	return exists, err
}

// UpdateUserProfile stores the email and name fields of u.
func (db *DB) UpdateUserProfile(ctx context.Context, u *models.User) (*models.User, error) {
	res, err := db.exec(ctx,
		"UPDATE users SET email = ?, first_name = ?, last_name = ?, updated_at = ? WHERE id = ?",
		u.Email, u.FirstName, u.LastName, u.UpdatedAt, u.ID,
	)
	if err != nil {
		return nil, classifyUnique(err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return db.GetUserByID(ctx, u.ID)
}

// UpdatePasswordHash replaces the password hash of a user.
func (db *DB) UpdatePasswordHash(ctx context.Context, id int64, hash string, updatedAt time.Time) error {
	res, err := db.exec(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		hash, updatedAt, id,
	)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteUser removes a user and every expense the user owns in one transaction.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, db.rebind("DELETE FROM expenses WHERE user_id = ?"), id); err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}
	res, err := tx.ExecContext(ctx, db.rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.queryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
