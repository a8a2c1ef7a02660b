package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/models"
)

// Accounts is the SQLite-backed login account store.
type Accounts struct {
	conn *sql.DB
}

// Insert stores a new account. Emails are unique.
func (db *Accounts) Insert(ctx context.Context, a *models.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, role, project_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, strings.ToLower(a.Email), a.PasswordHash, a.Role, a.ProjectID, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: insert account: %w", err)
	}
	return nil
}

// GetByEmail looks up an account by email, case-insensitively.
func (db *Accounts) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, project_id, created_at
		FROM accounts WHERE email = ?
	`, strings.ToLower(email)).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.ProjectID, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get account: %w", err)
	}
	return &a, nil
}

// List returns all accounts ordered by creation time.
func (db *Accounts) List(ctx context.Context) ([]models.Account, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, email, role, project_id, created_at
		FROM accounts ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list accounts: %w", err)
	}
	defer rows.Close()

	out := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.Role, &a.ProjectID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan account row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes an account by id.
func (db *Accounts) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteByProject removes every client account bound to a project. Used when
// a project is deleted.
func (db *Accounts) DeleteByProject(ctx context.Context, projectID string) error {
	if projectID == "" {
		return nil
	}
	_, err := db.conn.ExecContext(ctx, `DELETE FROM accounts WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("store: delete accounts for project: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
