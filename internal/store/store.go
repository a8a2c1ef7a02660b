// Package store persists project aggregates and accounts in SQLite. Each
// project is one row holding the full aggregate as a JSON document plus a few
// extracted columns for listing and a version counter for optimistic
// concurrency.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ferrand/raido/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	client        TEXT NOT NULL DEFAULT '',
	current_stage INTEGER NOT NULL DEFAULT 1,
	is_late       INTEGER NOT NULL DEFAULT 0,
	start_date    DATETIME NOT NULL,
	doc           TEXT NOT NULL,
	version       INTEGER NOT NULL DEFAULT 1,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	project_id    TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_accounts_project ON accounts(project_id);
`

// ProjectStore is the document-store interface the service layer depends on.
type ProjectStore interface {
	Insert(ctx context.Context, p *models.Project) error
	Get(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context) ([]models.ProjectSummary, error)
	Update(ctx context.Context, p *models.Project, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}

// AccountStore persists login accounts.
type AccountStore interface {
	Insert(ctx context.Context, a *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) error
}

// DB wraps a sql.DB and exposes the typed sub-stores.
type DB struct {
	conn     *sql.DB
	Projects *Projects
	Accounts *Accounts
}

// Verify the sub-stores satisfy the interfaces at compile time.
var (
	_ ProjectStore = (*Projects)(nil)
	_ AccountStore = (*Accounts)(nil)
)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{
		conn:     conn,
		Projects: &Projects{conn: conn},
		Accounts: &Accounts{conn: conn},
	}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
