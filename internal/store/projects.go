package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ferrand/raido/internal/apperr"
	"github.com/ferrand/raido/internal/models"
)

// Projects is the SQLite-backed project document store.
type Projects struct {
	conn *sql.DB
}

// Insert stores a new project aggregate with version 1.
func (db *Projects) Insert(ctx context.Context, p *models.Project) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: marshal project: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO projects (id, name, client, current_stage, is_late, start_date, doc, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)
	`, p.ID, p.Name, p.Client, p.CurrentStage, boolToInt(p.IsLate), p.StartDate, string(doc), time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: insert project: %w", err)
	}
	p.Version = 1
	return nil
}

// Get loads the full aggregate and stamps it with the stored version.
func (db *Projects) Get(ctx context.Context, id string) (*models.Project, error) {
	var doc string
	var version int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT doc, version FROM projects WHERE id = ?`, id).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get project: %w", err)
	}
	var p models.Project
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("store: unmarshal project %s: %w", id, err)
	}
	p.Version = version
	return &p, nil
}

// List returns lightweight summaries ordered by start date, newest first.
func (db *Projects) List(ctx context.Context) ([]models.ProjectSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, client, current_stage, is_late, start_date
		FROM projects ORDER BY start_date DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	out := []models.ProjectSummary{}
	for rows.Next() {
		var s models.ProjectSummary
		var late int
		if err := rows.Scan(&s.ID, &s.Name, &s.Client, &s.CurrentStage, &late, &s.StartDate); err != nil {
			return nil, fmt.Errorf("store: scan project row: %w", err)
		}
		s.IsLate = late != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update writes the whole aggregate back under compare-and-swap: the row must
// still carry expectedVersion or the write is refused with ErrStaleProject.
// On success the project's version is bumped in place.
func (db *Projects) Update(ctx context.Context, p *models.Project, expectedVersion int64) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: marshal project: %w", err)
	}
	res, err := db.conn.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, client = ?, current_stage = ?, is_late = ?, doc = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, p.Name, p.Client, p.CurrentStage, boolToInt(p.IsLate), string(doc),
		time.Now().UTC(), p.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("store: update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		// Either the row is gone or someone else won the race.
		var exists int
		if scanErr := db.conn.QueryRowContext(ctx,
			`SELECT 1 FROM projects WHERE id = ?`, p.ID).Scan(&exists); errors.Is(scanErr, sql.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return apperr.ErrStaleProject
	}
	p.Version = expectedVersion + 1
	return nil
}

// Delete removes the project document. Stages, comments, and file references
// live inside the document, so the cascade is implicit; bound client accounts
// are removed by the service layer.
func (db *Projects) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
