package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DraftRecord is a serialized bot draft.
type DraftRecord struct {
	ID        string
	Name      string
	Data      []byte
	UpdatedAt time.Time
}

// Drafts persists bot drafts between CLI invocations.
type Drafts struct {
	db *sql.DB
}

func (d *Database) Drafts() *Drafts {
	return &Drafts{db: d.DB}
}

func (s *Drafts) Save(ctx context.Context, rec DraftRecord) error {
	if rec.ID == "" {
		return errors.New("draft id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, name, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, data = excluded.data,
			updated_at = CURRENT_TIMESTAMP`, rec.ID, rec.Name, string(rec.Data))
	if err != nil {
		return fmt.Errorf("save draft %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Drafts) Get(ctx context.Context, id string) (DraftRecord, error) {
	var (
		rec  DraftRecord
		data string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, data, updated_at FROM drafts WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Name, &data, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DraftRecord{}, ErrNotFound
	}
	if err != nil {
		return DraftRecord{}, fmt.Errorf("get draft %s: %w", id, err)
	}
	rec.Data = []byte(data)
	return rec, nil
}

// List returns drafts, most recently updated first.
func (s *Drafts) List(ctx context.Context) ([]DraftRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, data, updated_at FROM drafts ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var out []DraftRecord
	for rows.Next() {
		var (
			rec  DraftRecord
			data string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &data, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Data = []byte(data)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Drafts) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
