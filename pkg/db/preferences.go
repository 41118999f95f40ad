package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Sealer encrypts values at rest. *crypto.Sealer satisfies it.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// Preferences is the durable key/value store behind the session: the access
// token and the theme mode live here between runs.
type Preferences struct {
	db     *sql.DB
	sealer Sealer
	secret map[string]bool
}

// Preferences returns a store over d. Keys listed in secretKeys are sealed
// with s before being written; a nil sealer stores them as plain text.
func (d *Database) Preferences(s Sealer, secretKeys ...string) *Preferences {
	p := &Preferences{db: d.DB, sealer: s, secret: make(map[string]bool, len(secretKeys))}
	for _, k := range secretKeys {
		p.secret[k] = true
	}
	return p
}

// Get returns the stored value or ErrNotFound.
func (p *Preferences) Get(ctx context.Context, key string) (string, error) {
	var (
		value  string
		sealed bool
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT value, sealed FROM preferences WHERE key = ?`, key).Scan(&value, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get preference %s: %w", key, err)
	}
	if !sealed {
		return value, nil
	}
	if p.sealer == nil {
		return "", fmt.Errorf("preference %s is sealed but no key is configured", key)
	}
	plain, err := p.sealer.Open(value)
	if err != nil {
		return "", fmt.Errorf("open preference %s: %w", key, err)
	}
	return plain, nil
}

// Set upserts a value.
func (p *Preferences) Set(ctx context.Context, key, value string) error {
	sealed := false
	if p.secret[key] && p.sealer != nil {
		v, err := p.sealer.Seal(value)
		if err != nil {
			return fmt.Errorf("seal preference %s: %w", key, err)
		}
		value, sealed = v, true
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, sealed, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, sealed = excluded.sealed,
			updated_at = CURRENT_TIMESTAMP`, key, value, sealed)
	if err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// Delete removes a key; deleting a missing key is not an error.
func (p *Preferences) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete preference %s: %w", key, err)
	}
	return nil
}
