package db

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

type prefixSealer struct{}

func (prefixSealer) Seal(p string) (string, error) { return "ENC[v1]:" + reverse(p), nil }
func (prefixSealer) Open(s string) (string, error) {
	if !strings.HasPrefix(s, "ENC[v1]:") {
		return "", errors.New("not sealed")
	}
	return reverse(strings.TrimPrefix(s, "ENC[v1]:")), nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func openMemory(t *testing.T) *Database {
	t.Helper()
	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestPreferencesRoundTrip(t *testing.T) {
	database := openMemory(t)
	prefs := database.Preferences(nil)
	ctx := context.Background()

	if _, err := prefs.Get(ctx, "themeMode"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := prefs.Set(ctx, "themeMode", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := prefs.Set(ctx, "themeMode", "light"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if v, err := prefs.Get(ctx, "themeMode"); err != nil || v != "light" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if err := prefs.Delete(ctx, "themeMode"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := prefs.Get(ctx, "themeMode"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := prefs.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestPreferencesSealsSecretKeys(t *testing.T) {
	database := openMemory(t)
	prefs := database.Preferences(prefixSealer{}, "accessToken")
	ctx := context.Background()

	if err := prefs.Set(ctx, "accessToken", "abc.def.ghi"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := prefs.Set(ctx, "themeMode", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var raw string
	if err := database.DB.QueryRow(`SELECT value FROM preferences WHERE key = 'accessToken'`).Scan(&raw); err != nil {
		t.Fatalf("raw read: %v", err)
	}
	if raw == "abc.def.ghi" || !strings.HasPrefix(raw, "ENC[v1]:") {
		t.Fatalf("token stored unsealed: %q", raw)
	}
	if err := database.DB.QueryRow(`SELECT value FROM preferences WHERE key = 'themeMode'`).Scan(&raw); err != nil || raw != "dark" {
		t.Fatalf("theme should be plain, got %q %v", raw, err)
	}

	if v, err := prefs.Get(ctx, "accessToken"); err != nil || v != "abc.def.ghi" {
		t.Fatalf("Get = %q, %v", v, err)
	}

	plain := database.Preferences(nil)
	if _, err := plain.Get(ctx, "accessToken"); err == nil {
		t.Fatal("reading a sealed value without a key must fail")
	}
}

func TestDrafts(t *testing.T) {
	database := openMemory(t)
	drafts := database.Drafts()
	ctx := context.Background()

	if err := drafts.Save(ctx, DraftRecord{Name: "x"}); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := drafts.Save(ctx, DraftRecord{ID: "d1", Name: "RSI bot", Data: []byte(`{"name":"RSI bot"}`)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := drafts.Save(ctx, DraftRecord{ID: "d2", Name: "MA bot", Data: []byte(`{}`)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := drafts.Save(ctx, DraftRecord{ID: "d1", Name: "RSI bot v2", Data: []byte(`{"name":"RSI bot v2"}`)}); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	rec, err := drafts.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Name != "RSI bot v2" || string(rec.Data) != `{"name":"RSI bot v2"}` {
		t.Fatalf("unexpected record %+v", rec)
	}

	list, err := drafts.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("List = %d, %v", len(list), err)
	}

	if err := drafts.Delete(ctx, "d2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := drafts.Delete(ctx, "d2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := drafts.Get(ctx, "d2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyMigrationsIdempotent(t *testing.T) {
	database := openMemory(t)
	if err := ApplyMigrations(database); err != nil {
		t.Fatalf("second ApplyMigrations: %v", err)
	}
	v, err := database.Version(context.Background())
	if err != nil || v != SchemaVersion() {
		t.Fatalf("version = %d, %v; want %d", v, err, SchemaVersion())
	}
}

func TestOpenFileMigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Preferences(nil).Set(context.Background(), "themeMode", "dark"); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if got, err := second.Preferences(nil).Get(context.Background(), "themeMode"); err != nil || got != "dark" {
		t.Fatalf("themeMode = %q, %v", got, err)
	}
}
