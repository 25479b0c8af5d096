package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	keyTheme      = "theme"
	keyLastFilter = "last_filter"
)

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q, expected light or dark", s)
}

type PreferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the stored value and whether the key exists.
func (r *PreferenceRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, true, nil
}

func (r *PreferenceRepository) Set(key, value string) error {
	query := `
	INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// Theme returns the saved theme, light when none was saved.
func (r *PreferenceRepository) Theme() (Theme, error) {
	value, ok, err := r.Get(keyTheme)
	if err != nil || !ok {
		return ThemeLight, err
	}
	theme, err := ParseTheme(value)
	if err != nil {
		return ThemeLight, nil
	}
	return theme, nil
}

func (r *PreferenceRepository) SetTheme(theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	return r.Set(keyTheme, string(theme))
}

// SaveLastFilter stores v as JSON.
func (r *PreferenceRepository) SaveLastFilter(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode last filter: %w", err)
	}
	return r.Set(keyLastFilter, string(raw))
}

// LoadLastFilter decodes the saved filter into v. It reports false when no
// filter was saved.
func (r *PreferenceRepository) LoadLastFilter(v any) (bool, error) {
	value, ok, err := r.Get(keyLastFilter)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(value), v); err != nil {
		return false, fmt.Errorf("decode last filter: %w", err)
	}
	return true, nil
}
