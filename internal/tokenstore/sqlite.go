package tokenstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// tokenKey is the storage key for the bearer token. Earlier clients used
// "bytefinance_token" in places; reads fall back to it once.
const (
	tokenKey       = "auth_token"
	legacyTokenKey = "bytefinance_token"
)

// SQLite persists the token in a small key/value table so the session
// survives restarts.
type SQLite struct {
	db *sql.DB
}

func Open(path string) (*SQLite, error) {
	if path == "" {
		path = "bytefinance.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=3000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS credentials (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Token() (string, error) {
	token, err := s.get(tokenKey)
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}
	return s.get(legacyTokenKey)
}

func (s *SQLite) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return value, nil
}

func (s *SQLite) SetToken(token string) error {
	if token == "" {
		return s.Clear()
	}
	_, err := s.db.Exec(`INSERT INTO credentials(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, tokenKey, token)
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (s *SQLite) Clear() error {
	_, err := s.db.Exec(`DELETE FROM credentials WHERE key IN (?, ?)`, tokenKey, legacyTokenKey)
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
