package keychain

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	_ "modernc.org/sqlite"
)

var (
	// ErrNoSecret is returned when a SQLite store is opened without a secret
	ErrNoSecret = errors.New("keychain: secret required")
	// ErrCorrupt is returned when a stored value fails authentication
	ErrCorrupt = errors.New("keychain: value failed authentication")
)

var hkdfInfo = []byte("walletshell-keychain-v1")

// SQLiteStore is a Store backed by a SQLite file with sealed values
type SQLiteStore struct {
	db     *sql.DB
	aead   cipher.AEAD
	logger *zap.Logger
}

// OpenSQLite opens (creating if needed) the store at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path, secret string, logger *zap.Logger) (*SQLiteStore, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create keychain directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keychain: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	aead, err := deriveAEAD(secret)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, aead: aead, logger: logger.Named("keychain")}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func deriveAEAD(secret string) (cipher.AEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	reader := hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive keychain key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return aead, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS keychain (
		key TEXT PRIMARY KEY,
		nonce BLOB NOT NULL,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate keychain: %w", err)
	}
	return nil
}

// LoadString returns the value for key
func (s *SQLiteStore) LoadString(ctx context.Context, key string) (string, error) {
	var nonce, sealed []byte
	err := s.db.QueryRowContext(ctx, `SELECT nonce, value FROM keychain WHERE key = ?`, key).Scan(&nonce, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}

	if len(nonce) != s.aead.NonceSize() {
		return "", fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	plain, err := s.aead.Open(nil, nonce, sealed, []byte(key))
	if err != nil {
		s.logger.Warn("Keychain value failed authentication", zap.String("key", key))
		return "", fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	return string(plain), nil
}

// SaveString seals and stores value under key
func (s *SQLiteStore) SaveString(ctx context.Context, key, value string) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nil, nonce, []byte(value), []byte(key))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO keychain (key, nonce, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET nonce = excluded.nonce, value = excluded.value, updated_at = excluded.updated_at`,
		key, nonce, sealed, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.logger.Debug("Keychain value saved", zap.String("key", key))
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
