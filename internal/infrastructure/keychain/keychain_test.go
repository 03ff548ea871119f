package keychain

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(context.Background(), ":memory:", "test-secret", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.LoadString(ctx, "analyticsUserIdentifier")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.SaveString(ctx, "analyticsUserIdentifier", "first"))
			require.NoError(t, store.SaveString(ctx, "analyticsUserIdentifier", "second"))

			v, err := store.LoadString(ctx, "analyticsUserIdentifier")
			require.NoError(t, err)
			assert.Equal(t, "second", v)
		})
	}
}

func TestSQLiteRequiresSecret(t *testing.T) {
	_, err := OpenSQLite(context.Background(), ":memory:", "", nil)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestSQLitePersistsAndSeals(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "keychain.db")

	s, err := OpenSQLite(ctx, path, "secret-a", nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveString(ctx, "walletAddress", "0xabc"))

	var raw []byte
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT value FROM keychain WHERE key = ?`, "walletAddress").Scan(&raw))
	assert.NotContains(t, string(raw), "0xabc")
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path, "secret-a", nil)
	require.NoError(t, err)
	v, err := reopened.LoadString(ctx, "walletAddress")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", v)
	require.NoError(t, reopened.Close())

	wrong, err := OpenSQLite(ctx, path, "secret-b", nil)
	require.NoError(t, err)
	defer wrong.Close()
	_, err = wrong.LoadString(ctx, "walletAddress")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSQLiteBindsKey(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:", "secret", nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveString(ctx, "a", "value"))
	_, err = s.db.ExecContext(ctx, `INSERT INTO keychain (key, nonce, value, updated_at)
		SELECT 'b', nonce, value, updated_at FROM keychain WHERE key = 'a'`)
	require.NoError(t, err)

	_, err = s.LoadString(ctx, "b")
	assert.ErrorIs(t, err, ErrCorrupt)
}
