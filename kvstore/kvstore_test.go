package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stores under test share one behavioral contract.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "cursors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "NVDA")
			require.NoError(t, err)
			assert.False(t, ok, "missing key must not exist")

			require.NoError(t, s.Set(ctx, "NVDA", "2025-01-04"))
			v, ok, err := s.Get(ctx, "NVDA")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "2025-01-04", v)

			// Replace on conflict.
			require.NoError(t, s.Set(ctx, "NVDA", "2024-12-01"))
			v, _, err = s.Get(ctx, "NVDA")
			require.NoError(t, err)
			assert.Equal(t, "2024-12-01", v)

			require.NoError(t, s.Set(ctx, "VTI", "2025-02-01"))
			all, err := s.All(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"NVDA": "2024-12-01", "VTI": "2025-02-01"}, all)

			require.NoError(t, s.Delete(ctx, "NVDA"))
			_, ok, err = s.Get(ctx, "NVDA")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting a missing key is fine.
			require.NoError(t, s.Delete(ctx, "GONE"))
		})
	}
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cursors.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "QQQ", "2025-03-01"))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(ctx, "QQQ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2025-03-01", v)
}
