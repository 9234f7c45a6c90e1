package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	fsStore, err := NewFS(t.TempDir())
	require.NoError(t, err)

	for name, s := range map[string]Store{"memory": NewMemory(), "fs": fsStore} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing.csv")
			assert.True(t, IsNotExist(err), "missing object must report ErrNotExist, got %v", err)

			require.NoError(t, s.Put(ctx, "table.csv", []byte("a,b\n1,2\n")))
			data, err := s.Get(ctx, "table.csv")
			require.NoError(t, err)
			assert.Equal(t, "a,b\n1,2\n", string(data))

			// Put replaces.
			require.NoError(t, s.Put(ctx, "table.csv", []byte("a,b\n3,4\n")))
			data, err = s.Get(ctx, "table.csv")
			require.NoError(t, err)
			assert.Equal(t, "a,b\n3,4\n", string(data))
		})
	}
}

func TestFSLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFS(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "ledger.csv", []byte("Date\n")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
	assert.Len(t, entries, 1)
	assert.Equal(t, "ledger.csv", filepath.Base(entries[0].Name()))
}
