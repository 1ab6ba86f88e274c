package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiskStoreSaveOpenDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	written, err := store.Save(ctx, "submissions/report.pdf", strings.NewReader("hello"))
	require.NoError(t, err)
	require.Equal(t, int64(5), written)

	exists, err := store.Exists(ctx, "submissions/report.pdf")
	require.NoError(t, err)
	require.True(t, exists)

	reader, err := store.Open(ctx, "submissions/report.pdf")
	require.NoError(t, err)
	content, err := io.ReadAll(reader)
	require.NoError(t, reader.Close())
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))

	require.NoError(t, store.Delete(ctx, "submissions/report.pdf"))

	exists, err = store.Exists(ctx, "submissions/report.pdf")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestDiskStoreMissingBlob(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	_, err = store.Open(ctx, "submissions/missing.pdf")
	require.ErrorIs(t, err, ErrNotExist)

	err = store.Delete(ctx, "submissions/missing.pdf")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestDiskStoreRejectsEscapingNames(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	for _, name := range []string{"../outside.txt", "/etc/passwd", "submissions/../../outside.txt", ""} {
		_, err := store.Save(ctx, name, strings.NewReader("x"))
		require.Error(t, err, "name %q should be rejected", name)
	}
}
