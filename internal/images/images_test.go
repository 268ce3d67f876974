package images

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "notes.txt", "c.webp", ".hidden"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.png"), 0o700))

	ids, err := List(dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "c.webp"),
	}, ids)
}

func TestListEmptyAndMissing(t *testing.T) {
	t.Parallel()

	ids, err := List(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, ids)

	_, err = List(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
