package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("20240310T090000-events.csv", []byte("ID,Event\n1,Tech Fair\n"))
	require.NoError(t, err)
	require.Equal(t, "20240310T090000-events.csv", name)

	file, err := store.Open(name)
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Contains(t, string(data), "Tech Fair")
}

func TestLocalStorageOpenMissing(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open("absent.csv")
	require.Error(t, err)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old-events.csv", []byte("stale"))
	require.NoError(t, err)
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old-events.csv"), stale, stale))

	_, err = store.Save("fresh-events.csv", []byte("fresh"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{"old-events.csv"}, deleted)

	_, err = os.Stat(filepath.Join(dir, "fresh-events.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "old-events.csv"))
	require.True(t, os.IsNotExist(err))
}
