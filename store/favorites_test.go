package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	utils "cointrack/utilities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFavorites(t *testing.T) (*Favorites, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "favorites.json")
	f, err := NewFavorites(path, utils.NewLogger(utils.Error))
	require.NoError(t, err)
	return f, path
}

func TestFavorites_ToggleRoundTrip(t *testing.T) {
	f, _ := newTestFavorites(t)

	assert.True(t, f.Toggle("bitcoin"))
	assert.True(t, f.Has("bitcoin"))
	assert.Equal(t, []string{"bitcoin"}, f.IDs())

	// Double-toggle returns to the original state.
	assert.False(t, f.Toggle("bitcoin"))
	assert.False(t, f.Has("bitcoin"))
	assert.Empty(t, f.IDs())
}

func TestFavorites_PersistenceAcrossOpens(t *testing.T) {
	f, path := newTestFavorites(t)
	f.Toggle("bitcoin")
	f.Toggle("ethereum")

	fresh, err := NewFavorites(path, utils.NewLogger(utils.Error))
	require.NoError(t, err)
	assert.True(t, fresh.Has("bitcoin"))
	assert.True(t, fresh.Has("ethereum"))
	assert.Equal(t, []string{"bitcoin", "ethereum"}, fresh.IDs())
}

func TestFavorites_CorruptFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favorites.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	f, err := NewFavorites(path, utils.NewLogger(utils.Fatal))
	require.NoError(t, err)
	assert.Empty(t, f.IDs())

	// The store still works after the degraded open.
	f.Toggle("bitcoin")
	assert.True(t, f.Has("bitcoin"))
}

func TestFavorites_FileFormatIsJSONArray(t *testing.T) {
	f, path := newTestFavorites(t)
	f.Toggle("bitcoin")
	f.Toggle("cardano")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var list []string
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, []string{"bitcoin", "cardano"}, list)
}

func TestFavorites_SetReplacesWholeSet(t *testing.T) {
	f, _ := newTestFavorites(t)
	f.Toggle("bitcoin")

	f.Set([]string{"ethereum", "solana"})
	assert.False(t, f.Has("bitcoin"))
	assert.Equal(t, []string{"ethereum", "solana"}, f.IDs())
}

func TestFavorites_SubscribersNotifiedOnMutation(t *testing.T) {
	f, _ := newTestFavorites(t)

	var got [][]string
	unsubscribe := f.Subscribe(func(ids []string) {
		got = append(got, ids)
	})

	f.Toggle("bitcoin")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"bitcoin"}, got[0])

	unsubscribe()
	f.Toggle("ethereum")
	assert.Len(t, got, 1)
}

func TestFavorites_ReloadPicksUpExternalWrite(t *testing.T) {
	f, path := newTestFavorites(t)
	f.Toggle("bitcoin")

	var notified [][]string
	f.Subscribe(func(ids []string) {
		notified = append(notified, ids)
	})

	// Simulate another process rewriting the file.
	require.NoError(t, os.WriteFile(path, []byte(`["dogecoin"]`), 0644))

	f.Reload()
	assert.True(t, f.Has("dogecoin"))
	assert.False(t, f.Has("bitcoin"))
	require.Len(t, notified, 1)
	assert.Equal(t, []string{"dogecoin"}, notified[0])

	// Reload with no external change publishes nothing.
	f.Reload()
	assert.Len(t, notified, 1)
}

func TestFavorites_WriteFailureKeepsInMemoryUpdate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "favorites.json")
	f, err := NewFavorites(path, utils.NewLogger(utils.Fatal))
	require.NoError(t, err)

	// Replace the target with a directory so writes fail.
	require.NoError(t, os.Mkdir(path, 0755))

	assert.True(t, f.Toggle("bitcoin"))
	assert.True(t, f.Has("bitcoin"))
}
