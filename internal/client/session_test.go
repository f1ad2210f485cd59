package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "portal", "session.json"))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded) // Nothing saved yet

	require.NoError(t, store.Save(&Session{WalletAddress: "0xABC", Token: "tok"}))
	loaded, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "0xABC", loaded.WalletAddress)
	assert.Equal(t, "tok", loaded.Token)

	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Clearing twice is fine
	require.NoError(t, store.Clear())
}
