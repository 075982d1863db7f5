package credentials

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "token"))

	_, err := store.Token()
	assert.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, store.Save("  abc123\n"))
	token, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	require.NoError(t, store.Clear())
	_, err = store.Token()
	assert.ErrorIs(t, err, ErrNoCredential)

	// Clearing twice is fine.
	require.NoError(t, store.Clear())
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("t").Token()
	require.NoError(t, err)
	assert.Equal(t, "t", token)

	_, err = StaticToken("").Token()
	assert.ErrorIs(t, err, ErrNoCredential)
}
