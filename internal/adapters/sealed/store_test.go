package sealed

import (
	"context"
	"strings"
	"testing"

	"github.com/arco-rh/arco-client/internal/adapters/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hexKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newSealed(t *testing.T, secret string) (*Store, *memory.Store) {
	t.Helper()
	c, err := NewCipher(secret)
	require.NoError(t, err)
	inner := memory.NewStore()
	return NewStore(Options{Inner: inner, Cipher: c}), inner
}

func TestNewCipher_RequiresSecret(t *testing.T) {
	_, err := NewCipher("")
	require.Error(t, err)
}

func TestCipher_SealOpen(t *testing.T) {
	for _, secret := range []string{hexKey, "a passphrase"} {
		c, err := NewCipher(secret)
		require.NoError(t, err)

		sealed, err := c.Seal("tok123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sealed, sealedPrefixV1))
		assert.NotContains(t, sealed, "tok123")

		again, err := c.Seal("tok123")
		require.NoError(t, err)
		assert.NotEqual(t, sealed, again, "nonces must differ")

		plain, err := c.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, "tok123", plain)
	}
}

func TestCipher_OpenErrors(t *testing.T) {
	c, err := NewCipher(hexKey)
	require.NoError(t, err)

	_, err = c.Open("plain")
	require.ErrorIs(t, err, ErrNotSealed)

	_, err = c.Open("v1:!!!")
	require.Error(t, err)

	_, err = c.Open("v1:AAAA")
	require.Error(t, err)

	other, err := NewCipher("different")
	require.NoError(t, err)
	sealed, err := other.Seal("x")
	require.NoError(t, err)
	_, err = c.Open(sealed)
	require.Error(t, err)
}

func TestStore_SealsAtRest(t *testing.T) {
	ctx := context.Background()
	store, inner := newSealed(t, hexKey)

	require.NoError(t, store.Set(ctx, "token", "tok123"))

	raw, ok, err := inner.Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "tok123")

	got, ok, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok123", got)

	require.NoError(t, store.Delete(ctx, "token"))
	_, ok, err = store.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ReadsLegacyPlaintext(t *testing.T) {
	ctx := context.Background()
	store, inner := newSealed(t, hexKey)
	require.NoError(t, inner.Set(ctx, "token", "legacy"))

	got, ok, err := store.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "legacy", got)
}

func TestStore_WrongKeyFails(t *testing.T) {
	ctx := context.Background()
	writer, inner := newSealed(t, "first")
	require.NoError(t, writer.Set(ctx, "token", "tok123"))

	c, err := NewCipher("second")
	require.NoError(t, err)
	reader := NewStore(Options{Inner: inner, Cipher: c})

	_, ok, err := reader.Get(ctx, "token")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestNewStore_PanicsWithoutDeps(t *testing.T) {
	assert.Panics(t, func() { NewStore(Options{}) })
	assert.Panics(t, func() { NewStore(Options{Inner: memory.NewStore()}) })
}
