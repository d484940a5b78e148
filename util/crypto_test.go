package util

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestBlake2b256(t *testing.T) {
	require.EqualValues(t, blake2b.Sum256([]byte("abcdef")), Blake2b256([]byte("abc"), []byte("def")))
	require.EqualValues(t, blake2b.Sum256(nil), Blake2b256())
}

func TestPrivateKeyFromHex(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	pk := ed25519.NewKeyFromSeed(seed)
	t.Run("seed", func(t *testing.T) {
		ret, err := ED25519PrivateKeyFromHexString(hex.EncodeToString(seed))
		require.NoError(t, err)
		require.True(t, pk.Equal(ret))
	})
	t.Run("full", func(t *testing.T) {
		ret, err := ED25519PrivateKeyFromHexString(hex.EncodeToString(pk))
		require.NoError(t, err)
		require.True(t, pk.Equal(ret))
	})
	t.Run("wrong", func(t *testing.T) {
		_, err := ED25519PrivateKeyFromHexString("0102")
		RequireErrorWith(t, err, "wrong private key length")
		_, err = ED25519PrivateKeyFromHexString("zz")
		require.Error(t, err)
	})
}
