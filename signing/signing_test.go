package signing

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/lunfardo314/cellabi/abi"
	"github.com/lunfardo314/cellabi/util"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testSeed() []byte {
	ret := make([]byte, 32)
	for i := range ret {
		ret[i] = byte(i + 1)
	}
	return ret
}

func fastCache(t *testing.T, opts ...CacheOption) *DerivedKeyCache {
	c, err := NewDerivedKeyCache(append([]CacheOption{WithScryptParams(4, 8, 1)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestKeyPair(t *testing.T) {
	t.Run("seed", func(t *testing.T) {
		kp, err := KeyPairFromSeed(testSeed())
		require.NoError(t, err)
		h := util.Blake2b256([]byte("data"))
		sig, pub, err := kp.SignHash(context.Background(), h[:])
		require.NoError(t, err)
		require.EqualValues(t, ed25519.SignatureSize, len(sig))
		require.EqualValues(t, kp.PublicKey(), pub)
		require.True(t, kp.Verify(h[:], sig))

		_, _, err = kp.SignHash(context.Background(), []byte{1, 2})
		require.ErrorIs(t, err, ErrWrongHashLength)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err = kp.SignHash(ctx, h[:])
		require.ErrorIs(t, err, context.Canceled)

		_, err = KeyPairFromSeed([]byte{1})
		require.Error(t, err)
	})
	t.Run("hex", func(t *testing.T) {
		kp, err := KeyPairFromSeed(testSeed())
		require.NoError(t, err)
		kp1, err := KeyPairFromHex("0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")
		require.NoError(t, err)
		require.EqualValues(t, kp.PublicKeyHex(), kp1.PublicKeyHex())
	})
	t.Run("mnemonic", func(t *testing.T) {
		kp1, err := KeyPairFromMnemonic(testMnemonic, "")
		require.NoError(t, err)
		kp2, err := KeyPairFromMnemonic(testMnemonic, "")
		require.NoError(t, err)
		require.EqualValues(t, kp1.PublicKey(), kp2.PublicKey())
		kp3, err := KeyPairFromMnemonic(testMnemonic, "pass")
		require.NoError(t, err)
		require.NotEqualValues(t, kp1.PublicKey(), kp3.PublicKey())

		_, err = KeyPairFromMnemonic("abandon abandon", "")
		require.Error(t, err)

		m, err := NewMnemonic()
		require.NoError(t, err)
		_, err = KeyPairFromMnemonic(m, "")
		require.NoError(t, err)
	})
	t.Run("mnemonic known vector", func(t *testing.T) {
		const mnemonic = "abandon math mimic master filter design carbon crystal rookie group knife young"
		kp, err := KeyPairFromMnemonic(mnemonic, "")
		require.NoError(t, err)
		require.EqualValues(t, "61c3c5b97a33c9c0a03af112fbb27e3f44d99e1f804853f9842bb7a6e5de3ff9", kp.PublicKeyHex())

		kpDefault, err := KeyPairFromMnemonicPath(mnemonic, "", DefaultHDPath)
		require.NoError(t, err)
		require.EqualValues(t, kp.PublicKeyHex(), kpDefault.PublicKeyHex())

		master, err := KeyPairFromMnemonicPath(mnemonic, "", "m")
		require.NoError(t, err)
		require.NotEqualValues(t, kp.PublicKeyHex(), master.PublicKeyHex())
		other, err := KeyPairFromMnemonicPath(mnemonic, "", "m/44'/396'/0'/0/1")
		require.NoError(t, err)
		require.NotEqualValues(t, kp.PublicKeyHex(), other.PublicKeyHex())
	})
	t.Run("derivation path", func(t *testing.T) {
		p, err := ParseHDPath(DefaultHDPath)
		require.NoError(t, err)
		require.EqualValues(t, []uint32{0x8000002c, 0x8000018c, 0x80000000, 0, 0}, p)
		p, err = ParseHDPath("m")
		require.NoError(t, err)
		require.EqualValues(t, 0, len(p))

		for _, wrong := range []string{"", "44'/0", "m/", "m/x", "m/-1", "m/2147483648", "m/1''"} {
			_, err = ParseHDPath(wrong)
			util.RequireErrorWith(t, err, "wrong derivation path")
		}
		_, err = KeyPairFromMnemonicPath(testMnemonic, "", "m/0/")
		require.ErrorIs(t, err, ErrWrongHDPath)
	})
}

func TestDerivedKeyCache(t *testing.T) {
	t.Run("cached", func(t *testing.T) {
		c := fastCache(t, WithTTL(time.Minute))
		k1, err := c.Derive([]byte("password"), []byte("salt"))
		require.NoError(t, err)
		require.EqualValues(t, DerivedKeySize, len(k1))
		k2, err := c.Derive([]byte("password"), []byte("salt"))
		require.NoError(t, err)
		require.EqualValues(t, k1, k2)
		require.EqualValues(t, 1, c.Derivations())
		require.EqualValues(t, 1, c.Hits())

		k3, err := c.Derive([]byte("passwordsalt"), nil)
		require.NoError(t, err)
		require.NotEqualValues(t, k1, k3)
		require.EqualValues(t, 2, c.Derivations())
		require.EqualValues(t, 2, c.Len())
	})
	t.Run("concurrent", func(t *testing.T) {
		c := fastCache(t, WithTTL(time.Minute), WithScryptParams(12, 8, 1))
		var wg sync.WaitGroup
		keys := make([][]byte, 20)
		for i := range keys {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				var err error
				keys[i], err = c.Derive([]byte("password"), []byte("salt"))
				util.AssertNoError(err)
			}(i)
		}
		wg.Wait()
		for i := range keys {
			require.EqualValues(t, keys[0], keys[i])
		}
		require.EqualValues(t, 1, c.Derivations())
	})
	t.Run("expiry", func(t *testing.T) {
		var mutex sync.Mutex
		now := time.Now()
		clock := func() time.Time {
			mutex.Lock()
			defer mutex.Unlock()
			return now
		}
		advance := func(d time.Duration) {
			mutex.Lock()
			defer mutex.Unlock()
			now = now.Add(d)
		}
		c := fastCache(t, WithTTL(10*time.Second), withClock(clock))
		_, err := c.Derive([]byte("password"), []byte("salt"))
		require.NoError(t, err)
		advance(8 * time.Second)
		_, err = c.Derive([]byte("password"), []byte("salt"))
		require.NoError(t, err)
		require.EqualValues(t, 1, c.Derivations())
		// lifetime was extended by the hit
		advance(8 * time.Second)
		_, err = c.Derive([]byte("password"), []byte("salt"))
		require.NoError(t, err)
		require.EqualValues(t, 1, c.Derivations())

		advance(11 * time.Second)
		_, err = c.Derive([]byte("password"), []byte("salt"))
		require.NoError(t, err)
		require.EqualValues(t, 2, c.Derivations())
	})
	t.Run("wrong params", func(t *testing.T) {
		_, err := NewDerivedKeyCache(WithScryptParams(0, 8, 1))
		require.Error(t, err)
	})
}

func TestKeystore(t *testing.T) {
	ks := NewKeystore(fastCache(t, WithTTL(time.Minute)))
	kp, err := KeyPairFromSeed(testSeed())
	require.NoError(t, err)

	sealed, err := ks.EncryptKey([]byte("secret"), kp.PrivateKey())
	require.NoError(t, err)
	private, err := ks.DecryptKey([]byte("secret"), sealed)
	require.NoError(t, err)
	require.EqualValues(t, kp.PrivateKey(), private)

	_, err = ks.DecryptKey([]byte("wrong"), sealed)
	require.ErrorIs(t, err, ErrDecryptionFailed)
	_, err = ks.DecryptKey([]byte("secret"), sealed[1:])
	require.ErrorIs(t, err, ErrDecryptionFailed)

	t.Run("sealed signer", func(t *testing.T) {
		f := abi.MustNewFunction("transfer", abi.Params(abi.Uint(64)), nil)
		codec := abi.NewCodec()
		root, err := codec.EncodeSignedCall(context.Background(), f, []any{100}, ks.Signer([]byte("secret"), sealed))
		require.NoError(t, err)
		require.NoError(t, abi.VerifySignature(root))

		decoded, err := codec.DecodeCall(f, root)
		require.NoError(t, err)
		require.EqualValues(t, []byte(kp.PublicKey()), decoded.Slot.PublicKey)
	})
}
