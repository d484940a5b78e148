package signing

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	saltSize  = 16
	nonceSize = 24
)

var ErrDecryptionFailed = errors.New("signing: wrong password or corrupted key data")

// Keystore keeps ed25519 keys sealed with secretbox under scrypt-derived keys
type Keystore struct {
	cache *DerivedKeyCache
}

func NewKeystore(cache *DerivedKeyCache) *Keystore {
	return &Keystore{cache: cache}
}

// EncryptKey seals private key. Result is salt || nonce || box
func (ks *Keystore) EncryptKey(password []byte, private ed25519.PrivateKey) ([]byte, error) {
	if len(private) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("EncryptKey: wrong private key length %d", len(private))
	}
	var salt [saltSize]byte
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	secret, err := ks.secret(password, salt[:])
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, saltSize+nonceSize+len(private)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, private.Seed(), &nonce, secret), nil
}

func (ks *Keystore) DecryptKey(password, data []byte) (ed25519.PrivateKey, error) {
	if len(data) != saltSize+nonceSize+ed25519.SeedSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: wrong data length %d", ErrDecryptionFailed, len(data))
	}
	secret, err := ks.secret(password, data[:saltSize])
	if err != nil {
		return nil, err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], data[saltSize:saltSize+nonceSize])
	seed, ok := secretbox.Open(nil, data[saltSize+nonceSize:], &nonce, secret)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func (ks *Keystore) secret(password, salt []byte) (*[32]byte, error) {
	key, err := ks.cache.Derive(password, salt)
	if err != nil {
		return nil, err
	}
	var ret [32]byte
	copy(ret[:], key)
	return &ret, nil
}

// Signer unseals the key on each signature. Repeated signing within the cache lifetime skips scrypt
func (ks *Keystore) Signer(password, sealed []byte) *SealedSigner {
	return &SealedSigner{
		ks:       ks,
		password: append([]byte(nil), password...),
		sealed:   append([]byte(nil), sealed...),
	}
}

type SealedSigner struct {
	ks       *Keystore
	password []byte
	sealed   []byte
}

func (s *SealedSigner) SignHash(ctx context.Context, hash []byte) ([]byte, []byte, error) {
	private, err := s.ks.DecryptKey(s.password, s.sealed)
	if err != nil {
		return nil, nil, err
	}
	return NewKeyPair(private).SignHash(ctx, hash)
}

func SealedFromHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
