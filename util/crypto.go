package util

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Blake2b256 hashes concatenation of all data pieces
func Blake2b256(data ...[]byte) [32]byte {
	h, err := blake2b.New256(nil)
	AssertNoError(err)
	for _, d := range data {
		h.Write(d)
	}
	var ret [32]byte
	copy(ret[:], h.Sum(nil))
	return ret
}

func ED25519PrivateKeyFromHexString(str string) (ed25519.PrivateKey, error) {
	privateKeyBin, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	switch len(privateKeyBin) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(privateKeyBin), nil
	case ed25519.PrivateKeySize:
		return privateKeyBin, nil
	}
	return nil, fmt.Errorf("ED25519PrivateKeyFromHexString: wrong private key length %d", len(privateKeyBin))
}
