package signing

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lunfardo314/cellabi/util"
	"github.com/tyler-smith/go-bip39"
)

var (
	ErrWrongHashLength = errors.New("signing: 32 byte hash expected")
	ErrWrongHDPath     = errors.New("signing: wrong derivation path")
)

// KeyPair is an ed25519 key which signs call hashes
type KeyPair struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

func NewKeyPair(private ed25519.PrivateKey) *KeyPair {
	util.Assertf(len(private) == ed25519.PrivateKeySize, "NewKeyPair: wrong private key length %d", len(private))
	return &KeyPair{
		private: private,
		public:  private.Public().(ed25519.PublicKey),
	}
}

func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("KeyPairFromSeed: %d bytes expected, got %d", ed25519.SeedSize, len(seed))
	}
	return NewKeyPair(ed25519.NewKeyFromSeed(seed)), nil
}

// KeyPairFromHex accepts hex encoded 32 byte seed or 64 byte private key
func KeyPairFromHex(s string) (*KeyPair, error) {
	private, err := util.ED25519PrivateKeyFromHexString(s)
	if err != nil {
		return nil, err
	}
	return NewKeyPair(private), nil
}

// DefaultHDPath is the BIP44 path of the signing key derived from a mnemonic
const DefaultHDPath = "m/44'/396'/0'/0/0"

// KeyPairFromMnemonic derives key along DefaultHDPath
func KeyPairFromMnemonic(mnemonic, passphrase string) (*KeyPair, error) {
	return KeyPairFromMnemonicPath(mnemonic, passphrase, DefaultHDPath)
}

// KeyPairFromMnemonicPath derives BIP32 master key from the BIP39 seed and walks the path.
// The 32 byte secret of the resulting extended key is used as ed25519 seed
func KeyPairFromMnemonicPath(mnemonic, passphrase, path string) (*KeyPair, error) {
	indices, err := ParseHDPath(path)
	if err != nil {
		return nil, fmt.Errorf("KeyPairFromMnemonicPath: %w", err)
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("KeyPairFromMnemonicPath: %w", err)
	}
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("KeyPairFromMnemonicPath: %w", err)
	}
	for _, i := range indices {
		if key, err = key.Derive(i); err != nil {
			return nil, fmt.Errorf("KeyPairFromMnemonicPath: derive %s: %w", path, err)
		}
	}
	private, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("KeyPairFromMnemonicPath: %w", err)
	}
	return KeyPairFromSeed(private.Serialize())
}

// ParseHDPath parses derivation path like m/44'/396'/0'/0/0 into child indices.
// Path "m" is the master key
func ParseHDPath(path string) ([]uint32, error) {
	steps := strings.Split(path, "/")
	if steps[0] != "m" {
		return nil, fmt.Errorf("%w: '%s' must start with 'm'", ErrWrongHDPath, path)
	}
	ret := make([]uint32, 0, len(steps)-1)
	for _, step := range steps[1:] {
		hardened := strings.HasSuffix(step, "'")
		n, err := strconv.ParseUint(strings.TrimSuffix(step, "'"), 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: '%s': wrong step '%s'", ErrWrongHDPath, path, step)
		}
		i := uint32(n)
		if hardened {
			i += hdkeychain.HardenedKeyStart
		}
		ret = append(ret, i)
	}
	return ret, nil
}

// NewMnemonic generates random 24 word mnemonic
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

func (k *KeyPair) PublicKey() ed25519.PublicKey {
	return k.public
}

func (k *KeyPair) PrivateKey() ed25519.PrivateKey {
	return k.private
}

func (k *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(k.public)
}

func (k *KeyPair) SignHash(ctx context.Context, hash []byte) ([]byte, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(hash) != 32 {
		return nil, nil, ErrWrongHashLength
	}
	return ed25519.Sign(k.private, hash), k.public, nil
}

func (k *KeyPair) Verify(hash, signature []byte) bool {
	return ed25519.Verify(k.public, hash, signature)
}
