package abi

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/lunfardo314/cellabi/cell"
)

// Signer produces ed25519 signature of the hash. May block, for example waiting for a hardware wallet
type Signer interface {
	SignHash(ctx context.Context, hash []byte) (signature, publicKey []byte, err error)
}

// UnsignedBody removes signature slot from the call root
func UnsignedBody(root *cell.Cell) (*cell.Cell, error) {
	if root.RefsLen() == 0 {
		return nil, ErrNoSignatureSlot
	}
	return cell.New(root.Bits(), root.Refs()[1:]...)
}

// VerifySignature checks signature in the slot of signed call against the hash of the unsigned body
func VerifySignature(root *cell.Cell) error {
	if root.RefsLen() == 0 {
		return ErrNoSignatureSlot
	}
	slot, err := parseSlot(root.Ref(0))
	if err != nil {
		return err
	}
	if slot.Kind != SlotSigned {
		return fmt.Errorf("%w: call is not signed", ErrSlotState)
	}
	unsigned, err := UnsignedBody(root)
	if err != nil {
		return err
	}
	h := unsigned.Hash()
	if !ed25519.Verify(slot.PublicKey, h[:], slot.Signature) {
		return ErrSignatureInvalid
	}
	return nil
}
