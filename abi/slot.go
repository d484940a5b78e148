package abi

import (
	"crypto/ed25519"
	"fmt"

	"github.com/lunfardo314/cellabi/cell"
)

type SlotKind byte

const (
	SlotUnsigned = SlotKind(iota)
	SlotPendingSignature
	SlotSigned
)

const (
	SignatureSize  = ed25519.SignatureSize
	PublicKeySize  = ed25519.PublicKeySize
	signedSlotBits = (SignatureSize + PublicKeySize) * 8
)

func (k SlotKind) String() string {
	switch k {
	case SlotUnsigned:
		return "unsigned"
	case SlotPendingSignature:
		return "pending signature"
	case SlotSigned:
		return "signed"
	}
	return fmt.Sprintf("slot(%d)", k)
}

// SignatureSlot is the state of the first reference of the call root.
// Unsigned -> empty cell. PendingSignature -> Hash awaits signature. Signed -> signature followed by public key
type SignatureSlot struct {
	Kind      SlotKind
	Hash      cell.Hash
	Signature []byte
	PublicKey []byte
}

func (s *SignatureSlot) Cell() (*cell.Cell, error) {
	switch s.Kind {
	case SlotUnsigned:
		return cell.Empty(), nil
	case SlotSigned:
		data := make([]byte, 0, SignatureSize+PublicKeySize)
		data = append(data, s.Signature...)
		data = append(data, s.PublicKey...)
		return cell.New(cell.BitStringFromBytes(data))
	}
	return nil, fmt.Errorf("%w: slot with %s can't be serialized", ErrSlotState, s.Kind)
}

// attach moves pending slot to signed
func (s *SignatureSlot) attach(signature, publicKey []byte) error {
	if s.Kind != SlotPendingSignature {
		return fmt.Errorf("%w: signature can't be attached to slot with %s", ErrSlotState, s.Kind)
	}
	if len(signature) != SignatureSize {
		return fmt.Errorf("%w: signature must be %d bytes, got %d", ErrMalformedSignature, SignatureSize, len(signature))
	}
	if len(publicKey) != PublicKeySize {
		return fmt.Errorf("%w: public key must be %d bytes, got %d", ErrMalformedSignature, PublicKeySize, len(publicKey))
	}
	s.Kind = SlotSigned
	s.Signature = append([]byte(nil), signature...)
	s.PublicKey = append([]byte(nil), publicKey...)
	return nil
}

// parseSlot interprets the slot cell: empty or exactly signature and public key
func parseSlot(c *cell.Cell) (SignatureSlot, error) {
	if c.RefsLen() != 0 {
		return SignatureSlot{}, fmt.Errorf("%w: slot cell has references", ErrMalformedSignature)
	}
	switch c.BitsLen() {
	case 0:
		return SignatureSlot{Kind: SlotUnsigned}, nil
	case signedSlotBits:
		data := c.Bits().Bytes()
		return SignatureSlot{
			Kind:      SlotSigned,
			Signature: data[:SignatureSize],
			PublicKey: data[SignatureSize:],
		}, nil
	}
	return SignatureSlot{}, fmt.Errorf("%w: slot of %d bits", ErrMalformedSignature, c.BitsLen())
}
