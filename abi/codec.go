package abi

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/lunfardo314/cellabi/cell"
)

type (
	// Codec encodes and decodes call and response bodies. It is stateless and safe for concurrent use
	Codec struct {
		opts    *Options
		metrics *metrics
	}

	// PreparedCall is the unsigned body waiting for signature
	PreparedCall struct {
		Function *Function
		Unsigned *cell.Cell
		Slot     SignatureSlot
	}

	DecodedCall struct {
		Header Header
		Values []any
		Slot   SignatureSlot
	}
)

const (
	kindCall   = "call"
	kindOutput = "output"
)

func NewCodec(opts ...Option) *Codec {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Codec{
		opts:    cfg,
		metrics: newMetrics(cfg.MetricsRegistry),
	}
}

func (c *Codec) Version() byte {
	return c.opts.Version
}

func (p *PreparedCall) Hash() cell.Hash {
	return p.Slot.Hash
}

// encodeBody writes parameters, grows the chain once if the root can't take the header
// and the signature slot reference, then prepends the header
func (c *Codec) encodeBody(f *Function, params []Param, values []any, prefix, kind string) (*cell.Cell, error) {
	canonical, err := CoerceValues(params, values, prefix)
	if err != nil {
		return nil, err
	}
	w := newChainWriter()
	if err = prependParams(w, params, canonical, prefix); err != nil {
		return nil, err
	}
	if w.b.RefsFree() == 0 || w.b.BitsFree() < headerBits {
		if err = w.wrap(); err != nil {
			return nil, err
		}
	}
	if err = w.b.PrependBits(Header{Version: c.opts.Version, Selector: f.selector}.Bits()); err != nil {
		return nil, err
	}
	ret, err := w.finalize()
	if err != nil {
		return nil, err
	}
	c.metrics.encoded(kind, w.wraps, ret.Depth())
	c.opts.Log.Debugf("[abi] encoded %s %s: wraps: %d, depth: %d", kind, f.Name, w.wraps, ret.Depth())
	return ret, nil
}

func attachSlot(unsigned *cell.Cell, slot *SignatureSlot) (*cell.Cell, error) {
	sc, err := slot.Cell()
	if err != nil {
		return nil, err
	}
	b := unsigned.ToBuilder()
	if err = b.PrependReference(sc); err != nil {
		return nil, err
	}
	return b.Finalize()
}

func (c *Codec) failed(op string, err error) error {
	if err != nil {
		c.metrics.failed(op)
	}
	return err
}

// EncodeCall encodes unsigned call. The signature slot holds an empty cell
func (c *Codec) EncodeCall(f *Function, values []any) (*cell.Cell, error) {
	unsigned, err := c.encodeBody(f, f.Inputs, values, "inputs", kindCall)
	if err != nil {
		return nil, c.failed("encodeCall", err)
	}
	return attachSlot(unsigned, &SignatureSlot{Kind: SlotUnsigned})
}

// PrepareForSigning encodes the call body without the slot and returns its hash to be signed
func (c *Codec) PrepareForSigning(f *Function, values []any) (*PreparedCall, error) {
	unsigned, err := c.encodeBody(f, f.Inputs, values, "inputs", kindCall)
	if err != nil {
		return nil, c.failed("prepare", err)
	}
	return &PreparedCall{
		Function: f,
		Unsigned: unsigned,
		Slot: SignatureSlot{
			Kind: SlotPendingSignature,
			Hash: unsigned.Hash(),
		},
	}, nil
}

// AttachSignature completes prepared call. The slot becomes signature followed by public key
func (c *Codec) AttachSignature(p *PreparedCall, signature, publicKey []byte) (*cell.Cell, error) {
	if c.opts.VerifyOnAttach && p.Slot.Kind == SlotPendingSignature &&
		len(publicKey) == PublicKeySize && len(signature) == SignatureSize {
		if !ed25519.Verify(publicKey, p.Slot.Hash[:], signature) {
			return nil, c.failed("attach", ErrSignatureInvalid)
		}
	}
	if err := p.Slot.attach(signature, publicKey); err != nil {
		return nil, c.failed("attach", err)
	}
	ret, err := attachSlot(p.Unsigned, &p.Slot)
	if err != nil {
		return nil, c.failed("attach", err)
	}
	c.metrics.signed()
	c.opts.Log.Debugf("[abi] signature attached to %s, hash: %s", p.Function.Name, p.Slot.Hash.String())
	return ret, nil
}

// EncodeSignedCall runs both signing phases with the signer
func (c *Codec) EncodeSignedCall(ctx context.Context, f *Function, values []any, signer Signer) (*cell.Cell, error) {
	p, err := c.PrepareForSigning(f, values)
	if err != nil {
		return nil, err
	}
	hash := p.Hash()
	sig, pub, err := signer.SignHash(ctx, hash[:])
	if err != nil {
		return nil, c.failed("sign", fmt.Errorf("EncodeSignedCall: %w", err))
	}
	return c.AttachSignature(p, sig, pub)
}

func (c *Codec) checkHeader(f *Function, h Header) error {
	if h.Version != c.opts.Version {
		return fmt.Errorf("%w: expected %d, got %d", ErrWrongVersion, c.opts.Version, h.Version)
	}
	if h.Selector != f.selector {
		return fmt.Errorf("%w: expected 0x%08x, got 0x%08x", ErrWrongFunctionID, f.selector, h.Selector)
	}
	return nil
}

// DecodeCall decodes call body: signature slot, header, inputs. Data left after the inputs is an error
func (c *Codec) DecodeCall(f *Function, root *cell.Cell) (*DecodedCall, error) {
	ret, err := c.decodeCall(f, root)
	if err != nil {
		return nil, c.failed("decodeCall", err)
	}
	c.metrics.decoded(kindCall)
	return ret, nil
}

func (c *Codec) decodeCall(f *Function, root *cell.Cell) (*DecodedCall, error) {
	s := root.BeginParse()
	slotCell, err := s.ReadNextCell()
	if err != nil {
		return nil, ErrNoSignatureSlot
	}
	slot, err := parseSlot(slotCell)
	if err != nil {
		return nil, err
	}
	unsigned, err := UnsignedBody(root)
	if err != nil {
		return nil, err
	}
	slot.Hash = unsigned.Hash()

	r := newChainReader(s)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if err = c.checkHeader(f, h); err != nil {
		return nil, err
	}
	values, err := readParams(r, f.Inputs, "inputs")
	if err != nil {
		return nil, err
	}
	if err = r.checkConsumed(); err != nil {
		return nil, err
	}
	return &DecodedCall{Header: h, Values: values, Slot: slot}, nil
}

// EncodeOutput encodes response body: header and outputs, no signature slot
func (c *Codec) EncodeOutput(f *Function, values []any) (*cell.Cell, error) {
	ret, err := c.encodeBody(f, f.Outputs, values, "outputs", kindOutput)
	return ret, c.failed("encodeOutput", err)
}

// DecodeOutput decodes response body. Returns the selector found in the header,
// also together with ErrWrongFunctionID
func (c *Codec) DecodeOutput(f *Function, root *cell.Cell) ([]any, uint32, error) {
	r := newChainReader(root.BeginParse())
	h, err := readHeader(r)
	if err != nil {
		return nil, 0, c.failed("decodeOutput", err)
	}
	if err = c.checkHeader(f, h); err != nil {
		return nil, h.Selector, c.failed("decodeOutput", err)
	}
	values, err := readParams(r, f.Outputs, "outputs")
	if err != nil {
		return nil, h.Selector, c.failed("decodeOutput", err)
	}
	if err = r.checkConsumed(); err != nil {
		return nil, h.Selector, c.failed("decodeOutput", err)
	}
	c.metrics.decoded(kindOutput)
	return values, h.Selector, nil
}
