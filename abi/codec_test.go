package abi

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math/big"
	"testing"

	"github.com/lunfardo314/cellabi/boc"
	"github.com/lunfardo314/cellabi/cell"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type keySigner struct {
	key ed25519.PrivateKey
}

func (s keySigner) SignHash(_ context.Context, hash []byte) ([]byte, []byte, error) {
	return ed25519.Sign(s.key, hash), s.key.Public().(ed25519.PublicKey), nil
}

func testKey() ed25519.PrivateKey {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return ed25519.NewKeyFromSeed(seed)
}

func bigInt(s string) *big.Int {
	ret, ok := new(big.Int).SetString(s, 0)
	if !ok {
		panic("wrong integer " + s)
	}
	return ret
}

func allKindsFunction() *Function {
	return MustNewFunction("allKinds", []Param{
		NewParam("u8", Uint(8)),
		NewParam("u256", Uint(256)),
		NewParam("i257", Int(257)),
		NewParam("i3", Int(3)),
		NewParam("flag", Bool()),
		NewParam("raw", Bits(13)),
		NewParam("d", Dint()),
		NewParam("du", Duint()),
		NewParam("fixed", FixedArray(Uint(16), 3)),
		NewParam("dyn", DynamicArray(Int(32))),
		NewParam("nested", DynamicArray(FixedArray(Bool(), 2))),
		NewParam("pair", Tuple(NewParam("a", Dint()), NewParam("b", DynamicArray(Uint(8))))),
		NewParam("empty", Tuple()),
	}, Params(Bool()))
}

func allKindsValues() []any {
	raw, _ := cell.ParseBitString("0b1010101010101")
	return []any{
		255,
		bigInt("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"),
		bigInt("-0x10000000000000000000000000000000000000000000000000000000000000000"),
		-4,
		true,
		raw,
		"-123456789012345678901234567890",
		uint64(1 << 63),
		[]any{1, 2, 3},
		[]int{-1, 0, 1, 1 << 30},
		[]any{[]any{true, false}, []bool{false, true}},
		map[string]any{"a": -8, "b": []byte{1, 2, 3}},
		[]any{},
	}
}

func requireRoundTrip(t *testing.T, c *Codec, f *Function, values []any) *cell.Cell {
	root, err := c.EncodeCall(f, values)
	require.NoError(t, err)

	data, err := boc.SerializeSingleRoot(root)
	require.NoError(t, err)
	back, err := boc.DeserializeSingleRoot(data)
	require.NoError(t, err)
	require.EqualValues(t, root.Hash(), back.Hash())

	decoded, err := c.DecodeCall(f, back)
	require.NoError(t, err)
	expected, err := CoerceValues(f.Inputs, values, "inputs")
	require.NoError(t, err)
	require.EqualValues(t, len(expected), len(decoded.Values))
	for i := range expected {
		require.True(t, EqualValues(expected[i], decoded.Values[i]), "param %d: %v != %v", i, PlainValue(expected[i]), PlainValue(decoded.Values[i]))
	}
	require.EqualValues(t, SlotUnsigned, decoded.Slot.Kind)

	again, err := c.EncodeCall(f, decoded.Values)
	require.NoError(t, err)
	require.EqualValues(t, root.Hash(), again.Hash())
	t.Logf("%s: boc size %d, depth %d", f.Name, len(data), root.Depth())
	return root
}

func TestRoundTrip(t *testing.T) {
	c := NewCodec()
	t.Run("all kinds", func(t *testing.T) {
		requireRoundTrip(t, c, allKindsFunction(), allKindsValues())
	})
	t.Run("no params", func(t *testing.T) {
		requireRoundTrip(t, c, MustNewFunction("noop", nil, nil), []any{})
	})
	t.Run("bits across cells", func(t *testing.T) {
		f := MustNewFunction("bits", Params(Bits(1023), Bits(1023), Bits(7)), nil)
		var w cell.BitWriter
		for i := 0; i < 1023; i++ {
			w.WriteBit(i%3 == 0)
		}
		b1 := w.BitString()
		requireRoundTrip(t, c, f, []any{b1, b1, "0b1100101"})
	})
	t.Run("dint across cells", func(t *testing.T) {
		types := make([]ParamType, 0)
		values := make([]any, 0)
		for i := 0; i < 40; i++ {
			types = append(types, Dint(), Duint())
			v := new(big.Int).Lsh(big.NewInt(int64(i+1)), uint(i*5))
			values = append(values, new(big.Int).Neg(v), v)
		}
		requireRoundTrip(t, c, MustNewFunction("dints", Params(types...), nil), values)
	})
}

func TestChainGrowth(t *testing.T) {
	c := NewCodec()
	types := make([]ParamType, 10)
	values := make([]any, 10)
	for i := range types {
		types[i] = Uint(256)
		values[i] = new(big.Int).Lsh(big.NewInt(int64(i+1)), 200)
	}
	f := MustNewFunction("wide", Params(types...), nil)
	root := requireRoundTrip(t, c, f, values)
	require.True(t, root.Depth() >= 2)
	require.True(t, root.BitsLen() >= headerBits)
	require.True(t, root.Ref(0).IsEmpty())

	t.Run("root full of references", func(t *testing.T) {
		// four dynamic arrays fill all references of the front cell
		arr := DynamicArray(Uint(8))
		f := MustNewFunction("refs", Params(arr, arr, arr, arr), nil)
		one := []any{[]any{1}, []any{2}, []any{3}, []any{4}}
		root := requireRoundTrip(t, c, f, one)
		// header and slot are in the new front cell, the old one is its continuation
		require.EqualValues(t, headerBits, root.BitsLen())
		require.EqualValues(t, 2, root.RefsLen())
		require.EqualValues(t, 4, root.Ref(1).RefsLen())
	})
}

func TestFixedArrayForms(t *testing.T) {
	c := NewCodec()
	values := func(k int) []any {
		ret := make([]any, k)
		for i := range ret {
			ret[i] = i % 256
		}
		return []any{ret}
	}
	t.Run("inline", func(t *testing.T) {
		f := MustNewFunction("fixed", Params(FixedArray(Uint(8), 100)), nil)
		root := requireRoundTrip(t, c, f, values(100))
		require.EqualValues(t, headerBits+2+800, root.BitsLen())
		require.EqualValues(t, 1, root.RefsLen())
		require.EqualValues(t, 0b10, root.Bits().Uint(headerBits, 2))
	})
	t.Run("inline, header moved to new cell", func(t *testing.T) {
		f := MustNewFunction("fixed", Params(FixedArray(Uint(8), 127)), nil)
		root := requireRoundTrip(t, c, f, values(127))
		require.EqualValues(t, headerBits, root.BitsLen())
		require.EqualValues(t, 2, root.RefsLen())
		require.EqualValues(t, 2+127*8, root.Ref(1).BitsLen())
	})
	t.Run("branch", func(t *testing.T) {
		for _, k := range []int{128, 129, 300} {
			f := MustNewFunction("fixed", Params(FixedArray(Uint(8), k)), nil)
			root := requireRoundTrip(t, c, f, values(k))
			require.EqualValues(t, headerBits+2, root.BitsLen())
			require.EqualValues(t, 2, root.RefsLen())
			require.EqualValues(t, 0b00, root.Bits().Uint(headerBits, 2))
		}
	})
	t.Run("empty", func(t *testing.T) {
		f := MustNewFunction("fixed", Params(FixedArray(Uint(8), 0)), nil)
		requireRoundTrip(t, c, f, values(0))
	})
}

func TestDynamicArraySizes(t *testing.T) {
	c := NewCodec()
	for _, n := range []int{0, 1, 2, 127, 128, 300} {
		items := make([]any, n)
		for i := range items {
			items[i] = -i
		}
		f := MustNewFunction("dyn", Params(DynamicArray(Int(64))), nil)
		root := requireRoundTrip(t, c, f, []any{items})
		require.EqualValues(t, 0b01, root.Bits().Uint(headerBits, 2))
		require.EqualValues(t, n, root.Bits().Uint(headerBits+2, 32))
		if n == 0 {
			require.EqualValues(t, 1, root.RefsLen())
		} else {
			require.EqualValues(t, 2, root.RefsLen())
		}
	}
	t.Run("large elements", func(t *testing.T) {
		f := MustNewFunction("dyn", Params(DynamicArray(FixedArray(Uint(256), 5))), nil)
		item := []any{1, 2, 3, 4, 5}
		requireRoundTrip(t, c, f, []any{[]any{item, item, item}})
	})
	t.Run("arrays of arrays", func(t *testing.T) {
		f := MustNewFunction("dyn", Params(DynamicArray(DynamicArray(Bits(4)))), nil)
		requireRoundTrip(t, c, f, []any{[]any{[]any{"0xa", "0xb"}, []any{}, []any{"0xc"}}})
	})
}

func TestSignatureProtocol(t *testing.T) {
	c := NewCodec()
	f := MustNewFunction("getVersion", nil, Params(Uint(16), Uint(16)))
	key := testKey()
	pub := key.Public().(ed25519.PublicKey)

	prepared, err := c.PrepareForSigning(f, []any{})
	require.NoError(t, err)
	require.EqualValues(t, SlotPendingSignature, prepared.Slot.Kind)
	require.EqualValues(t, prepared.Unsigned.Hash(), prepared.Hash())

	hash := prepared.Hash()
	sig := ed25519.Sign(key, hash[:])
	twoStep, err := c.AttachSignature(prepared, sig, pub)
	require.NoError(t, err)
	require.EqualValues(t, SlotSigned, prepared.Slot.Kind)

	oneStep, err := c.EncodeSignedCall(context.Background(), f, []any{}, keySigner{key})
	require.NoError(t, err)
	require.EqualValues(t, oneStep.Hash(), twoStep.Hash())

	slot := oneStep.Ref(0)
	require.EqualValues(t, append(append([]byte{}, sig...), pub...), slot.Bits().Bytes())
	require.EqualValues(t, 0, slot.RefsLen())

	require.NoError(t, VerifySignature(oneStep))
	decoded, err := c.DecodeCall(f, oneStep)
	require.NoError(t, err)
	require.EqualValues(t, SlotSigned, decoded.Slot.Kind)
	require.EqualValues(t, sig, decoded.Slot.Signature)
	require.EqualValues(t, []byte(pub), decoded.Slot.PublicKey)
	require.EqualValues(t, hash, decoded.Slot.Hash)
	require.EqualValues(t, 0, len(decoded.Values))

	t.Run("attach twice", func(t *testing.T) {
		_, err := c.AttachSignature(prepared, sig, pub)
		require.True(t, errors.Is(err, ErrSlotState))
	})
	t.Run("wrong signature", func(t *testing.T) {
		p, err := c.PrepareForSigning(f, []any{})
		require.NoError(t, err)
		bad := append([]byte{}, sig...)
		bad[0] ^= 1
		_, err = c.AttachSignature(p, bad, pub)
		require.True(t, errors.Is(err, ErrSignatureInvalid))
		require.EqualValues(t, SlotPendingSignature, p.Slot.Kind)

		_, err = NewCodec(WithoutSignatureCheck()).AttachSignature(p, bad, pub)
		require.NoError(t, err)
	})
	t.Run("wrong sizes", func(t *testing.T) {
		p, err := c.PrepareForSigning(f, []any{})
		require.NoError(t, err)
		_, err = c.AttachSignature(p, sig[:10], pub)
		require.True(t, errors.Is(err, ErrMalformedSignature))
	})
	t.Run("tampered", func(t *testing.T) {
		other, err := c.PrepareForSigning(MustNewFunction("getVersion2", nil, nil), []any{})
		require.NoError(t, err)
		b := other.Unsigned.ToBuilder()
		require.NoError(t, b.PrependReference(slot))
		err = VerifySignature(b.MustFinalize())
		require.True(t, errors.Is(err, ErrSignatureInvalid))
	})
}

func TestUnsignedPlaceholder(t *testing.T) {
	c := NewCodec()
	f := MustNewFunction("getVersion", nil, Params(Uint(16), Uint(16)))
	root, err := c.EncodeCall(f, []any{})
	require.NoError(t, err)
	require.True(t, root.RefsLen() >= 1)
	require.True(t, root.Ref(0).IsEmpty())

	decoded, err := c.DecodeCall(f, root)
	require.NoError(t, err)
	require.EqualValues(t, SlotUnsigned, decoded.Slot.Kind)

	err = VerifySignature(root)
	require.True(t, errors.Is(err, ErrSlotState))

	noSlot := cell.MustNew(root.Bits())
	_, err = c.DecodeCall(f, noSlot)
	require.True(t, errors.Is(err, ErrNoSignatureSlot))

	badSlot := cell.MustNew(root.Bits(), cell.MustNew(cell.UintBits(uint8(1), 8)))
	_, err = c.DecodeCall(f, badSlot)
	require.True(t, errors.Is(err, ErrMalformedSignature))
}

func TestHeader(t *testing.T) {
	f := MustNewFunction("constructor", nil, nil)
	require.EqualValues(t, "constructor()()", f.Signature())
	h := sha256.Sum256([]byte("constructor()()"))
	require.EqualValues(t, binary.BigEndian.Uint32(h[:4]), f.Selector())

	root, err := NewCodec().EncodeCall(f, []any{})
	require.NoError(t, err)
	require.EqualValues(t, headerBits, root.BitsLen())
	require.EqualValues(t, append([]byte{DefaultVersion}, h[:4]...), root.Bits().Bytes())

	hdr, err := ReadHeader(root, true)
	require.NoError(t, err)
	require.EqualValues(t, Header{Version: DefaultVersion, Selector: f.Selector()}, hdr)
	require.True(t, f.IsMyMessage(root, true))
	require.False(t, MustNewFunction("other", nil, nil).IsMyMessage(root, true))

	t.Run("version", func(t *testing.T) {
		c2 := NewCodec(WithVersion(2))
		root2, err := c2.EncodeCall(f, []any{})
		require.NoError(t, err)
		require.EqualValues(t, 2, root2.Bits().Uint(0, 8))
		_, err = NewCodec().DecodeCall(f, root2)
		require.True(t, errors.Is(err, ErrWrongVersion))
		_, err = c2.DecodeCall(f, root2)
		require.NoError(t, err)
	})
	t.Run("selector", func(t *testing.T) {
		_, err := NewCodec().DecodeCall(MustNewFunction("constructor", Params(), Params(Bool())), root)
		require.True(t, errors.Is(err, ErrWrongFunctionID))
	})
}

func TestOutputs(t *testing.T) {
	c := NewCodec()
	f := MustNewFunction("getVersion", nil, Params(Uint(16), Uint(16)))
	root, err := c.EncodeOutput(f, []any{1, 2})
	require.NoError(t, err)
	require.EqualValues(t, 0, root.RefsLen())

	values, sel, err := c.DecodeOutput(f, root)
	require.NoError(t, err)
	require.EqualValues(t, f.Selector(), sel)
	require.True(t, EqualValues([]any{big.NewInt(1), big.NewInt(2)}, values))

	other := MustNewFunction("getName", nil, Params(Uint(16), Uint(16)))
	_, sel, err = c.DecodeOutput(other, root)
	require.True(t, errors.Is(err, ErrWrongFunctionID))
	require.EqualValues(t, f.Selector(), sel)

	hdr, err := ReadHeader(root, false)
	require.NoError(t, err)
	require.EqualValues(t, f.Selector(), hdr.Selector)
}

func TestEncodeErrors(t *testing.T) {
	c := NewCodec()
	f := MustNewFunction("f", Params(Uint(8), FixedArray(Int(8), 2)), nil)
	t.Run("count", func(t *testing.T) {
		_, err := c.EncodeCall(f, []any{1})
		require.True(t, errors.Is(err, ErrWrongParamCount))
	})
	t.Run("range", func(t *testing.T) {
		_, err := c.EncodeCall(f, []any{256, []any{1, 2}})
		require.True(t, errors.Is(err, ErrValueOutOfRange))
		var pe *ParamError
		require.True(t, errors.As(err, &pe))
		require.EqualValues(t, "inputs[0]", pe.Path)

		_, err = c.EncodeCall(f, []any{1, []any{1, -129}})
		require.True(t, errors.As(err, &pe))
		require.EqualValues(t, "inputs[1].items[1]", pe.Path)
	})
	t.Run("fixed length", func(t *testing.T) {
		_, err := c.EncodeCall(f, []any{1, []any{1, 2, 3}})
		require.True(t, errors.Is(err, ErrArrayLength))
	})
	t.Run("type", func(t *testing.T) {
		_, err := c.EncodeCall(f, []any{"abc", []any{1, 2}})
		require.True(t, errors.Is(err, ErrTypeMismatch))
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCodec(WithMetrics(reg))
	f := MustNewFunction("f", Params(Uint(8)), nil)
	root, err := c.EncodeCall(f, []any{1})
	require.NoError(t, err)
	_, err = c.DecodeCall(f, root)
	require.NoError(t, err)
	_, err = c.EncodeCall(f, []any{1000})
	require.Error(t, err)

	require.EqualValues(t, 1, testutil.ToFloat64(c.metrics.encodedCounter.WithLabelValues(kindCall)))
	require.EqualValues(t, 1, testutil.ToFloat64(c.metrics.decodedCounter.WithLabelValues(kindCall)))
	require.EqualValues(t, 1, testutil.ToFloat64(c.metrics.errorCounter.WithLabelValues("encodeCall")))
}
