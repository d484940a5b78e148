package boc

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/lunfardo314/cellabi/cell"
	"github.com/stretchr/testify/require"
)

func sampleTree() *cell.Cell {
	shared := cell.MustNew(cell.UintBits(uint32(0xcafe), 17))
	left := cell.MustNew(cell.UintBits(uint8(1), 8), shared)
	right := cell.MustNew(cell.UintBits(uint16(2), 12), shared, cell.Empty())
	return cell.MustNew(cell.UintBits(uint64(0x0102030405060708), 64), left, right, shared)
}

func TestEmptyCell(t *testing.T) {
	data, err := SerializeSingleRoot(cell.Empty(), WithCRC32C(false))
	require.NoError(t, err)
	require.EqualValues(t, "b5ee9c72010101010002000000", hex.EncodeToString(data))

	c, err := DeserializeSingleRoot(data)
	require.NoError(t, err)
	require.True(t, c.Equal(cell.Empty()))
}

func TestRoundTrip(t *testing.T) {
	root := sampleTree()
	for _, opts := range [][]Option{
		nil,
		{WithCRC32C(false)},
		{WithIndex(true)},
		{WithIndex(true), WithCRC32C(false)},
	} {
		data, err := SerializeSingleRoot(root, opts...)
		require.NoError(t, err)
		t.Logf("boc size: %d, %s", len(data), hex.EncodeToString(data))

		back, err := DeserializeSingleRoot(data)
		require.NoError(t, err)
		require.EqualValues(t, root.Hash(), back.Hash())
	}
}

func TestDedup(t *testing.T) {
	data, err := SerializeSingleRoot(sampleTree(), WithCRC32C(false))
	require.NoError(t, err)
	// root, left, right, shared, empty
	require.EqualValues(t, 5, data[6])
}

func TestOrder(t *testing.T) {
	cells, idx, err := order([]*cell.Cell{sampleTree()})
	require.NoError(t, err)
	require.EqualValues(t, 5, len(cells))
	for i, c := range cells {
		for j := 0; j < c.RefsLen(); j++ {
			require.True(t, idx[c.Ref(j).Hash()] > i)
		}
	}
	require.EqualValues(t, 0, idx[sampleTree().Hash()])
}

func TestMultipleRoots(t *testing.T) {
	r1 := sampleTree()
	r2 := cell.MustNew(cell.UintBits(uint8(9), 4))
	data, err := Serialize([]*cell.Cell{r1, r2})
	require.NoError(t, err)
	roots, err := Deserialize(data)
	require.NoError(t, err)
	require.EqualValues(t, 2, len(roots))
	require.True(t, roots[0].Equal(r1))
	require.True(t, roots[1].Equal(r2))

	_, err = DeserializeSingleRoot(data)
	require.True(t, errors.Is(err, ErrMalformedBOC))
}

func TestMalformed(t *testing.T) {
	data, err := SerializeSingleRoot(sampleTree())
	require.NoError(t, err)

	t.Run("magic", func(t *testing.T) {
		bad := append([]byte{}, data...)
		bad[0] = 0
		_, err := Deserialize(bad)
		require.True(t, errors.Is(err, ErrBadMagic))
	})
	t.Run("crc", func(t *testing.T) {
		bad := append([]byte{}, data...)
		bad[len(bad)-6] ^= 0xff
		_, err := Deserialize(bad)
		require.True(t, errors.Is(err, ErrCRCMismatch))
	})
	t.Run("truncated", func(t *testing.T) {
		noCRC, err := SerializeSingleRoot(sampleTree(), WithCRC32C(false))
		require.NoError(t, err)
		_, err = Deserialize(noCRC[:len(noCRC)-1])
		require.True(t, errors.Is(err, ErrMalformedBOC))
	})
	t.Run("backward reference", func(t *testing.T) {
		// one cell referencing itself: d1 = 1, d2 = 0, ref = 0
		bad, err := hex.DecodeString("b5ee9c72010101010003000100" + "00")
		require.NoError(t, err)
		_, err = Deserialize(bad)
		require.True(t, errors.Is(err, ErrMalformedBOC))
	})
	t.Run("oversized cell count", func(t *testing.T) {
		// ref size 4: 0x7fffffff cells and one root in a few bytes of body
		bad, err := hex.DecodeString("b5ee9c7204" + "01" + "7fffffff" + "00000001" + "00000000" + "04" + "00000000" + "0000")
		require.NoError(t, err)
		_, err = Deserialize(bad)
		require.True(t, errors.Is(err, ErrMalformedBOC))
	})
	t.Run("oversized total size", func(t *testing.T) {
		// one empty cell declaring 0xff bytes of cell data
		bad, err := hex.DecodeString("b5ee9c72" + "01" + "01" + "010100" + "ff" + "00" + "0000")
		require.NoError(t, err)
		_, err = Deserialize(bad)
		require.True(t, errors.Is(err, ErrMalformedBOC))
	})
}
