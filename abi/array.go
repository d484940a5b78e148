package abi

import (
	"errors"

	"github.com/lunfardo314/cellabi/cell"
	"github.com/lunfardo314/cellabi/dict"
)

// Array tag is two bits: 'inline' and 'map'.
//   10: elements follow in the current chain. Dynamic arrays are prefixed with 8-bit count
//   00: elements are in the separate chain behind the reference. Dynamic arrays are prefixed with 32-bit count
//   01: 32-bit count and optional dictionary of elements keyed by 32-bit big-endian index
//   11: malformed

const (
	maxArrayLength  = 1<<32 - 1
	arrayCountBits  = 32
	inlineCountBits = 8
	indexKeyBits    = 32
)

var (
	tagInline = cell.UintBits(uint8(0b10), 2)
	tagBranch = cell.UintBits(uint8(0b00), 2)
	tagMap    = cell.UintBits(uint8(0b01), 2)
)

func prependItems(w *chainWriter, elem ParamType, items []any, path string) error {
	for i := len(items) - 1; i >= 0; i-- {
		if err := prependValue(w, elem, items[i], itemPath(path, i)); err != nil {
			return err
		}
	}
	return nil
}

// prependFixedArray places elements inline when they fit into the current cell together with the tag,
// otherwise into the separate branch
func prependFixedArray(w *chainWriter, t ParamType, items []any, path string) error {
	trial := w.trial()
	err := prependItems(trial, *t.Elem, items, path)
	if err == nil {
		err = trial.prependBits(tagInline)
	}
	switch {
	case err == nil:
		w.adopt(trial)
		return nil
	case !errors.Is(err, errGrowthNotAllowed):
		return err
	}
	branch := newChainWriter()
	if err = prependItems(branch, *t.Elem, items, path); err != nil {
		return err
	}
	c, err := branch.finalize()
	if err != nil {
		return paramError(path, err)
	}
	return paramError(path, w.prependUnit(tagBranch, c))
}

// prependDynamicArray always uses the dictionary form
func prependDynamicArray(w *chainWriter, t ParamType, items []any, path string) error {
	if int64(len(items)) > maxArrayLength {
		return paramErrorf(path, ErrArrayLength, "too many items: %d", len(items))
	}
	bits, root, err := indexedDict(*t.Elem, items, path)
	if err != nil {
		return err
	}
	var hdr cell.BitWriter
	hdr.WriteBits(tagMap)
	cell.WriteUnsigned(&hdr, uint64(len(items)), arrayCountBits)
	hdr.WriteBits(bits)
	return paramError(path, w.prependUnit(hdr.BitString(), root))
}

func indexedDict(elem ParamType, items []any, path string) (cell.BitString, *cell.Cell, error) {
	d := dict.New(indexKeyBits)
	for i := range items {
		c, err := encodeChain(elem, items[i], itemPath(path, i))
		if err != nil {
			return cell.BitString{}, nil, err
		}
		if err = d.SetUint(uint64(i), c); err != nil {
			return cell.BitString{}, nil, paramError(itemPath(path, i), err)
		}
	}
	bits, root, err := d.Optional()
	if err != nil {
		return cell.BitString{}, nil, paramError(path, err)
	}
	return bits, root, nil
}

func readItems(r *chainReader, elem ParamType, n int, path string) ([]any, error) {
	ret := make([]any, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		v, err := readValue(r, elem, itemPath(path, i))
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}
	return ret, nil
}

// readArray accepts all three forms for both fixed and dynamic arrays
func readArray(r *chainReader, t ParamType, path string) ([]any, error) {
	tag, err := r.readBits(2)
	if err != nil {
		return nil, paramError(path, err)
	}
	inline, indexed := tag.Bit(0), tag.Bit(1)
	fixed := t.Kind == KindFixedArray

	switch {
	case inline && !indexed:
		n := t.Size
		if !fixed {
			cnt, err := r.readUint(inlineCountBits)
			if err != nil {
				return nil, paramError(path, err)
			}
			n = int(cnt)
		}
		return readItems(r, *t.Elem, n, path)

	case !inline && !indexed:
		child, err := r.readRef()
		if err != nil {
			return nil, paramError(path, err)
		}
		cr := newChainReader(child.BeginParse())
		n := t.Size
		if !fixed {
			cnt, err := cr.readUint(arrayCountBits)
			if err != nil {
				return nil, paramError(path, err)
			}
			n = int(cnt)
		}
		ret, err := readItems(cr, *t.Elem, n, path)
		if err != nil {
			return nil, err
		}
		return ret, paramError(path, cr.checkConsumed())

	case !inline && indexed:
		return readIndexed(r, t, path)
	}
	return nil, paramErrorf(path, ErrMalformedTag, "tag 11")
}

func readIndexed(r *chainReader, t ParamType, path string) ([]any, error) {
	cnt, err := r.readUint(arrayCountBits)
	if err != nil {
		return nil, paramError(path, err)
	}
	n := int(cnt)
	if t.Kind == KindFixedArray && n != t.Size {
		return nil, paramErrorf(path, ErrArrayLength, "fixed array of %d items encoded with count %d", t.Size, n)
	}
	present, err := r.readBits(1)
	if err != nil {
		return nil, paramError(path, err)
	}
	var root *cell.Cell
	if present.Bit(0) {
		if root, err = r.readRef(); err != nil {
			return nil, paramError(path, err)
		}
	}
	entries, err := dict.ParseUintKeys(root, indexKeyBits)
	if err != nil {
		return nil, paramError(path, err)
	}
	ret := make([]any, 0, min(n, len(entries)))
	for i := 0; i < n; i++ {
		s, ok := entries[uint64(i)]
		if !ok {
			return nil, paramErrorf(itemPath(path, i), ErrMissingDictKey, "index %d of %d", i, n)
		}
		er := newChainReader(s)
		v, err := readValue(er, *t.Elem, itemPath(path, i))
		if err != nil {
			return nil, err
		}
		if err = er.checkConsumed(); err != nil {
			return nil, paramError(itemPath(path, i), err)
		}
		ret = append(ret, v)
	}
	if len(entries) != n {
		return nil, paramErrorf(path, ErrTrailingData, "%d dictionary entries for %d items", len(entries), n)
	}
	return ret, nil
}
