// Package dict implements a binary Patricia trie of cells over fixed-length bit-string keys
// and its optional form, prefixed with a presence bit
package dict

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lunfardo314/cellabi/cell"
)

var (
	ErrMalformed   = errors.New("malformed dictionary")
	ErrKeyLength   = errors.New("wrong dictionary key length")
	ErrKeyNotFound = errors.New("key not found in dictionary")
)

type (
	// Dict collects key/value pairs before serialization. Values are cells
	Dict struct {
		keyLen int
		items  map[string]entry
	}

	entry struct {
		key   cell.BitString
		value *cell.Cell
	}

	// Entry is a parsed key with the slice positioned at its value
	Entry struct {
		Key   cell.BitString
		Value *cell.Slice
	}
)

func New(keyLen int) *Dict {
	if keyLen <= 0 || keyLen > cell.MaxBits {
		panic(fmt.Sprintf("dict.New: wrong key length %d", keyLen))
	}
	return &Dict{
		keyLen: keyLen,
		items:  make(map[string]entry),
	}
}

func (d *Dict) KeyLen() int {
	return d.keyLen
}

func (d *Dict) Len() int {
	return len(d.items)
}

func (d *Dict) Set(key cell.BitString, value *cell.Cell) error {
	if key.Len() != d.keyLen {
		return fmt.Errorf("%w: expected %d, got %d", ErrKeyLength, d.keyLen, key.Len())
	}
	if value == nil {
		return fmt.Errorf("dict.Set: nil value")
	}
	d.items[string(key.Bytes())] = entry{key: key, value: value}
	return nil
}

func (d *Dict) SetUint(key uint64, value *cell.Cell) error {
	return d.Set(cell.UintBits(key, d.keyLen), value)
}

// Root serializes the trie. Returns nil for empty dictionary
func (d *Dict) Root() (*cell.Cell, error) {
	if len(d.items) == 0 {
		return nil, nil
	}
	sorted := make([]entry, 0, len(d.items))
	for _, e := range d.items {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return string(sorted[i].key.Bytes()) < string(sorted[j].key.Bytes())
	})
	return buildEdge(sorted, 0, d.keyLen)
}

// StoreTo writes the optional form into the builder: bit 0 for empty, bit 1 and reference to the root otherwise
func (d *Dict) StoreTo(b *cell.Builder) error {
	bits, root, err := d.Optional()
	if err != nil {
		return err
	}
	if err = b.AppendBits(bits); err != nil {
		return err
	}
	if root != nil {
		return b.AppendReference(root)
	}
	return nil
}

// Optional returns the presence bit and the root reference, nil for empty dictionary
func (d *Dict) Optional() (cell.BitString, *cell.Cell, error) {
	root, err := d.Root()
	if err != nil {
		return cell.BitString{}, nil, err
	}
	return cell.UintBits(boolToUint(root != nil), 1), root, nil
}

func boolToUint(b bool) uint {
	if b {
		return 1
	}
	return 0
}

// buildEdge builds the edge for the entries sharing first 'from' key bits. m = keyLen - from
func buildEdge(entries []entry, from, keyLen int) (*cell.Cell, error) {
	m := keyLen - from
	first := entries[0].key
	last := entries[len(entries)-1].key
	// entries are sorted, so the common prefix of all is the common prefix of first and last
	l := 0
	for l < m && first.Bit(from+l) == last.Bit(from+l) {
		l++
	}
	var w cell.BitWriter
	writeLabel(&w, first.Slice(from, from+l), m)

	if l == m {
		if len(entries) != 1 {
			panic("dict: duplicate keys")
		}
		return leafCell(w.BitString(), entries[0].value)
	}
	split := sort.Search(len(entries), func(i int) bool {
		return entries[i].key.Bit(from + l)
	})
	left, err := buildEdge(entries[:split], from+l+1, keyLen)
	if err != nil {
		return nil, err
	}
	right, err := buildEdge(entries[split:], from+l+1, keyLen)
	if err != nil {
		return nil, err
	}
	return cell.New(w.BitString(), left, right)
}

// leafCell places value inline after the label when it fits, otherwise behind a single reference
func leafCell(label cell.BitString, value *cell.Cell) (*cell.Cell, error) {
	if label.Len()+value.BitsLen() <= cell.MaxBits {
		return cell.New(label.Concat(value.Bits()), value.Refs()...)
	}
	return cell.New(label, value)
}

// Parse returns all entries of the trie in the ascending key order
func Parse(root *cell.Cell, keyLen int) ([]Entry, error) {
	ret := make([]Entry, 0)
	if root == nil {
		return ret, nil
	}
	err := parseEdge(root.BeginParse(), cell.BitString{}, keyLen, func(e Entry) {
		ret = append(ret, e)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// ParseOptional reads the optional form from the slice
func ParseOptional(s *cell.Slice, keyLen int) ([]Entry, error) {
	present, err := s.ReadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return []Entry{}, nil
	}
	root, err := s.ReadNextCell()
	if err != nil {
		return nil, err
	}
	return Parse(root, keyLen)
}

// ParseUintKeys returns entries keyed by the integer value of the key. keyLen <= 64
func ParseUintKeys(root *cell.Cell, keyLen int) (map[uint64]*cell.Slice, error) {
	entries, err := Parse(root, keyLen)
	if err != nil {
		return nil, err
	}
	ret := make(map[uint64]*cell.Slice, len(entries))
	for _, e := range entries {
		ret[e.Key.Uint(0, keyLen)] = e.Value
	}
	return ret, nil
}

func parseEdge(s *cell.Slice, prefix cell.BitString, m int, fun func(e Entry)) error {
	label, err := readLabel(s, m)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	prefix = prefix.Concat(label)
	m -= label.Len()
	if m == 0 {
		fun(Entry{Key: prefix, Value: s})
		return nil
	}
	for _, bit := range []uint{0, 1} {
		child, err := s.ReadNextReference()
		if err != nil {
			return fmt.Errorf("%w: fork without two references", ErrMalformed)
		}
		if err = parseEdge(child, prefix.Concat(cell.UintBits(bit, 1)), m-1, fun); err != nil {
			return err
		}
	}
	return nil
}

// Get looks up single key walking only its path
func Get(root *cell.Cell, key cell.BitString) (*cell.Slice, error) {
	if root == nil {
		return nil, ErrKeyNotFound
	}
	s := root.BeginParse()
	m := key.Len()
	pos := 0
	for {
		label, err := readLabel(s, m)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if !label.Equal(key.Slice(pos, pos+label.Len())) {
			return nil, ErrKeyNotFound
		}
		pos += label.Len()
		m -= label.Len()
		if m == 0 {
			return s, nil
		}
		left, err := s.ReadNextReference()
		if err != nil {
			return nil, fmt.Errorf("%w: fork without two references", ErrMalformed)
		}
		right, err := s.ReadNextReference()
		if err != nil {
			return nil, fmt.Errorf("%w: fork without two references", ErrMalformed)
		}
		if key.Bit(pos) {
			s = right
		} else {
			s = left
		}
		pos++
		m--
	}
}
