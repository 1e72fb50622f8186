// Package table implements a small prefix table keyed by byte signatures.
// It backs container sniffing: file magic numbers are short byte strings,
// and sniffing asks "which registered signature is a prefix of these header
// bytes". Lookups never allocate on the miss path.
package table

// tableSize covers the uint16 hash space of the rolling prefix hash.
const tableSize = 1 << 16

const (
	none = iota
	// prefixMarker: some longer key passes through this hash position.
	prefixMarker
	// elemMarker: a complete key hashes to this position.
	elemMarker
)

// PrefixTable stores values under byte-string keys and finds every stored
// key that is a prefix of a probe. The rolling hash `h = h<<2 + b` keeps the
// hot path a single array lookup per probe byte; collisions only cost a map
// lookup, never a false result.
type PrefixTable[T any] struct {
	table [tableSize]byte
	elems map[string]T
}

func New[T any]() *PrefixTable[T] {
	return &PrefixTable[T]{
		elems: make(map[string]T),
	}
}

func (t *PrefixTable[T]) Insert(key []byte, v T) {
	var h uint16
	for _, b := range key {
		h = (h << 2) + uint16(b)
		if t.table[h] < prefixMarker {
			t.table[h] = prefixMarker
		}
	}
	t.table[h] = elemMarker
	t.elems[string(key)] = v
}

func (t *PrefixTable[T]) Get(key []byte) (T, bool) {
	v, found := t.elems[string(key)]
	return v, found
}

// Walk calls onMatch for every stored key that is a prefix of probe, in
// increasing key length, stopping early once onMatch returns true or no
// stored key can extend the current prefix.
func (t *PrefixTable[T]) Walk(probe []byte, onMatch func(T) bool) {
	var h uint16
	for i, b := range probe {
		h = (h << 2) + uint16(b)
		switch t.table[h] {
		case none:
			return
		case elemMarker:
			if v, ok := t.elems[string(probe[:i+1])]; ok && onMatch(v) {
				return
			}
		}
	}
}

func (t *PrefixTable[T]) Size() int {
	return len(t.elems)
}
