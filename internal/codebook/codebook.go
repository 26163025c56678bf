// Package codebook implements Vorbis codebooks: a canonical Huffman-style
// prefix code over entry numbers, optionally paired with a vector
// quantization lookup table. Codebooks are parsed from the setup header and
// are immutable afterwards.
//
// Layout and semantics follow the Vorbis I spec, section 3 (codebooks).
package codebook

import (
	"errors"
	"fmt"
	"sort"

	"github.com/llehouerou/go-vorbis/internal/bits"
)

var (
	// ErrInvalidCodeword indicates the bitstream did not resolve to any
	// codeword of the codebook.
	ErrInvalidCodeword = errors.New("codebook: invalid codeword")

	// ErrMalformed indicates a structurally invalid codebook definition.
	ErrMalformed = errors.New("codebook: malformed codebook")

	// ErrNoLookup indicates a vector decode was requested from a codebook
	// that carries no VQ lookup table.
	ErrNoLookup = errors.New("codebook: codebook has no vector lookup")
)

// MaxCodewordLen is the longest legal codeword; lengths are transmitted as
// five bits plus one.
const MaxCodewordLen = 32

// syncPattern is the 24-bit codebook preamble, bytes 0x42 0x43 0x56 read
// LSB-first.
const syncPattern = 0x564342

// codeGroup holds all codewords of one length, in ascending code order.
// Codes are accumulated most significant bit first during decode, matching
// the tree-order bit sequence in the stream.
type codeGroup struct {
	codes []uint32
	syms  []uint32
}

// Codebook is one parsed codebook from the setup header.
type Codebook struct {
	dims    int
	entries int
	maxLen  int
	groups  [MaxCodewordLen + 1]codeGroup
	lookup  *lookupTable
}

// Dimensions returns the number of values per VQ vector. It is meaningful
// for scalar-only codebooks as well, where it drives residue classword
// grouping.
func (c *Codebook) Dimensions() int {
	return c.dims
}

// Entries returns the number of entries (used or not) in the codebook.
func (c *Codebook) Entries() int {
	return c.entries
}

// HasLookup reports whether the codebook carries a VQ lookup table.
func (c *Codebook) HasLookup() bool {
	return c.lookup != nil
}

// Read parses one codebook definition from the setup header.
func Read(r *bits.Reader) (*Codebook, error) {
	sync, err := r.ReadBits(24)
	if err != nil {
		return nil, err
	}
	if sync != syncPattern {
		return nil, fmt.Errorf("%w: bad sync pattern %#06x", ErrMalformed, sync)
	}

	dims, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	entries32, err := r.ReadBits(24)
	if err != nil {
		return nil, err
	}
	entries := int(entries32)

	c := &Codebook{
		dims:    int(dims),
		entries: entries,
	}

	lengths, err := readLengths(r, entries)
	if err != nil {
		return nil, err
	}
	if err := c.assignCodes(lengths); err != nil {
		return nil, err
	}

	c.lookup, err = readLookup(r, entries, c.dims)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// readLengths reads the per-entry codeword length list in either the
// unordered (optionally sparse) or the ordered encoding. A length of zero
// marks an unused entry.
func readLengths(r *bits.Reader, entries int) ([]uint8, error) {
	ordered, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	lengths := make([]uint8, entries)

	if !ordered {
		sparse, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		for i := range lengths {
			if sparse {
				used, err := r.ReadBool()
				if err != nil {
					return nil, err
				}
				if !used {
					continue
				}
			}
			l, err := r.ReadBits(5)
			if err != nil {
				return nil, err
			}
			lengths[i] = uint8(l + 1)
		}
		return lengths, nil
	}

	cur := 0
	l, err := r.ReadBits(5)
	if err != nil {
		return nil, err
	}
	curLen := int(l + 1)
	for cur < entries {
		if curLen > MaxCodewordLen {
			return nil, fmt.Errorf("%w: ordered length list exceeds maximum codeword length", ErrMalformed)
		}
		num, err := r.ReadBits(bits.Ilog(uint32(entries - cur)))
		if err != nil {
			return nil, err
		}
		if cur+int(num) > entries {
			return nil, fmt.Errorf("%w: ordered length counts exceed entry count", ErrMalformed)
		}
		for i := 0; i < int(num); i++ {
			lengths[cur] = uint8(curLen)
			cur++
		}
		curLen++
	}
	return lengths, nil
}

// assignCodes computes the codeword for every used entry. Entries claim the
// lowest unused leaf of the implied binary tree in entry order, which is the
// fixed assignment rule of the format: any two decoders given the same
// length list produce identical codes.
func (c *Codebook) assignCodes(lengths []uint8) error {
	var a codeAssigner
	for i := range a.cur {
		a.cur[i] = -1
	}
	for entry, l := range lengths {
		if l == 0 {
			continue
		}
		code, err := a.next(int(l))
		if err != nil {
			return err
		}
		g := &c.groups[l]
		g.codes = append(g.codes, code)
		g.syms = append(g.syms, uint32(entry))
		if int(l) > c.maxLen {
			c.maxLen = int(l)
		}
	}
	return nil
}

// codeAssigner hands out codewords incrementally. cur[l] tracks the most
// recently assigned code of length l, or -1 when none has been assigned yet.
type codeAssigner struct {
	cur [MaxCodewordLen + 1]int64
}

func (a *codeAssigner) next(l int) (uint32, error) {
	if a.cur[l] < 0 {
		var code uint32
		if l > 1 {
			p, err := a.next(l - 1)
			if err != nil {
				return 0, err
			}
			code = p << 1
		}
		a.cur[l] = int64(code)
		return code, nil
	}
	code := uint32(a.cur[l])
	if code&1 == 0 {
		code |= 1
		a.cur[l] = int64(code)
		return code, nil
	}
	if l == 1 {
		return 0, fmt.Errorf("%w: overspecified code tree", ErrMalformed)
	}
	p, err := a.next(l - 1)
	if err != nil {
		return 0, err
	}
	code = p << 1
	a.cur[l] = int64(code)
	return code, nil
}

// DecodeScalar reads one codeword from the stream and returns its entry
// number. The walk is bounded by the longest codeword length so a malformed
// stream fails with ErrInvalidCodeword (or ErrUnexpectedEOF) rather than
// looping.
func (c *Codebook) DecodeScalar(r *bits.Reader) (uint32, error) {
	var code uint32
	for l := 1; l <= c.maxLen; l++ {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | b
		g := &c.groups[l]
		if len(g.codes) == 0 {
			continue
		}
		i := sort.Search(len(g.codes), func(i int) bool { return g.codes[i] >= code })
		if i < len(g.codes) && g.codes[i] == code {
			return g.syms[i], nil
		}
	}
	return 0, ErrInvalidCodeword
}

// DecodeVector reads one codeword and expands it through the VQ lookup
// table into dst, which must have length Dimensions().
func (c *Codebook) DecodeVector(r *bits.Reader, dst []float32) error {
	if c.lookup == nil {
		return ErrNoLookup
	}
	sym, err := c.DecodeScalar(r)
	if err != nil {
		return err
	}
	c.lookup.vector(int(sym), c.dims, dst)
	return nil
}

// lookupTable is the dequantized VQ value table of a codebook.
type lookupTable struct {
	kind   int // 1: multiplicand lattice, 2: explicit per-entry values
	values []float32
	seq    bool // cumulative values within one vector
}

func readLookup(r *bits.Reader, entries, dims int) (*lookupTable, error) {
	kind, err := r.ReadBits(4)
	if err != nil {
		return nil, err
	}
	switch kind {
	case 0:
		return nil, nil
	case 1, 2:
	default:
		return nil, fmt.Errorf("%w: VQ lookup type %d", ErrMalformed, kind)
	}
	if dims == 0 {
		// lookup1Values would never terminate for a zero-dimension book.
		return nil, fmt.Errorf("%w: zero-dimension codebook with a lookup table", ErrMalformed)
	}

	minVal, err := r.ReadFloat32()
	if err != nil {
		return nil, err
	}
	delta, err := r.ReadFloat32()
	if err != nil {
		return nil, err
	}
	vb, err := r.ReadBits(4)
	if err != nil {
		return nil, err
	}
	valueBits := uint(vb + 1)
	seq, err := r.ReadBool()
	if err != nil {
		return nil, err
	}

	var count int
	if kind == 1 {
		count = lookup1Values(entries, dims)
	} else {
		count = entries * dims
	}

	values := make([]float32, count)
	for i := range values {
		q, err := r.ReadBits(valueBits)
		if err != nil {
			return nil, err
		}
		values[i] = float32(q)*delta + minVal
	}

	return &lookupTable{
		kind:   int(kind),
		values: values,
		seq:    seq,
	}, nil
}

// vector expands entry number offset into dst.
func (l *lookupTable) vector(offset, dims int, dst []float32) {
	var last float32
	switch l.kind {
	case 1:
		div := 1
		n := len(l.values)
		for i := 0; i < dims; i++ {
			v := l.values[(offset/div)%n] + last
			dst[i] = v
			if l.seq {
				last = v
			}
			div *= n
		}
	case 2:
		for i := 0; i < dims; i++ {
			v := l.values[offset*dims+i] + last
			dst[i] = v
			if l.seq {
				last = v
			}
		}
	}
}

// lookup1Values returns the largest n with n^dims <= entries, the
// lookup1_values function from the Vorbis I spec, section 9.2.3.
func lookup1Values(entries, dims int) int {
	n := 0
	for {
		p := 1
		fits := true
		for i := 0; i < dims; i++ {
			p *= n + 1
			if p > entries {
				fits = false
				break
			}
		}
		if !fits {
			return n
		}
		n++
	}
}
