// Package fingerprint holds fixed-length perceptual fingerprints and the
// Hamming distance between them.
package fingerprint

import (
	"fmt"
	"strconv"
	"strings"
)

const wordBits = 64

// Fingerprint is an immutable bit vector tied to the identity of the item it
// was computed from. Bit 0 is the most significant bit of the first word.
type Fingerprint struct {
	ID    string
	words []uint64
	n     int
}

// New returns fingerprint of nbits bits taken from words. Words are copied;
// bits past nbits are cleared.
func New(id string, words []uint64, nbits int) (Fingerprint, error) {
	if nbits <= 0 {
		return Fingerprint{}, fmt.Errorf("fingerprint %q: bit length must be positive, got %d", id, nbits)
	}
	need := wordsFor(nbits)
	if len(words) < need {
		return Fingerprint{}, fmt.Errorf("fingerprint %q: %d bits need %d words, got %d", id, nbits, need, len(words))
	}
	w := make([]uint64, need)
	copy(w, words)
	if tail := nbits % wordBits; tail != 0 {
		w[need-1] &= ^uint64(0) << (wordBits - tail)
	}
	return Fingerprint{ID: id, words: w, n: nbits}, nil
}

// FromUint64 returns 64-bit fingerprint, the shape most perceptual hash
// libraries produce for an 8×8 grid.
func FromUint64(id string, v uint64) Fingerprint {
	return Fingerprint{ID: id, words: []uint64{v}, n: wordBits}
}

// FromBits parses a string of '0' and '1' characters, first character being
// bit 0. Spaces and underscores are ignored.
func FromBits(id, s string) (Fingerprint, error) {
	s = strings.NewReplacer(" ", "", "_", "").Replace(s)
	if s == "" {
		return Fingerprint{}, fmt.Errorf("fingerprint %q: empty bit string", id)
	}
	w := make([]uint64, wordsFor(len(s)))
	for i, c := range s {
		switch c {
		case '0':
		case '1':
			w[i/wordBits] |= 1 << (wordBits - 1 - i%wordBits)
		default:
			return Fingerprint{}, fmt.Errorf("fingerprint %q: invalid bit %q at %d", id, c, i)
		}
	}
	return Fingerprint{ID: id, words: w, n: len(s)}, nil
}

// ParseHex decodes hex string as produced by Hex. nbits must match the
// number of significant bits the string was produced from.
func ParseHex(id, s string, nbits int) (Fingerprint, error) {
	if nbits <= 0 {
		return Fingerprint{}, fmt.Errorf("fingerprint %q: bit length must be positive, got %d", id, nbits)
	}
	if want := (nbits + 3) / 4; len(s) != want {
		return Fingerprint{}, fmt.Errorf("fingerprint %q: incorrect hex length: expected %d, got %d", id, want, len(s))
	}
	w := make([]uint64, wordsFor(nbits))
	for i := 0; i < len(s); i++ {
		v, err := strconv.ParseUint(s[i:i+1], 16, 8)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("fingerprint %q: %w", id, err)
		}
		for b := 0; b < 4; b++ {
			pos := i*4 + b
			if v&(8>>b) == 0 {
				continue
			}
			if pos >= nbits {
				return Fingerprint{}, fmt.Errorf("fingerprint %q: bits set past declared length %d", id, nbits)
			}
			w[pos/wordBits] |= 1 << (wordBits - 1 - pos%wordBits)
		}
	}
	return Fingerprint{ID: id, words: w, n: nbits}, nil
}

// Len returns number of bits.
func (f Fingerprint) Len() int { return f.n }

// IsZero reports whether f is the zero value (no bits at all).
func (f Fingerprint) IsZero() bool { return f.n == 0 }

// Words returns a copy of the underlying words.
func (f Fingerprint) Words() []uint64 {
	w := make([]uint64, len(f.words))
	copy(w, f.words)
	return w
}

// Bit reports whether bit i is set. It panics if i is out of range.
func (f Fingerprint) Bit(i int) bool {
	if i < 0 || i >= f.n {
		panic(fmt.Sprintf("fingerprint: bit index %d out of range [0,%d)", i, f.n))
	}
	return f.words[i/wordBits]&(1<<(wordBits-1-i%wordBits)) != 0
}

// Equal reports whether both fingerprints carry the same bits. Item identity
// is not compared.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.n != other.n {
		return false
	}
	for i := range f.words {
		if f.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// Hex returns hexadecimal representation of the bits, one nybble per 4 bits,
// most significant first.
func (f Fingerprint) Hex() string {
	var sb strings.Builder
	nyb := (f.n + 3) / 4
	sb.Grow(nyb)
	for i := 0; i < nyb; i++ {
		word := f.words[(i*4)/wordBits]
		shift := wordBits - 4 - (i*4)%wordBits
		sb.WriteByte("0123456789abcdef"[(word>>shift)&0xf])
	}
	return sb.String()
}

// Bits returns the bits as a string of '0' and '1'.
func (f Fingerprint) Bits() string {
	b := make([]byte, f.n)
	for i := range b {
		if f.Bit(i) {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s:%d:%s", f.ID, f.n, f.Hex())
}

func wordsFor(nbits int) int { return (nbits + wordBits - 1) / wordBits }
