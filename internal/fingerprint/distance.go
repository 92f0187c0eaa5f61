package fingerprint

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrLengthMismatch is matched by errors returned when fingerprints of
// different bit lengths are compared.
var ErrLengthMismatch = errors.New("fingerprint length mismatch")

// LengthMismatchError describes two fingerprints that cannot be compared.
type LengthMismatchError struct {
	A, B       string
	LenA, LenB int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("fingerprint length mismatch: %q has %d bits, %q has %d bits", e.A, e.LenA, e.B, e.LenB)
}

func (e *LengthMismatchError) Is(target error) bool { return target == ErrLengthMismatch }

// Distance returns Hamming distance between a and b: the number of bit
// positions that differ.
func Distance(a, b Fingerprint) (int, error) {
	if a.n != b.n {
		return 0, mismatch(a, b)
	}
	n := 0
	for i := range a.words {
		n += bits.OnesCount64(a.words[i] ^ b.words[i])
	}
	return n, nil
}

// WithinDistance reports whether Distance(a, b) <= max. It stops counting as
// soon as the bound is exceeded.
func WithinDistance(a, b Fingerprint, max int) (bool, error) {
	if a.n != b.n {
		return false, mismatch(a, b)
	}
	if max < 0 {
		return false, nil
	}
	n := 0
	for i := range a.words {
		n += bits.OnesCount64(a.words[i] ^ b.words[i])
		if n > max {
			return false, nil
		}
	}
	return true, nil
}

func mismatch(a, b Fingerprint) error {
	return &LengthMismatchError{A: a.ID, B: b.ID, LenA: a.n, LenB: b.n}
}
