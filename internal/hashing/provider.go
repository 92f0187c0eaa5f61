// Package hashing computes perceptual fingerprints of decoded images.
//
// Several interchangeable algorithms are available; all of them produce
// fingerprints of size×size bits for a configured grid size, so fingerprints
// from one provider are always comparable with each other.
package hashing

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/artyom/imagedups/internal/fingerprint"
)

// Kind names a perceptual hash algorithm.
type Kind string

const (
	PHash Kind = "phash" // DCT based perceptual hash
	AHash Kind = "ahash" // average hash
	DHash Kind = "dhash" // difference (gradient) hash
	WHash Kind = "whash" // Haar wavelet hash
)

// Kinds lists supported algorithms.
var Kinds = []Kind{PHash, AHash, DHash, WHash}

// Grid size limits; a size of 8 produces 64-bit fingerprints.
const (
	MinSize     = 4
	MaxSize     = 16
	DefaultSize = 8
)

var (
	ErrUnknownKind     = errors.New("unknown hash kind")
	ErrUnsupportedSize = errors.New("unsupported hash size")
	ErrEmptyImage      = errors.New("empty image")
)

// ParseKind parses case-insensitive algorithm name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Provider computes fingerprints of a fixed length.
type Provider interface {
	Kind() Kind
	// Size is the grid side length the provider was configured with.
	Size() int
	// Bits is the length of every fingerprint the provider returns.
	Bits() int
	Fingerprint(id string, img image.Image) (fingerprint.Fingerprint, error)
}

// New returns provider of the given kind for a size×size grid.
func New(kind Kind, size int) (Provider, error) {
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: %d, must be within [%d, %d]", ErrUnsupportedSize, size, MinSize, MaxSize)
	}
	switch kind {
	case PHash:
		if size == DefaultSize {
			return dctHash{}, nil
		}
		if !powerOfTwo(size * size) {
			return nil, fmt.Errorf("%w: phash needs size×size to be a power of two, got %d", ErrUnsupportedSize, size)
		}
		return extHash{kind: PHash, size: size}, nil
	case AHash, DHash:
		return extHash{kind: kind, size: size}, nil
	case WHash:
		if !powerOfTwo(size) {
			return nil, fmt.Errorf("%w: whash needs a power of two, got %d", ErrUnsupportedSize, size)
		}
		return waveletHash{size: size}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func powerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

func checkImage(img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return ErrEmptyImage
	}
	return nil
}
