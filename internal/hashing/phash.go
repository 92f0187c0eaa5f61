package hashing

import (
	"fmt"
	"image"

	"github.com/artyom/imagedups/internal/fingerprint"
	"github.com/artyom/phash"
	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// dctHash is a 64-bit DCT perceptual hash. Hash values depend highly on the
// scaling function, Lanczos gives stable results.
type dctHash struct{}

func (dctHash) Kind() Kind { return PHash }
func (dctHash) Size() int  { return DefaultSize }
func (dctHash) Bits() int  { return DefaultSize * DefaultSize }

func (dctHash) Fingerprint(id string, img image.Image) (fingerprint.Fingerprint, error) {
	if err := checkImage(img); err != nil {
		return fingerprint.Fingerprint{}, err
	}
	x, err := phash.Get(img, func(img image.Image, w, h int) image.Image {
		return imaging.Resize(img, w, h, imaging.Lanczos)
	})
	if err != nil {
		return fingerprint.Fingerprint{}, fmt.Errorf("phash %s: %w", id, err)
	}
	return fingerprint.FromUint64(id, x), nil
}

// extHash wraps goimagehash algorithms that support arbitrary grid sizes.
type extHash struct {
	kind Kind
	size int
}

func (h extHash) Kind() Kind { return h.kind }
func (h extHash) Size() int  { return h.size }
func (h extHash) Bits() int  { return h.size * h.size }

func (h extHash) Fingerprint(id string, img image.Image) (fingerprint.Fingerprint, error) {
	if err := checkImage(img); err != nil {
		return fingerprint.Fingerprint{}, err
	}
	var (
		x   *goimagehash.ExtImageHash
		err error
	)
	switch h.kind {
	case PHash:
		x, err = goimagehash.ExtPerceptionHash(img, h.size, h.size)
	case AHash:
		x, err = goimagehash.ExtAverageHash(img, h.size, h.size)
	case DHash:
		x, err = goimagehash.ExtDifferenceHash(img, h.size, h.size)
	default:
		return fingerprint.Fingerprint{}, fmt.Errorf("%w: %q", ErrUnknownKind, h.kind)
	}
	if err != nil {
		return fingerprint.Fingerprint{}, fmt.Errorf("%s %s: %w", h.kind, id, err)
	}
	return fingerprint.New(id, x.GetHash(), h.Bits())
}
