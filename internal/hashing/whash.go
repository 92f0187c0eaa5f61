package hashing

import (
	"image"
	"slices"

	"github.com/artyom/imagedups/internal/fingerprint"
	"github.com/disintegration/imaging"
	"github.com/rivo/duplo/haar"
)

// waveletHash sets a bit for every low-frequency Haar coefficient of the luma
// channel that is above their median. The image is scaled to twice the grid
// size, so the kept block is the coarsest quarter of the transform.
type waveletHash struct {
	size int
}

func (h waveletHash) Kind() Kind { return WHash }
func (h waveletHash) Size() int  { return h.size }
func (h waveletHash) Bits() int  { return h.size * h.size }

func (h waveletHash) Fingerprint(id string, img image.Image) (fingerprint.Fingerprint, error) {
	if err := checkImage(img); err != nil {
		return fingerprint.Fingerprint{}, err
	}
	side := 2 * h.size
	m := haar.Transform(imaging.Resize(img, side, side, imaging.Lanczos))

	coefs := make([]float64, 0, h.size*h.size)
	for y := 0; y < h.size; y++ {
		for x := 0; x < h.size; x++ {
			coefs = append(coefs, m.Coefs[y*int(m.Width)+x][0])
		}
	}
	// the scaling coefficient only carries overall brightness
	median := medianOf(coefs[1:])

	words := make([]uint64, (len(coefs)+63)/64)
	for i, c := range coefs {
		if c > median {
			words[i/64] |= 1 << (63 - i%64)
		}
	}
	return fingerprint.New(id, words, h.Bits())
}

func medianOf(v []float64) float64 {
	s := slices.Clone(v)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
