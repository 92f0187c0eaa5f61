package hashing

import (
	"fmt"
	"image"
	"os"

	"github.com/artyom/imagedups/internal/fingerprint"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Open decodes image file honoring EXIF orientation. JPEG, PNG, GIF, BMP,
// TIFF and WebP are supported.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// FromFile decodes image at path and fingerprints it with p, using path as
// item identity.
func FromFile(p Provider, path string) (fingerprint.Fingerprint, error) {
	img, err := Open(path)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	return p.Fingerprint(path, img)
}
