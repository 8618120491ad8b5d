package signature

import (
	"image"
	"math/bits"

	"github.com/corona10/goimagehash"
)

// HashImage returns the 64-bit perceptual hash of img.
func HashImage(img image.Image) (uint64, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, err
	}
	return hash.GetHash(), nil
}

// Distance returns the Hamming distance between two hashes, the number of
// differing bits.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
