package crawler

import (
	"image"
	"sync"

	"github.com/corona10/goimagehash"
)

// hashDistanceThreshold is the maximum Hamming distance between two dHash
// values below which thumbnails count as perceptual duplicates. Chart
// pages frequently repeat the same artwork under different video IDs.
const hashDistanceThreshold = 10

// hashFilter deduplicates images within a run by perceptual hash. Safe
// for concurrent use.
type hashFilter struct {
	mu     sync.Mutex
	hashes []*goimagehash.ImageHash
}

// isDuplicate reports whether img is perceptually identical to an image
// seen earlier in the run. Hashing failures accept the image rather than
// dropping it. Accepted images are remembered for later comparisons.
func (f *hashFilter) isDuplicate(img image.Image) bool {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, seen := range f.hashes {
		dist, err := hash.Distance(seen)
		if err == nil && dist < hashDistanceThreshold {
			return true
		}
	}

	f.hashes = append(f.hashes, hash)
	return false
}
