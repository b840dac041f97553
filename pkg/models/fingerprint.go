package models

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// Fingerprint is a winnowed sketch of a unit's normalized token stream: the
// numerically smallest shingle hashes, held in a roaring bitmap for cheap
// intersection. Fingerprints exist only for the duration of duplicate
// matching; every field is unexported so the type cannot appear in a
// serialized report.
type Fingerprint struct {
	hashes     *roaring64.Bitmap
	tokenCount int
	streamHash uint64
}

// NewFingerprint wraps a winnowed hash set. An empty or nil bitmap marks a
// unit too short to judge; such units are excluded from matching.
func NewFingerprint(hashes *roaring64.Bitmap, tokenCount int, streamHash uint64) *Fingerprint {
	return &Fingerprint{hashes: hashes, tokenCount: tokenCount, streamHash: streamHash}
}

// Empty reports whether the fingerprint carries no hashes.
func (f *Fingerprint) Empty() bool {
	return f == nil || f.hashes == nil || f.hashes.IsEmpty()
}

// Size returns the number of hashes in the sketch.
func (f *Fingerprint) Size() int {
	if f == nil || f.hashes == nil {
		return 0
	}
	return int(f.hashes.GetCardinality())
}

// TokenCount returns the length of the normalized token stream the sketch
// was winnowed from.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return f.tokenCount
}

// StreamHash returns a hash of the entire normalized token stream. Two units
// with equal stream hashes are literal-normalized identical, which the
// matcher uses to skip the set arithmetic (their Jaccard similarity is 1).
func (f *Fingerprint) StreamHash() uint64 {
	if f == nil {
		return 0
	}
	return f.streamHash
}

// Hashes returns the sketch contents in ascending order.
func (f *Fingerprint) Hashes() []uint64 {
	if f == nil || f.hashes == nil {
		return nil
	}
	return f.hashes.ToArray()
}

// Jaccard computes |A∩B| / |A∪B| between two sketches. Either side being
// empty yields 0.
func (f *Fingerprint) Jaccard(other *Fingerprint) float64 {
	if f.Empty() || other.Empty() {
		return 0
	}
	inter := f.hashes.Clone()
	inter.And(other.hashes)
	ic := inter.GetCardinality()
	union := f.hashes.GetCardinality() + other.hashes.GetCardinality() - ic
	if union == 0 {
		return 0
	}
	return float64(ic) / float64(union)
}
