package models

import (
	"math"
	"testing"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

func bitmapOf(values ...uint64) *roaring64.Bitmap {
	bm := roaring64.New()
	for _, v := range values {
		bm.Add(v)
	}
	return bm
}

func TestFingerprint_Jaccard(t *testing.T) {
	tests := []struct {
		name     string
		a        *Fingerprint
		b        *Fingerprint
		expected float64
	}{
		{
			name:     "identical sets",
			a:        NewFingerprint(bitmapOf(1, 2, 3, 4), 30, 7),
			b:        NewFingerprint(bitmapOf(1, 2, 3, 4), 30, 7),
			expected: 1.0,
		},
		{
			name:     "disjoint sets",
			a:        NewFingerprint(bitmapOf(1, 2, 3), 30, 7),
			b:        NewFingerprint(bitmapOf(4, 5, 6), 30, 9),
			expected: 0.0,
		},
		{
			name:     "half overlap",
			a:        NewFingerprint(bitmapOf(1, 2, 3, 4), 30, 7),
			b:        NewFingerprint(bitmapOf(3, 4, 5, 6), 30, 9),
			expected: 1.0 / 3.0,
		},
		{
			name:     "empty left side",
			a:        NewFingerprint(roaring64.New(), 4, 0),
			b:        NewFingerprint(bitmapOf(1, 2), 30, 9),
			expected: 0.0,
		},
		{
			name:     "nil fingerprint",
			a:        nil,
			b:        NewFingerprint(bitmapOf(1, 2), 30, 9),
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Jaccard(tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Jaccard() = %v, want %v", got, tt.expected)
			}
			// Jaccard is symmetric even though best-match selection is not.
			if rev := tt.b.Jaccard(tt.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("Jaccard not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestFingerprint_Empty(t *testing.T) {
	if !(*Fingerprint)(nil).Empty() {
		t.Error("nil fingerprint must be empty")
	}
	if !NewFingerprint(nil, 10, 0).Empty() {
		t.Error("nil bitmap must be empty")
	}
	if !NewFingerprint(roaring64.New(), 10, 0).Empty() {
		t.Error("zero-hash bitmap must be empty")
	}
	if NewFingerprint(bitmapOf(1), 30, 0).Empty() {
		t.Error("populated fingerprint reported empty")
	}
}

func TestFingerprint_HashesAscending(t *testing.T) {
	fp := NewFingerprint(bitmapOf(9, 1, 5), 30, 0)

	hashes := fp.Hashes()
	if len(hashes) != 3 {
		t.Fatalf("Hashes() returned %d values, want 3", len(hashes))
	}
	for i := 1; i < len(hashes); i++ {
		if hashes[i-1] >= hashes[i] {
			t.Errorf("hashes not ascending: %v", hashes)
		}
	}
	if fp.Size() != 3 {
		t.Errorf("Size() = %d, want 3", fp.Size())
	}
}
