// Package fingerprint derives compact lexical sketches from function
// bodies for near-duplicate screening.
//
// A sketch is built from the unit's normalized token stream: comments are
// dropped, string literals collapse to "STR", and numeric literals
// collapse to "0", so renamed constants or reworded messages do not break
// a match. Every run of WindowSize consecutive tokens is hashed, and the
// SketchSize smallest hashes are kept.
package fingerprint

import (
	"encoding/binary"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/zeebo/blake3"

	"canopy/pkg/models"
	"canopy/pkg/parser"
)

const (
	// WindowSize is the number of consecutive tokens per shingle window.
	WindowSize = 5

	// SketchSize caps how many shingle hashes a sketch retains.
	SketchSize = 50

	// MinTokens is the shortest token stream worth fingerprinting. Units
	// below it get an empty sketch and never enter candidate screening.
	MinTokens = 25
)

var windowSep = []byte(" ")

// FromNode fingerprints the source subtree rooted at node.
func FromNode(node *sitter.Node, source []byte) *models.Fingerprint {
	return FromTokens(Tokens(node, source))
}

// Tokens returns the normalized lexical token stream of the subtree rooted
// at node: leaf tokens in source order, comments removed, string literals
// replaced by "STR", and numeric literals replaced by "0".
func Tokens(node *sitter.Node, source []byte) []string {
	tokens := make([]string, 0, 64)
	parser.WalkTyped(node, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		switch nodeType {
		case "comment":
			return false
		case "string":
			// One token per literal, f-strings and prefixes included.
			tokens = append(tokens, "STR")
			return false
		case "integer", "float":
			tokens = append(tokens, "0")
			return false
		}
		if n.ChildCount() == 0 {
			if text := parser.GetNodeText(n, src); text != "" {
				tokens = append(tokens, text)
			}
		}
		return true
	})
	return tokens
}

// FromTokens builds a fingerprint from an already normalized token stream.
// The stream hash covers the full stream even when the sketch is empty, so
// identical short units still compare equal.
func FromTokens(tokens []string) *models.Fingerprint {
	streamHash := xxhash.Sum64String(strings.Join(tokens, " "))
	hashes := roaring64.New()
	if len(tokens) < MinTokens {
		return models.NewFingerprint(hashes, len(tokens), streamHash)
	}
	for i := 0; i+WindowSize <= len(tokens); i++ {
		h := blake3.New()
		for j := i; j < i+WindowSize; j++ {
			if j > i {
				h.Write(windowSep)
			}
			h.Write([]byte(tokens[j]))
		}
		sum := h.Sum(nil)
		hashes.Add(binary.LittleEndian.Uint64(sum[:8]))
	}
	if hashes.GetCardinality() > SketchSize {
		kept := roaring64.New()
		it := hashes.Iterator()
		for i := 0; i < SketchSize && it.HasNext(); i++ {
			kept.Add(it.Next())
		}
		hashes = kept
	}
	return models.NewFingerprint(hashes, len(tokens), streamHash)
}
