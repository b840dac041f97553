package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// IsPythonFile reports whether the path looks like Python source.
func IsPythonFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return true
	default:
		return false
	}
}

// Parser wraps tree-sitter with the Python grammar. A Parser is not safe for
// concurrent use; callers that parse in parallel hold one Parser per worker.
type Parser struct {
	parser *sitter.Parser
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(ctx, path, source)
}

// Parse parses source content into a positioned syntax tree.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*File, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &File{
		Path:        path,
		source:      source,
		tree:        tree,
		lineOffsets: lineOffsets(source),
	}, nil
}

// File is one parsed source file with the helpers the analyzers need:
// node text, line slicing, and top-level declaration discovery.
type File struct {
	Path string

	source      []byte
	tree        *sitter.Tree
	lineOffsets []int
}

// Close releases the underlying tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
	}
}

// Root returns the tree's root node.
func (f *File) Root() *sitter.Node {
	return f.tree.RootNode()
}

// Source returns the raw file content.
func (f *File) Source() []byte {
	return f.source
}

// HasSyntaxError reports whether the tree contains error or missing nodes,
// i.e. the file did not parse cleanly.
func (f *File) HasSyntaxError() bool {
	return f.Root().HasError()
}

// Text extracts the source text of a node.
func (f *File) Text(n *sitter.Node) string {
	return GetNodeText(n, f.source)
}

// LineSpan returns the raw text of the inclusive 1-based line range,
// trailing newlines kept, matching how units report their source slice.
func (f *File) LineSpan(startLine, endLine int) string {
	if startLine < 1 || startLine > len(f.lineOffsets) || endLine < startLine {
		return ""
	}
	start := f.lineOffsets[startLine-1]
	end := len(f.source)
	if endLine < len(f.lineOffsets) {
		end = f.lineOffsets[endLine]
	}
	return string(f.source[start:end])
}

// lineOffsets returns the byte offset of each 1-based line's first byte.
func lineOffsets(source []byte) []int {
	offsets := []int{0}
	for i, b := range source {
		if b == '\n' && i+1 < len(source) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// NodeVisitor is a function that visits AST nodes.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// TypedNodeVisitor visits AST nodes with pre-cached node type to avoid CGO
// overhead on repeated Type calls.
type TypedNodeVisitor func(node *sitter.Node, nodeType string, source []byte) bool

// Walk traverses the AST calling visitor for each node, anonymous tokens
// included. Returning false skips the node's subtree.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}
	if !visitor(node, source) {
		return
	}
	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// WalkTyped traverses the AST with cached node types.
func WalkTyped(node *sitter.Node, source []byte, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}
	nodeType := node.Type()
	if !visitor(node, nodeType, source) {
		return
	}
	for i := range int(node.ChildCount()) {
		WalkTyped(node.Child(i), source, visitor)
	}
}

// WalkNamed traverses only named nodes, the grammar-level constructs the
// metric category tables are defined over.
func WalkNamed(node *sitter.Node, source []byte, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}
	nodeType := node.Type()
	if !visitor(node, nodeType, source) {
		return
	}
	for i := range int(node.NamedChildCount()) {
		WalkNamed(node.NamedChild(i), source, visitor)
	}
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}
