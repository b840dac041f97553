package models

// NodeType identifies the kind of a node in the analysis report tree.
type NodeType string

const (
	NodeDirectory NodeType = "directory"
	NodeFile      NodeType = "file"
	NodeClass     NodeType = "class"
	NodeFunction  NodeType = "function"
	NodeMethod    NodeType = "method"
)

// ReportNode is one node of the hierarchical analysis report: a directory,
// a file, a class, or a leaf unit (function or method). Only leaf units
// carry Metrics and source text; that discipline is enforced by the
// constructors below rather than left to callers.
//
// Children keep encounter order: the order definitions appear in a file,
// and the order files were discovered, is the order they serialize in.
type ReportNode struct {
	Name      string        `json:"name"`
	Type      NodeType      `json:"nodetype"`
	Path      string        `json:"path"`
	QualName  string        `json:"qualname,omitempty"`
	StartLine int           `json:"lineno,omitempty"`
	EndLine   int           `json:"end_lineno,omitempty"`
	Docstring string        `json:"docstring,omitempty"`
	Source    string        `json:"source,omitempty"`
	Metrics   *Metrics      `json:"metrics,omitempty"`
	Children  []*ReportNode `json:"children,omitempty"`

	// fingerprint is matcher-internal state. Unexported so it can never
	// leak into an encoded report.
	fingerprint *Fingerprint
}

// NewDirectoryNode creates a directory node.
func NewDirectoryNode(name, path string) *ReportNode {
	return &ReportNode{Name: name, Type: NodeDirectory, Path: path}
}

// NewFileNode creates a file node with its class and unit children.
func NewFileNode(name, path string, children []*ReportNode) *ReportNode {
	for _, c := range children {
		if c.Type == NodeDirectory || c.Type == NodeFile {
			panic("models: file node child must be a class, function, or method, got " + string(c.Type))
		}
	}
	return &ReportNode{Name: name, Type: NodeFile, Path: path, Children: children}
}

// NewClassNode creates a class node with its method children. Classes carry
// position and docstring but no metrics or source of their own.
func NewClassNode(name, path string, startLine, endLine int, docstring string, methods []*ReportNode) *ReportNode {
	for _, m := range methods {
		if m.Type != NodeMethod {
			panic("models: class node child must be a method, got " + string(m.Type))
		}
	}
	return &ReportNode{
		Name:      name,
		Type:      NodeClass,
		Path:      path,
		StartLine: startLine,
		EndLine:   endLine,
		Docstring: docstring,
		Children:  methods,
	}
}

// NewLeafNode creates a function or method node, the only kinds carrying
// metrics and source text.
func NewLeafNode(t NodeType, name, qualName, path string, startLine, endLine int, docstring, source string, m Metrics) *ReportNode {
	if t != NodeFunction && t != NodeMethod {
		panic("models: leaf node must be a function or method, got " + string(t))
	}
	return &ReportNode{
		Name:      name,
		Type:      t,
		Path:      path,
		QualName:  qualName,
		StartLine: startLine,
		EndLine:   endLine,
		Docstring: docstring,
		Source:    source,
		Metrics:   &m,
	}
}

// IsLeaf reports whether the node is a function or method unit.
func (n *ReportNode) IsLeaf() bool {
	return n.Type == NodeFunction || n.Type == NodeMethod
}

// IsDirectory reports whether the node is a directory.
func (n *ReportNode) IsDirectory() bool {
	return n.Type == NodeDirectory
}

// HasFileChildren reports whether any direct child is a file node.
func (n *ReportNode) HasFileChildren() bool {
	for _, c := range n.Children {
		if c.Type == NodeFile {
			return true
		}
	}
	return false
}

// AddChild appends a child, preserving encounter order.
func (n *ReportNode) AddChild(child *ReportNode) {
	n.Children = append(n.Children, child)
}

// DisplayName returns the qualified name when set, the plain name otherwise.
// Duplication records reference their partner by this name.
func (n *ReportNode) DisplayName() string {
	if n.QualName != "" {
		return n.QualName
	}
	return n.Name
}

// SetFingerprint attaches the matcher-internal fingerprint to a leaf unit.
func (n *ReportNode) SetFingerprint(fp *Fingerprint) {
	if !n.IsLeaf() {
		panic("models: fingerprint on non-leaf node " + string(n.Type))
	}
	n.fingerprint = fp
}

// Fingerprint returns the unit's fingerprint, nil if none was attached.
func (n *ReportNode) Fingerprint() *Fingerprint {
	return n.fingerprint
}

// AttachDuplication replaces the leaf's metrics with a copy carrying the
// duplication record. Calling it on a node without metrics is a logic fault
// and panics.
func (n *ReportNode) AttachDuplication(d *Duplication) {
	if n.Metrics == nil {
		panic("models: duplication attached to node without metrics: " + n.DisplayName())
	}
	m := n.Metrics.WithDuplication(d)
	n.Metrics = &m
}

// Leaves returns every function and method node in the subtree in preorder
// encounter order. The traversal is iterative so arbitrarily deep trees
// cannot exhaust the stack.
func (n *ReportNode) Leaves() []*ReportNode {
	var leaves []*ReportNode
	stack := []*ReportNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.IsLeaf() {
			leaves = append(leaves, cur)
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return leaves
}
