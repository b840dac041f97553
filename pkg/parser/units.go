package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Function is a function or method definition as discovered in source.
// Parameters counts positional, positional-only, and keyword-only names
// (including self); *args and **kwargs collectors and bare separators are
// not parameters.
type Function struct {
	Node       *sitter.Node
	Name       string
	StartLine  int
	EndLine    int
	Parameters int
	Docstring  string
}

// Class is a top-level class definition with its directly declared methods.
// Functions nested inside method bodies are not listed; they only feed the
// enclosing method's metrics.
type Class struct {
	Node      *sitter.Node
	Name      string
	StartLine int
	EndLine   int
	Docstring string
	Methods   []Function
}

// Declaration is one top-level definition in source order. Exactly one of
// Function and Class is set.
type Declaration struct {
	Function *Function
	Class    *Class
}

// Declarations returns the file's top-level function and class definitions
// in source order. Definitions nested under conditionals, try blocks, or
// other statements are not top level and are skipped, as are nested
// functions at any depth.
func (f *File) Declarations() []Declaration {
	root := f.Root()
	var decls []Declaration
	for i := range int(root.NamedChildCount()) {
		def := unwrapDecorated(root.NamedChild(i))
		switch def.Type() {
		case "function_definition":
			fn := f.function(def)
			decls = append(decls, Declaration{Function: &fn})
		case "class_definition":
			cls := f.class(def)
			decls = append(decls, Declaration{Class: &cls})
		}
	}
	return decls
}

// unwrapDecorated resolves a decorated_definition to the definition it
// wraps. Line numbers of the returned node start at the def or class
// keyword, not the decorators.
func unwrapDecorated(n *sitter.Node) *sitter.Node {
	if n.Type() == "decorated_definition" {
		if def := n.ChildByFieldName("definition"); def != nil {
			return def
		}
	}
	return n
}

func (f *File) function(def *sitter.Node) Function {
	return Function{
		Node:       def,
		Name:       f.Text(def.ChildByFieldName("name")),
		StartLine:  int(def.StartPoint().Row) + 1,
		EndLine:    int(def.EndPoint().Row) + 1,
		Parameters: countParameters(def.ChildByFieldName("parameters")),
		Docstring:  f.docstring(def.ChildByFieldName("body")),
	}
}

func (f *File) class(def *sitter.Node) Class {
	cls := Class{
		Node:      def,
		Name:      f.Text(def.ChildByFieldName("name")),
		StartLine: int(def.StartPoint().Row) + 1,
		EndLine:   int(def.EndPoint().Row) + 1,
		Docstring: f.docstring(def.ChildByFieldName("body")),
	}
	body := def.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := range int(body.NamedChildCount()) {
		member := unwrapDecorated(body.NamedChild(i))
		if member.Type() == "function_definition" {
			cls.Methods = append(cls.Methods, f.function(member))
		}
	}
	return cls
}

// parameterKinds are the child node kinds of a parameter list that count as
// a declared parameter.
var parameterKinds = map[string]bool{
	"identifier":              true,
	"typed_parameter":         true,
	"default_parameter":       true,
	"typed_default_parameter": true,
}

func countParameters(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	count := 0
	for i := range int(params.NamedChildCount()) {
		if parameterKinds[params.NamedChild(i).Type()] {
			count++
		}
	}
	return count
}

// docstring extracts the cleaned docstring from a definition body: the
// body's first statement when it is a bare plain-string expression.
// f-strings and byte strings are not docstrings.
func (f *File) docstring(body *sitter.Node) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() != 1 {
		return ""
	}

	expr := first.NamedChild(0)
	switch expr.Type() {
	case "string":
		content, ok := f.stringContent(expr)
		if !ok {
			return ""
		}
		return Cleandoc(content)
	case "concatenated_string":
		var parts []string
		for i := range int(expr.NamedChildCount()) {
			part := expr.NamedChild(i)
			if part.Type() != "string" {
				return ""
			}
			content, ok := f.stringContent(part)
			if !ok {
				return ""
			}
			parts = append(parts, content)
		}
		return Cleandoc(strings.Join(parts, ""))
	default:
		return ""
	}
}

// stringContent returns the text between a string's quote tokens. Escape
// sequences stay verbatim. Returns ok=false for f-strings and byte strings,
// which are not constant text.
func (f *File) stringContent(str *sitter.Node) (string, bool) {
	var start, end *sitter.Node
	for i := range int(str.ChildCount()) {
		child := str.Child(i)
		switch child.Type() {
		case "string_start":
			start = child
			if strings.ContainsAny(f.Text(child), "bBfF") {
				return "", false
			}
		case "string_end":
			end = child
		case "interpolation":
			return "", false
		}
	}
	if start == nil || end == nil {
		return stripQuotes(f.Text(str))
	}
	return string(f.source[start.EndByte():end.StartByte()]), true
}

// stripQuotes is the fallback when the grammar exposes no quote tokens.
func stripQuotes(text string) (string, bool) {
	i := strings.IndexAny(text, `"'`)
	if i < 0 {
		return "", false
	}
	if strings.ContainsAny(strings.ToLower(text[:i]), "bf") {
		return "", false
	}
	quote := text[i : i+1]
	if strings.HasPrefix(text[i:], strings.Repeat(quote, 3)) {
		quote = strings.Repeat(quote, 3)
	}
	body := text[i+len(quote):]
	if !strings.HasSuffix(body, quote) {
		return "", false
	}
	return strings.TrimSuffix(body, quote), true
}

// Cleandoc normalizes a docstring the way Python's inspect.cleandoc does:
// tabs expanded, the first line left-stripped, the common leading space of
// the remaining lines removed, and leading and trailing blank lines
// dropped.
func Cleandoc(doc string) string {
	lines := strings.Split(expandTabs(doc), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := strings.TrimLeft(line, " ")
		if content == "" {
			continue
		}
		indent := len(line) - len(content)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = ""
			}
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			pad := 8 - col%8
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
		case '\n':
			b.WriteRune('\n')
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
