// Package metrics turns one parsed unit (a function or method definition)
// into its structural metrics record. Counting is defined over fixed tables
// of grammar node kinds; the walk covers the unit's whole subtree, so
// functions nested inside the unit feed its totals without ever becoming
// units of their own.
package metrics

import (
	sitter "github.com/smacker/go-tree-sitter"

	"canopy/pkg/models"
	"canopy/pkg/parser"
)

// statementKinds is the fixed statement category set: conditionals (each
// elif mirrors its own node), loops, context managers, exception blocks and
// their handlers, pattern matches, assignments of every flavor, raise,
// return, and def/class headers themselves. Async variants share these node
// kinds in the Python grammar.
var statementKinds = map[string]bool{
	"if_statement":         true,
	"elif_clause":          true,
	"for_statement":        true,
	"while_statement":      true,
	"with_statement":       true,
	"try_statement":        true,
	"except_clause":        true,
	"except_group_clause":  true,
	"match_statement":      true,
	"function_definition":  true,
	"class_definition":     true,
	"assignment":           true,
	"augmented_assignment": true,
	"raise_statement":      true,
	"return_statement":     true,
}

// decisionKinds are the branch-bearing constructs for the McCabe
// approximation: cyclomatic complexity is their count plus one for entry.
var decisionKinds = map[string]bool{
	"if_statement":        true,
	"elif_clause":         true,
	"for_statement":       true,
	"while_statement":     true,
	"try_statement":       true,
	"except_clause":       true,
	"except_group_clause": true,
	"with_statement":      true,
	"match_statement":     true,
	"boolean_operator":    true,
}

// expressionKinds are the node kinds counted as expressions, anywhere in
// the subtree: names, accesses, calls, operators, literals, containers,
// comprehensions. Wrapper nodes (argument lists, parenthesized groups,
// keyword arguments) are not counted; their payloads are.
var expressionKinds = map[string]bool{
	"identifier":               true,
	"attribute":                true,
	"subscript":                true,
	"slice":                    true,
	"call":                     true,
	"binary_operator":          true,
	"boolean_operator":         true,
	"comparison_operator":      true,
	"unary_operator":           true,
	"not_operator":             true,
	"conditional_expression":   true,
	"named_expression":         true,
	"lambda":                   true,
	"await":                    true,
	"yield":                    true,
	"string":                   true,
	"concatenated_string":      true,
	"integer":                  true,
	"float":                    true,
	"true":                     true,
	"false":                    true,
	"none":                     true,
	"ellipsis":                 true,
	"list":                     true,
	"tuple":                    true,
	"dictionary":               true,
	"set":                      true,
	"list_comprehension":       true,
	"set_comprehension":        true,
	"dictionary_comprehension": true,
	"generator_expression":     true,
}

// Extract computes the metrics of one unit. The duplication slot stays nil;
// the matcher attaches it later via a metrics copy.
func Extract(fn *parser.Function, source []byte) models.Metrics {
	c := count(fn.Node, source)
	return models.Metrics{
		Lines:                fn.EndLine - fn.StartLine + 1,
		Statements:           c.statements,
		Expressions:          c.expressions,
		ExpressionStatements: c.expressionStatements,
		CyclomaticComplexity: c.decisions + 1,
		Parameters:           fn.Parameters,
	}
}

type tally struct {
	statements           int
	expressions          int
	expressionStatements int
	decisions            int
}

// count walks the subtree rooted at the definition node, the definition
// included, so a unit's own def header counts as a statement.
func count(node *sitter.Node, source []byte) tally {
	var c tally
	parser.WalkNamed(node, source, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if statementKinds[nodeType] {
			c.statements++
		}
		if decisionKinds[nodeType] {
			c.decisions++
		}
		if expressionKinds[nodeType] {
			c.expressions++
		}
		if nodeType == "expression_statement" && isBareExpression(n) {
			c.expressionStatements++
		}
		return true
	})
	return c
}

// isBareExpression reports whether an expression_statement is a plain
// expression evaluated for side effect. The grammar routes assignments
// through expression_statement too; those are statements of their own
// category, not bare expressions.
func isBareExpression(stmt *sitter.Node) bool {
	if stmt.NamedChildCount() == 0 {
		return false
	}
	switch stmt.NamedChild(0).Type() {
	case "assignment", "augmented_assignment":
		return false
	}
	return true
}
