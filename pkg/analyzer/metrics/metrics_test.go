package metrics

import (
	"context"
	"testing"

	"canopy/pkg/models"
	"canopy/pkg/parser"
)

func extractFirst(t *testing.T, source string) models.Metrics {
	t.Helper()
	p := parser.New()
	t.Cleanup(p.Close)

	f, err := p.Parse(context.Background(), "/tmp/test.py", []byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	t.Cleanup(f.Close)

	decls := f.Declarations()
	if len(decls) == 0 || decls[0].Function == nil {
		t.Fatalf("no function in source:\n%s", source)
	}
	return Extract(decls[0].Function, f.Source())
}

func TestExtract_NoDecisionsMeansComplexityOne(t *testing.T) {
	m := extractFirst(t, "def f():\n    return 1\n")

	if m.CyclomaticComplexity != 1 {
		t.Errorf("complexity = %d, want 1", m.CyclomaticComplexity)
	}
	// The unit's own def header counts as a statement alongside the return.
	if m.Statements != 2 {
		t.Errorf("statements = %d, want 2", m.Statements)
	}
	if m.Lines != 2 {
		t.Errorf("lines = %d, want 2", m.Lines)
	}
	if m.Duplication != nil {
		t.Error("freshly extracted metrics must carry no duplication")
	}
}

func TestExtract_EachDecisionAddsOne(t *testing.T) {
	base := "def f(x):\n    pass\n"
	tests := []struct {
		name   string
		source string
		added  int
	}{
		{name: "if", source: "def f(x):\n    if x:\n        pass\n", added: 1},
		{name: "for", source: "def f(x):\n    for i in x:\n        pass\n", added: 1},
		{name: "while", source: "def f(x):\n    while x:\n        pass\n", added: 1},
		{name: "try with one except", source: "def f(x):\n    try:\n        pass\n    except ValueError:\n        pass\n", added: 2},
		{name: "second except adds one more", source: "def f(x):\n    try:\n        pass\n    except ValueError:\n        pass\n    except KeyError:\n        pass\n", added: 3},
		{name: "elif chain counts each branch", source: "def f(x):\n    if x:\n        pass\n    elif x:\n        pass\n    elif x:\n        pass\n", added: 3},
		{name: "boolean operator", source: "def f(x):\n    if x and x:\n        pass\n", added: 2},
		{name: "with block", source: "def f(x):\n    with x:\n        pass\n", added: 1},
	}

	baseline := extractFirst(t, base).CyclomaticComplexity
	if baseline != 1 {
		t.Fatalf("baseline complexity = %d, want 1", baseline)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractFirst(t, tt.source).CyclomaticComplexity
			if got != baseline+tt.added {
				t.Errorf("complexity = %d, want %d", got, baseline+tt.added)
			}
		})
	}
}

func TestExtract_StatementAndExpressionCounts(t *testing.T) {
	source := `def run():
    """Doc."""
    x = 1
    x += 2
    print(x)
`
	m := extractFirst(t, source)

	// The def header and both assignments count as statements; the
	// docstring and the print call are bare expression statements.
	if m.Statements != 3 {
		t.Errorf("statements = %d, want 3", m.Statements)
	}
	if m.ExpressionStatements != 2 {
		t.Errorf("expression_statements = %d, want 2", m.ExpressionStatements)
	}
	// run, "Doc.", x, 1, x, 2, call, print, x
	if m.Expressions != 9 {
		t.Errorf("expressions = %d, want 9", m.Expressions)
	}
	if m.Lines != 5 {
		t.Errorf("lines = %d, want 5", m.Lines)
	}
}

func TestExtract_BranchingFunction(t *testing.T) {
	source := `def check(a, b):
    if a and b:
        return a
    return b
`
	m := extractFirst(t, source)

	if m.CyclomaticComplexity != 3 {
		t.Errorf("complexity = %d, want 3 (if + boolean operator + entry)", m.CyclomaticComplexity)
	}
	if m.Statements != 4 {
		t.Errorf("statements = %d, want 4", m.Statements)
	}
	if m.Expressions != 8 {
		t.Errorf("expressions = %d, want 8", m.Expressions)
	}
	if m.Parameters != 2 {
		t.Errorf("parameters = %d, want 2", m.Parameters)
	}
}

func TestExtract_NestedFunctionFeedsEnclosingUnit(t *testing.T) {
	source := `def outer():
    def inner(p):
        if p:
            return p
    return inner
`
	m := extractFirst(t, source)

	// outer def, inner def, if, two returns
	if m.Statements != 5 {
		t.Errorf("statements = %d, want 5", m.Statements)
	}
	if m.CyclomaticComplexity != 2 {
		t.Errorf("complexity = %d, want 2 (nested if counts here)", m.CyclomaticComplexity)
	}
	if m.Lines != 5 {
		t.Errorf("lines = %d, want 5", m.Lines)
	}
}

func TestExtract_MatchAndWith(t *testing.T) {
	source := `def h(x):
    with open(x) as f:
        data = f.read()
    match x:
        case 1:
            pass
    return data
`
	m := extractFirst(t, source)

	// with + match + entry
	if m.CyclomaticComplexity != 3 {
		t.Errorf("complexity = %d, want 3", m.CyclomaticComplexity)
	}
	// def, with, assignment, match, return
	if m.Statements != 5 {
		t.Errorf("statements = %d, want 5", m.Statements)
	}
}

func TestExtract_ParametersAndLinesPassThrough(t *testing.T) {
	source := `def g(a, b, *args, key=None, **kw):

    return a
`
	m := extractFirst(t, source)

	if m.Parameters != 3 {
		t.Errorf("parameters = %d, want 3 (collectors excluded)", m.Parameters)
	}
	if m.Lines != 3 {
		t.Errorf("lines = %d, want 3", m.Lines)
	}
}
