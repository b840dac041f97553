package parser

import (
	"context"
	"testing"
)

func parseSource(t *testing.T, source string) *File {
	t.Helper()
	p := New()
	t.Cleanup(p.Close)

	f, err := p.Parse(context.Background(), "/tmp/test.py", []byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}

func TestIsPythonFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"main.py", true},
		{"gui.pyw", true},
		{"types.pyi", true},
		{"Main.PY", true},
		{"main.go", false},
		{"py", false},
		{"script", false},
	}

	for _, tt := range tests {
		if got := IsPythonFile(tt.path); got != tt.want {
			t.Errorf("IsPythonFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDeclarations_TopLevelOnly(t *testing.T) {
	source := `import os

def top(a, b):
    def nested():
        pass
    return nested

class Widget:
    """A widget."""

    def render(self):
        pass

    def hide(self):
        pass

if os.name == "posix":
    def conditional():
        pass
`
	f := parseSource(t, source)
	decls := f.Declarations()

	if len(decls) != 2 {
		t.Fatalf("got %d declarations, want 2 (nested and conditional defs excluded)", len(decls))
	}
	fn := decls[0].Function
	if fn == nil || fn.Name != "top" {
		t.Fatalf("first declaration = %+v, want function top", decls[0])
	}
	if fn.Parameters != 2 {
		t.Errorf("top parameters = %d, want 2", fn.Parameters)
	}
	cls := decls[1].Class
	if cls == nil || cls.Name != "Widget" {
		t.Fatalf("second declaration = %+v, want class Widget", decls[1])
	}
	if cls.Docstring != "A widget." {
		t.Errorf("class docstring = %q, want %q", cls.Docstring, "A widget.")
	}
	if len(cls.Methods) != 2 || cls.Methods[0].Name != "render" || cls.Methods[1].Name != "hide" {
		t.Errorf("methods = %+v, want render then hide", cls.Methods)
	}
}

func TestDeclarations_DecoratedAndAsync(t *testing.T) {
	source := `@decorator
def wrapped():
    pass

async def fetch(url):
    return url

@register
class Plugin:
    @property
    def name(self):
        return "plugin"
`
	f := parseSource(t, source)
	decls := f.Declarations()

	if len(decls) != 3 {
		t.Fatalf("got %d declarations, want 3", len(decls))
	}
	if decls[0].Function == nil || decls[0].Function.Name != "wrapped" {
		t.Errorf("decorated function not discovered: %+v", decls[0])
	}
	// Line numbers start at the def keyword, not the decorator.
	if decls[0].Function.StartLine != 2 {
		t.Errorf("wrapped start line = %d, want 2", decls[0].Function.StartLine)
	}
	if decls[1].Function == nil || decls[1].Function.Name != "fetch" {
		t.Errorf("async function not discovered: %+v", decls[1])
	}
	cls := decls[2].Class
	if cls == nil || len(cls.Methods) != 1 || cls.Methods[0].Name != "name" {
		t.Errorf("decorated class/method not discovered: %+v", decls[2])
	}
}

func TestCountParameters(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{name: "plain", source: "def f(a, b): pass\n", want: 2},
		{name: "self counts", source: "def f(self): pass\n", want: 1},
		{name: "positional only marker", source: "def f(a, /, b): pass\n", want: 2},
		{name: "keyword only marker", source: "def f(a, *, k): pass\n", want: 2},
		{name: "collectors excluded", source: "def f(*args, **kwargs): pass\n", want: 0},
		{name: "defaults count once", source: "def f(a=1, b=2): pass\n", want: 2},
		{name: "annotations", source: "def f(a: int, b: str = 'x') -> None: pass\n", want: 2},
		{name: "mixed", source: "def f(a, b=1, *args, k, **kw): pass\n", want: 3},
		{name: "empty", source: "def f(): pass\n", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseSource(t, tt.source)
			decls := f.Declarations()
			if len(decls) != 1 || decls[0].Function == nil {
				t.Fatalf("expected one function, got %+v", decls)
			}
			if got := decls[0].Function.Parameters; got != tt.want {
				t.Errorf("parameters = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDocstring(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "single line",
			source: "def f():\n    \"do the thing\"\n",
			want:   "do the thing",
		},
		{
			name:   "triple quoted indent cleaned",
			source: "def f():\n    \"\"\"Summary line.\n\n        Indented detail.\n    \"\"\"\n",
			want:   "Summary line.\n\nIndented detail.",
		},
		{
			name:   "no docstring",
			source: "def f():\n    return 1\n",
			want:   "",
		},
		{
			name:   "string not first statement",
			source: "def f():\n    x = 1\n    \"late string\"\n",
			want:   "",
		},
		{
			name:   "f-string rejected",
			source: "def f():\n    f\"hello {name}\"\n",
			want:   "",
		},
		{
			name:   "f-string without placeholders rejected",
			source: "def f():\n    f\"plain\"\n",
			want:   "",
		},
		{
			name:   "byte string rejected",
			source: "def f():\n    b\"raw bytes\"\n",
			want:   "",
		},
		{
			name:   "raw string accepted",
			source: "def f():\n    r\"pattern \\d+\"\n",
			want:   "pattern \\d+",
		},
		{
			name:   "implicit concatenation",
			source: "def f():\n    \"first \" \"second\"\n",
			want:   "first second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseSource(t, tt.source)
			decls := f.Declarations()
			if len(decls) != 1 || decls[0].Function == nil {
				t.Fatalf("expected one function, got %+v", decls)
			}
			if got := decls[0].Function.Docstring; got != tt.want {
				t.Errorf("docstring = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLineSpan(t *testing.T) {
	source := "line1\nline2\nline3\nline4"
	f := parseSource(t, source)

	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{name: "middle keeps newline", start: 2, end: 3, want: "line2\nline3\n"},
		{name: "to unterminated end", start: 3, end: 4, want: "line3\nline4"},
		{name: "single line", start: 1, end: 1, want: "line1\n"},
		{name: "out of range", start: 9, end: 12, want: ""},
		{name: "inverted", start: 3, end: 2, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.LineSpan(tt.start, tt.end); got != tt.want {
				t.Errorf("LineSpan(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestHasSyntaxError(t *testing.T) {
	clean := parseSource(t, "def f():\n    return 1\n")
	if clean.HasSyntaxError() {
		t.Error("valid source reported a syntax error")
	}

	broken := parseSource(t, "def f(:\n    retur n 1\n")
	if !broken.HasSyntaxError() {
		t.Error("invalid source reported no syntax error")
	}
}

func TestCleandoc(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "first line stripped", in: "   leading", want: "leading"},
		{
			name: "common indent removed",
			in:   "Summary.\n    detail one\n    detail two",
			want: "Summary.\ndetail one\ndetail two",
		},
		{
			name: "uneven indent keeps relative depth",
			in:   "Top\n    a\n        b",
			want: "Top\na\n    b",
		},
		{name: "blank edges dropped", in: "\n\n  text\n\n", want: "text"},
		{name: "empty", in: "", want: ""},
		{name: "tabs expanded", in: "x\n\ty", want: "x\ny"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cleandoc(tt.in); got != tt.want {
				t.Errorf("Cleandoc(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
