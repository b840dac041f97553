// Package units analyzes Python source files into report file nodes:
// one node per file, holding its top-level functions and its classes with
// their methods, each unit carrying structural metrics, its source text,
// and a fingerprint for later duplicate matching.
package units

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"canopy/internal/fileproc"
	"canopy/pkg/analyzer/fingerprint"
	"canopy/pkg/analyzer/metrics"
	"canopy/pkg/models"
	"canopy/pkg/parser"
	"canopy/pkg/source"
)

// ParseError marks a file whose source failed to parse as Python.
type ParseError struct {
	Path string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: invalid python syntax", e.Path)
}

// ContentSource provides file content.
type ContentSource interface {
	Read(path string) ([]byte, error)
}

// Failure records a file left out of the analysis and why.
type Failure struct {
	Path string
	Err  error
}

// Result is the outcome of analyzing a batch of files. Files holds one
// node per successfully analyzed input file, in input order. Failures
// lists skipped files, also in input order.
type Result struct {
	Files    []*models.ReportNode
	Failures []Failure
}

// Analyzer turns Python files into report file nodes.
type Analyzer struct {
	workers  int
	failFast bool
	source   ContentSource
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithWorkers caps the number of parser goroutines.
// Values <= 0 select the shared worker default.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithFailFast makes the first unreadable or unparsable file abort the
// whole run instead of being skipped.
func WithFailFast(v bool) Option {
	return func(a *Analyzer) {
		a.failFast = v
	}
}

// WithSource sets where file content is read from. The default reads the
// local filesystem.
func WithSource(src ContentSource) Option {
	return func(a *Analyzer) {
		a.source = src
	}
}

// New creates a file analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{source: source.NewFilesystem()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze processes the files in parallel and returns their report nodes
// in input order. Files that cannot be read or parsed are recorded in
// Failures and omitted from the result; with fail-fast set, the batch
// returns an error instead. Progress is reported through the context
// tracker, one tick per file.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Result, error) {
	nodes, errs := fileproc.MapFilesIndexedN(ctx, files, a.workers, func(psr *parser.Parser, path string) (*models.ReportNode, error) {
		return a.analyzeFile(ctx, psr, path)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, n := range nodes {
		if n != nil {
			res.Files = append(res.Files, n)
		}
	}
	if errs != nil {
		order := make(map[string]int, len(files))
		for i, f := range files {
			order[f] = i
		}
		sort.Slice(errs.Errors, func(i, j int) bool {
			return order[errs.Errors[i].Path] < order[errs.Errors[j].Path]
		})
		if a.failFast {
			// The first failure in input order, not collection order.
			return nil, errs.Errors[0].Err
		}
		for _, pe := range errs.Errors {
			res.Failures = append(res.Failures, Failure{Path: pe.Path, Err: pe.Err})
		}
	}
	return res, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, psr *parser.Parser, path string) (*models.ReportNode, error) {
	content, err := a.source.Read(path)
	if err != nil {
		return nil, err
	}
	file, err := psr.Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if file.HasSyntaxError() {
		return nil, &ParseError{Path: path}
	}
	return a.buildFileNode(file), nil
}

func (a *Analyzer) buildFileNode(file *parser.File) *models.ReportNode {
	var children []*models.ReportNode
	for _, decl := range file.Declarations() {
		switch {
		case decl.Function != nil:
			children = append(children, a.unitNode(file, *decl.Function, models.NodeFunction, decl.Function.Name))
		case decl.Class != nil:
			children = append(children, a.classNode(file, *decl.Class))
		}
	}
	return models.NewFileNode(filepath.Base(file.Path), file.Path, children)
}

func (a *Analyzer) classNode(file *parser.File, cls parser.Class) *models.ReportNode {
	methods := make([]*models.ReportNode, 0, len(cls.Methods))
	for _, m := range cls.Methods {
		methods = append(methods, a.unitNode(file, m, models.NodeMethod, cls.Name+"."+m.Name))
	}
	return models.NewClassNode(cls.Name, file.Path, cls.StartLine, cls.EndLine, cls.Docstring, methods)
}

// unitNode builds one leaf unit: metrics from the definition subtree, the
// verbatim source slice spanning its lines, and the matcher fingerprint.
func (a *Analyzer) unitNode(file *parser.File, fn parser.Function, kind models.NodeType, qualName string) *models.ReportNode {
	m := metrics.Extract(&fn, file.Source())
	src := file.LineSpan(fn.StartLine, fn.EndLine)
	node := models.NewLeafNode(kind, fn.Name, qualName, file.Path, fn.StartLine, fn.EndLine, fn.Docstring, src, m)
	node.SetFingerprint(fingerprint.FromNode(fn.Node, file.Source()))
	return node
}
