// Package analysis orchestrates the pipeline behind a report run: resolve
// the input paths to Python files, parse them into report nodes, match
// duplicate units, and assemble the pruned report tree.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"canopy/internal/scanner"
	"canopy/internal/vcs"
	"canopy/pkg/analyzer"
	"canopy/pkg/analyzer/duplicates"
	"canopy/pkg/analyzer/units"
	"canopy/pkg/config"
	"canopy/pkg/models"
	"canopy/pkg/report"
	"canopy/pkg/source"
)

// Phase names passed to progress callbacks.
const (
	PhaseAnalyze     = "analyze"
	PhaseDuplication = "duplication"
)

// ProgressFunc receives per-item pipeline progress. phase names the stage,
// current and total count its work items, and label names the item that
// just finished. total is fixed for the duration of a phase.
type ProgressFunc func(phase string, current, total int, label string)

// Service runs code analysis.
type Service struct {
	config *config.Config
	opener vcs.Opener
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Options configures a report run.
type Options struct {
	// Ref analyzes the committed tree at a git revision instead of the
	// working tree. Path arguments then narrow the tree by prefix.
	Ref string

	// Duplication enables the matching phase.
	Duplication bool

	// Jobs caps worker goroutines in both phases. 0 picks the default.
	Jobs int

	// Strict aborts on the first unreadable or unparsable file instead
	// of skipping it.
	Strict bool

	// OnProgress, when set, is called once per completed work item.
	OnProgress ProgressFunc
}

// Plan is the resolved input of a run: which files will be analyzed and
// where their content comes from. Worktree plans list absolute paths; ref
// plans list repository-relative paths.
type Plan struct {
	Files    []string
	Warnings []string

	root string
	src  units.ContentSource
}

// Plan resolves the given paths to the files a run would analyze. With
// Options.Ref set, the returned plan carries the resolved git tree so the
// analysis phase reads the same revision it was planned against.
func (s *Service) Plan(paths []string, opts Options) (*Plan, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	if opts.Ref != "" {
		return s.planRef(paths, opts.Ref)
	}

	res, err := scanner.New(s.config).Collect(paths)
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &Plan{Files: res.Files, Warnings: res.Warnings, root: cwd}, nil
}

func (s *Service) planRef(paths []string, ref string) (*Plan, error) {
	repo, err := s.opener.Open(repoAnchor(paths))
	if err != nil {
		return nil, err
	}
	tree, err := repo.TreeAt(ref)
	if err != nil {
		return nil, err
	}

	prefixes, warnings := relativePrefixes(paths, repo.Root())
	plan := &Plan{Warnings: warnings, root: repo.Root(), src: source.NewTree(tree)}
	if len(prefixes) == 0 && len(warnings) > 0 {
		// Every path argument fell outside the repository.
		return plan, nil
	}

	res, err := scanner.New(s.config).CollectTree(tree, prefixes)
	if err != nil {
		return nil, fmt.Errorf("list files at %s: %w", ref, err)
	}
	plan.Files = res.Files
	plan.Warnings = append(plan.Warnings, res.Warnings...)
	return plan, nil
}

// Report is the outcome of a run: the pruned tree, its summary, the files
// skipped under the non-strict parse policy, and how many units received a
// duplication record.
type Report struct {
	Root    *models.ReportNode
	Summary report.Summary
	Skipped []units.Failure
	Matched int
}

// Run executes the analysis phases over a plan. Files that cannot be read
// or parsed are skipped and reported unless Options.Strict is set, in
// which case the first failure aborts the run.
func (s *Service) Run(ctx context.Context, plan *Plan, opts Options) (*Report, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = s.config.Analysis.Jobs
	}

	analyzerOpts := []units.Option{units.WithWorkers(jobs)}
	if opts.Strict {
		analyzerOpts = append(analyzerOpts, units.WithFailFast(true))
	}
	if plan.src != nil {
		analyzerOpts = append(analyzerOpts, units.WithSource(plan.src))
	}

	unitAnalyzer := units.New(analyzerOpts...)
	actx := phaseContext(ctx, PhaseAnalyze, len(plan.Files), opts.OnProgress)
	result, err := unitAnalyzer.Analyze(actx, plan.Files)
	if err != nil {
		return nil, err
	}

	matched := 0
	if opts.Duplication {
		total := 0
		for _, f := range result.Files {
			total += len(f.Leaves())
		}
		dctx := phaseContext(ctx, PhaseDuplication, total, opts.OnProgress)
		matched = duplicates.New(duplicates.WithWorkers(jobs)).Match(dctx, result.Files)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := report.Prune(report.BuildTree(result.Files, plan.root))
	return &Report{
		Root:    root,
		Summary: report.Summarize(root),
		Skipped: result.Failures,
		Matched: matched,
	}, nil
}

// phaseContext attaches a tracker that relays ticks to fn under the given
// phase name. A nil fn leaves the context untouched.
func phaseContext(ctx context.Context, phase string, total int, fn ProgressFunc) context.Context {
	if fn == nil {
		return ctx
	}
	tracker := analyzer.NewTracker(func(current, total int, label string) {
		fn(phase, current, total, label)
	})
	tracker.SetTotal(total)
	return analyzer.WithTracker(ctx, tracker)
}

// repoAnchor picks the filesystem location to detect the repository from:
// the first path argument, walked up to the nearest existing directory.
func repoAnchor(paths []string) string {
	anchor := "."
	if len(paths) > 0 {
		anchor = paths[0]
	}
	abs, err := filepath.Abs(anchor)
	if err != nil {
		return "."
	}
	for {
		if info, err := os.Stat(abs); err == nil {
			if info.IsDir() {
				return abs
			}
			return filepath.Dir(abs)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "."
		}
		abs = parent
	}
}

// relativePrefixes maps worktree path arguments to repository-relative
// slash prefixes. Paths outside the repository become warnings.
func relativePrefixes(paths []string, root string) (prefixes, warnings []string) {
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s is outside the repository", p))
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			warnings = append(warnings, fmt.Sprintf("%s is outside the repository", abs))
			continue
		}
		prefixes = append(prefixes, filepath.ToSlash(rel))
	}
	return prefixes, warnings
}
