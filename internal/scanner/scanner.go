package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"canopy/internal/vcs"
	"canopy/pkg/config"
)

// pythonSuffixes are the file extensions collected during discovery.
var pythonSuffixes = []string{".py", ".pyw", ".pyi"}

// Scanner discovers Python source files for analysis.
type Scanner struct {
	config *config.Config
}

// New creates a scanner. A nil config falls back to defaults.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// Result holds collected analysis inputs.
type Result struct {
	// Files is the deduplicated list of absolute file paths in
	// discovery order.
	Files []string

	// Warnings describe inputs that were skipped. The CLI prefixes
	// each entry with "warning: " when printing.
	Warnings []string
}

// Collect resolves the given paths into the set of files to analyze.
// Directories are walked recursively; files are accepted when they carry
// a Python suffix. Symlinked files inside walked directories are skipped,
// while a path argument that is itself a symlink is resolved first. Every
// path is recorded at most once, regardless of how many arguments reach it.
func (s *Scanner) Collect(paths []string) (*Result, error) {
	seen := make(map[string]struct{})
	result := &Result{}

	for _, raw := range paths {
		abs, err := filepath.Abs(raw)
		if err != nil {
			return nil, &PathError{Path: raw, Err: err}
		}

		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			result.warnNotPython(abs)
			continue
		}
		info, err := os.Stat(resolved)
		if err != nil {
			result.warnNotPython(resolved)
			continue
		}

		switch {
		case info.IsDir():
			found, err := s.scanDir(resolved)
			if err != nil {
				return nil, &ScanError{Path: raw, Err: err}
			}
			for _, f := range found {
				result.add(seen, f)
			}
		case isPythonFile(resolved) && info.Mode().IsRegular():
			result.add(seen, resolved)
		default:
			result.warnNotPython(resolved)
		}
	}

	s.filterBySize(result)
	return result, nil
}

// CollectTree lists Python files from a version-controlled tree snapshot.
// Paths are repo-relative prefixes narrowing the listing; "." selects the
// whole tree. Config excludes and the size limit apply; .gitignore files
// are not consulted since committed trees do not contain ignored files.
func (s *Scanner) CollectTree(tree vcs.Tree, paths []string) (*Result, error) {
	entries, err := tree.Entries()
	if err != nil {
		return nil, err
	}

	prefixes := treePrefixes(paths)
	matcher := gitignore.NewMatcher(s.configPatterns())
	maxSize := s.config.Analysis.MaxFileSize
	result := &Result{}

	for _, entry := range entries {
		if !isPythonFile(entry.Path) {
			continue
		}
		if !underAny(entry.Path, prefixes) {
			continue
		}
		if matcher.Match(strings.Split(entry.Path, "/"), false) {
			continue
		}
		if maxSize > 0 && entry.Size > maxSize {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s exceeds the maximum file size, skipped", entry.Path))
			continue
		}
		result.Files = append(result.Files, entry.Path)
	}

	return result, nil
}

func (r *Result) add(seen map[string]struct{}, path string) {
	if _, dup := seen[path]; dup {
		return
	}
	seen[path] = struct{}{}
	r.Files = append(r.Files, path)
}

func (r *Result) warnNotPython(path string) {
	r.Warnings = append(r.Warnings,
		fmt.Sprintf("%s is neither a directory nor a .py file", path))
}

// scanDir walks root and returns the Python files beneath it, honoring
// config excludes and, inside a git repository, .gitignore files.
func (s *Scanner) scanDir(root string) ([]string, error) {
	patterns := s.configPatterns()

	// Patterns and matched paths share one base directory. When the walk
	// starts inside a git repository that base is the repository root, so
	// a top-level .gitignore applies even to subdirectory walks.
	patternRoot := root
	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			patternRoot = gitRoot
			gitFS := osfs.New(gitRoot)
			if gitPatterns, err := gitignore.ReadPatterns(gitFS, nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}
	matcher := gitignore.NewMatcher(patterns)

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		rel, relErr := filepath.Rel(patternRoot, path)
		if relErr != nil {
			return nil
		}
		parts := strings.Split(rel, string(filepath.Separator))

		if d.IsDir() {
			if path != root && matcher.Match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}

		// Symlinked entries are skipped; directory symlinks are not
		// followed either, since WalkDir reports them as non-dirs.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !isPythonFile(path) {
			return nil
		}
		if matcher.Match(parts, false) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, walkErr
}

// filterBySize drops files larger than the configured limit, warning for
// each. A limit of 0 keeps everything.
func (s *Scanner) filterBySize(result *Result) {
	maxSize := s.config.Analysis.MaxFileSize
	if maxSize <= 0 {
		return
	}

	kept := result.Files[:0]
	for _, f := range result.Files {
		info, err := os.Stat(f)
		if err == nil && info.Size() > maxSize {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s exceeds the maximum file size, skipped", f))
			continue
		}
		kept = append(kept, f)
	}
	result.Files = kept
}

// configPatterns turns the config excludes into gitignore patterns. A bare
// directory name becomes "name/", matching it at any depth.
func (s *Scanner) configPatterns() []gitignore.Pattern {
	var patterns []gitignore.Pattern
	for _, dir := range s.config.Exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(dir+"/", nil))
	}
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	return patterns
}

// findGitRoot walks upward from start looking for a .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func isPythonFile(path string) bool {
	ext := filepath.Ext(path)
	for _, suffix := range pythonSuffixes {
		if ext == suffix {
			return true
		}
	}
	return false
}

// treePrefixes normalizes repo-relative path arguments. nil means the
// whole tree.
func treePrefixes(paths []string) []string {
	var prefixes []string
	for _, p := range paths {
		clean := filepath.ToSlash(filepath.Clean(p))
		if clean == "." || clean == "/" || clean == "" {
			return nil
		}
		prefixes = append(prefixes, strings.TrimPrefix(clean, "/"))
	}
	return prefixes
}

func underAny(path string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// PathError indicates an invalid path argument.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a directory walk failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
