// Package vcs provides read-only access to git repositories.
package vcs

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TreeEntry is one file recorded in a git tree.
type TreeEntry struct {
	Path string
	Size int64
}

// Tree is a read-only view of the files at one revision. Paths are
// slash-separated and relative to the repository root.
type Tree interface {
	// File returns the content of the file at path.
	File(path string) ([]byte, error)
	// Entries lists all files in the tree, recursively.
	Entries() ([]TreeEntry, error)
}

// Repository resolves revisions on an opened git repository.
type Repository interface {
	// TreeAt resolves a revision (branch, tag, or hash) to its file tree.
	TreeAt(rev string) (Tree, error)
	// Root returns the repository's worktree root.
	Root() string
}

// Opener opens git repositories. Tests substitute fakes.
type Opener interface {
	Open(path string) (Repository, error)
}

type gitOpener struct{}

func (gitOpener) Open(path string) (Repository, error) {
	return Open(path)
}

// DefaultOpener returns an Opener backed by go-git.
func DefaultOpener() Opener {
	return gitOpener{}
}

// Open opens the git repository containing path, detecting the .git
// directory in parent directories.
func Open(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", path, err)
	}
	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &gitRepository{repo: repo, root: root}, nil
}

type gitRepository struct {
	repo *git.Repository
	root string
}

func (r *gitRepository) Root() string {
	return r.root
}

func (r *gitRepository) TreeAt(rev string) (Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	return &gitTree{tree: tree}, nil
}

type gitTree struct {
	tree *object.Tree
}

func (t *gitTree) File(path string) ([]byte, error) {
	f, err := t.tree.File(path)
	if err != nil {
		return nil, err
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

func (t *gitTree) Entries() ([]TreeEntry, error) {
	var entries []TreeEntry
	err := t.tree.Files().ForEach(func(f *object.File) error {
		entries = append(entries, TreeEntry{Path: f.Name, Size: f.Size})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
