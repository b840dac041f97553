// Package report assembles analyzed file nodes into the final hierarchical
// tree, prunes its empty outer layers, and summarizes the result.
package report

import (
	"path/filepath"
	"strings"

	"canopy/pkg/models"
)

// BuildTree assembles a directory tree over the analyzed file nodes. Every
// ancestor directory of each file path becomes a node, created on first
// encounter, so sibling order follows the input. The top node is always a
// synthetic directory named "root"; apply Prune afterwards to strip the
// superfluous outer layers.
func BuildTree(files []*models.ReportNode, rootPath string) *models.ReportNode {
	root := models.NewDirectoryNode("root", rootPath)
	lookup := map[string]*models.ReportNode{"": root}

	for _, file := range files {
		parent := root
		current := ""
		for _, part := range pathParts(filepath.Dir(file.Path)) {
			current = joinPart(current, part)
			node, ok := lookup[current]
			if !ok {
				node = models.NewDirectoryNode(part, current)
				lookup[current] = node
				parent.AddChild(node)
			}
			parent = node
		}
		parent.AddChild(file)
	}
	return root
}

// Prune collapses the chain of empty outer directories: while the current
// node is a directory whose only child is another directory, descend. The
// first directory that holds a file, or forks, becomes the new root.
func Prune(node *models.ReportNode) *models.ReportNode {
	current := node
	for current.IsDirectory() && len(current.Children) == 1 && current.Children[0].IsDirectory() {
		current = current.Children[0]
	}
	return current
}

// pathParts splits a cleaned directory path into its components, with a
// leading "/" component for absolute paths. "." yields no components.
func pathParts(dir string) []string {
	dir = filepath.Clean(dir)
	if dir == "." {
		return nil
	}
	sep := string(filepath.Separator)
	var parts []string
	if strings.HasPrefix(dir, sep) {
		parts = append(parts, sep)
		dir = strings.TrimPrefix(dir, sep)
	}
	if dir != "" {
		parts = append(parts, strings.Split(dir, sep)...)
	}
	return parts
}

func joinPart(current, part string) string {
	if current == "" {
		return part
	}
	return filepath.Join(current, part)
}
