// Package report presents a finished analysis run: serialized formats
// carry the report tree itself, while text mode renders a human summary
// with offender and duplicate tables.
package report

import (
	"sort"
	"time"

	"canopy/internal/service/analysis"
	"canopy/pkg/models"
)

// Metadata describes the run a document presents.
type Metadata struct {
	Root        string
	Ref         string
	GeneratedAt time.Time
	Version     string
}

// Document pairs an analysis report with its run metadata. It implements
// output.Renderable: structured formats encode the tree only, the
// report's canonical schema, so metadata never leaks into the report.
type Document struct {
	Meta     Metadata
	Report   *analysis.Report
	Warnings []string
}

// New creates a document for a completed run.
func New(rep *analysis.Report, meta Metadata, warnings []string) *Document {
	return &Document{Meta: meta, Report: rep, Warnings: warnings}
}

// RenderData returns the report tree for serialization.
func (d *Document) RenderData() any {
	return d.Report.Root
}

// offenders returns the units with the highest cyclomatic complexity,
// at most limit of them. Ties resolve by size, then location, so the
// listing is stable across runs.
func (d *Document) offenders(limit int) []*models.ReportNode {
	leaves := d.Report.Root.Leaves()
	sort.SliceStable(leaves, func(i, j int) bool {
		a, b := leaves[i].Metrics, leaves[j].Metrics
		if a.CyclomaticComplexity != b.CyclomaticComplexity {
			return a.CyclomaticComplexity > b.CyclomaticComplexity
		}
		if a.Lines != b.Lines {
			return a.Lines > b.Lines
		}
		if leaves[i].Path != leaves[j].Path {
			return leaves[i].Path < leaves[j].Path
		}
		return leaves[i].DisplayName() < leaves[j].DisplayName()
	})
	if len(leaves) > limit {
		leaves = leaves[:limit]
	}
	return leaves
}

// duplicatePairs returns the units holding a duplication record, best
// score first, at most limit of them.
func (d *Document) duplicatePairs(limit int) []*models.ReportNode {
	var pairs []*models.ReportNode
	for _, leaf := range d.Report.Root.Leaves() {
		if leaf.Metrics.Duplication != nil {
			pairs = append(pairs, leaf)
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i].Metrics.Duplication, pairs[j].Metrics.Duplication
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if pairs[i].Path != pairs[j].Path {
			return pairs[i].Path < pairs[j].Path
		}
		return pairs[i].DisplayName() < pairs[j].DisplayName()
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
