package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"canopy/pkg/models"
)

// Summary aggregates a report tree for the analysis footer and the text
// formatter: node counts, the complexity distribution of all units, and
// how much of the codebase has a duplication partner.
type Summary struct {
	Directories int `json:"directories"`
	Files       int `json:"files"`
	Classes     int `json:"classes"`
	Functions   int `json:"functions"`
	Methods     int `json:"methods"`
	Units       int `json:"units"`
	UnitLines   int `json:"unit_lines"`

	MeanComplexity float64 `json:"mean_complexity"`
	P90Complexity  float64 `json:"p90_complexity"`
	MaxComplexity  int     `json:"max_complexity"`

	Duplicates          int     `json:"duplicates"`
	MaxDuplicationScore float64 `json:"max_duplication_score"`
}

// Summarize walks the tree iteratively and aggregates its units.
func Summarize(root *models.ReportNode) Summary {
	var s Summary
	var complexities []float64

	stack := []*models.ReportNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.Type {
		case models.NodeDirectory:
			s.Directories++
		case models.NodeFile:
			s.Files++
		case models.NodeClass:
			s.Classes++
		case models.NodeFunction:
			s.Functions++
		case models.NodeMethod:
			s.Methods++
		}

		if n.IsLeaf() && n.Metrics != nil {
			s.Units++
			s.UnitLines += n.Metrics.Lines
			c := n.Metrics.CyclomaticComplexity
			complexities = append(complexities, float64(c))
			if c > s.MaxComplexity {
				s.MaxComplexity = c
			}
			if d := n.Metrics.Duplication; d != nil {
				s.Duplicates++
				if d.Score > s.MaxDuplicationScore {
					s.MaxDuplicationScore = d.Score
				}
			}
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}

	if len(complexities) > 0 {
		sort.Float64s(complexities)
		s.MeanComplexity = stat.Mean(complexities, nil)
		s.P90Complexity = stat.Quantile(0.9, stat.Empirical, complexities, nil)
	}
	return s
}
