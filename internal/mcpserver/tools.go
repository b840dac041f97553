package mcpserver

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"canopy/internal/output"
	"canopy/internal/service/analysis"
	"canopy/pkg/models"
	"canopy/pkg/report"
)

// AnalyzeInput is the base input shared by all tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
	Ref    string   `json:"ref,omitempty" jsonschema:"Analyze the committed tree at this git revision instead of the working tree."`
}

// AnalyzeTreeInput configures the analyze_tree tool.
type AnalyzeTreeInput struct {
	AnalyzeInput
	SkipDuplication bool `json:"skip_duplication,omitempty" jsonschema:"Skip the duplicate matching phase."`
	SummaryOnly     bool `json:"summary_only,omitempty" jsonschema:"Return only the aggregate summary, omitting the report tree."`
}

// FindDuplicatesInput configures the find_duplicates tool.
type FindDuplicatesInput struct {
	AnalyzeInput
	MinScore float64 `json:"min_score,omitempty" jsonschema:"Only report pairs at or above this similarity score (0.0-1.0)."`
	Top      int     `json:"top,omitempty" jsonschema:"Show at most N pairs, best first. Default 20."`
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	default:
		return output.FormatTOON
	}
}

// formatOutput serializes data for a tool response. Values round-trip
// through JSON first so both formats present the report's JSON field names.
func formatOutput(data any, format output.Format) (string, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	if format == output.FormatJSON {
		return string(raw), nil
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return "", err
	}
	out, err := toon.Marshal(plain, toon.WithIndent(2))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// runPipeline plans and executes a report run for a tool invocation.
func runPipeline(ctx context.Context, input AnalyzeInput, opts analysis.Options) (*analysis.Report, *analysis.Plan, error) {
	svc := analysis.New()
	plan, err := svc.Plan(getPaths(input), opts)
	if err != nil {
		return nil, nil, err
	}
	rep, err := svc.Run(ctx, plan, opts)
	if err != nil {
		return nil, nil, err
	}
	return rep, plan, nil
}

func skippedMessages(rep *analysis.Report) []string {
	var skipped []string
	for _, f := range rep.Skipped {
		skipped = append(skipped, f.Err.Error())
	}
	return skipped
}

func handleAnalyzeTree(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeTreeInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.AnalyzeInput)
	opts := analysis.Options{
		Ref:         input.Ref,
		Duplication: !input.SkipDuplication,
	}

	rep, plan, err := runPipeline(ctx, input.AnalyzeInput, opts)
	if err != nil {
		return toolError(err.Error())
	}
	if len(plan.Files) == 0 {
		return toolError("no python files found")
	}

	if input.SummaryOnly {
		out := struct {
			Summary  report.Summary `json:"summary" toon:"summary"`
			Warnings []string       `json:"warnings,omitempty" toon:"warnings,omitempty"`
			Skipped  []string       `json:"skipped,omitempty" toon:"skipped,omitempty"`
		}{rep.Summary, plan.Warnings, skippedMessages(rep)}
		return toolResult(out, format)
	}

	out := struct {
		Summary  report.Summary     `json:"summary" toon:"summary"`
		Warnings []string           `json:"warnings,omitempty" toon:"warnings,omitempty"`
		Skipped  []string           `json:"skipped,omitempty" toon:"skipped,omitempty"`
		Tree     *models.ReportNode `json:"tree" toon:"tree"`
	}{rep.Summary, plan.Warnings, skippedMessages(rep), rep.Root}
	return toolResult(out, format)
}

// duplicatePair is one row of the find_duplicates listing.
type duplicatePair struct {
	Unit       string  `json:"unit" toon:"unit"`
	Path       string  `json:"path" toon:"path"`
	Lines      int     `json:"lines" toon:"lines"`
	Score      float64 `json:"score" toon:"score"`
	Other      string  `json:"other" toon:"other"`
	LinesOther int     `json:"lines_other" toon:"lines_other"`
}

func handleFindDuplicates(ctx context.Context, req *mcp.CallToolRequest, input FindDuplicatesInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.AnalyzeInput)
	top := input.Top
	if top <= 0 {
		top = 20
	}

	opts := analysis.Options{Ref: input.Ref, Duplication: true}
	rep, plan, err := runPipeline(ctx, input.AnalyzeInput, opts)
	if err != nil {
		return toolError(err.Error())
	}
	if len(plan.Files) == 0 {
		return toolError("no python files found")
	}

	var pairs []duplicatePair
	for _, leaf := range rep.Root.Leaves() {
		d := leaf.Metrics.Duplication
		if d == nil || d.Score < input.MinScore {
			continue
		}
		pairs = append(pairs, duplicatePair{
			Unit:       leaf.DisplayName(),
			Path:       leaf.Path,
			Lines:      leaf.Metrics.Lines,
			Score:      d.Score,
			Other:      d.Other,
			LinesOther: d.LinesOther,
		})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		if pairs[i].Path != pairs[j].Path {
			return pairs[i].Path < pairs[j].Path
		}
		return pairs[i].Unit < pairs[j].Unit
	})
	if len(pairs) > top {
		pairs = pairs[:top]
	}

	out := struct {
		Duplicates []duplicatePair `json:"duplicates" toon:"duplicates"`
		Matched    int             `json:"matched" toon:"matched"`
		Units      int             `json:"units" toon:"units"`
	}{pairs, rep.Matched, rep.Summary.Units}
	return toolResult(out, format)
}
