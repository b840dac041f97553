package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"canopy/internal/output"
	"canopy/internal/progress"
	"canopy/internal/report"
	"canopy/internal/service/analysis"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Analyze Python sources into a hierarchical report",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "result.json",
				Usage:   "Report destination (\"-\" writes to stdout)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "json",
				Usage:   "Report format: json, yaml, toon, or text",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List the files that would be analyzed and exit",
			},
			&cli.BoolFlag{
				Name:  "duplication",
				Value: true,
				Usage: "Match near-duplicate units (--duplication=false skips matching)",
			},
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Analyze the committed tree at a git revision instead of the working tree",
			},
			&cli.IntFlag{
				Name:  "jobs",
				Usage: "Worker count for parallel analysis (0 picks one per CPU)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Extra gitignore-style exclude pattern (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Fail on the first unreadable or unparsable file",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress output",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if patterns := c.StringSlice("exclude"); len(patterns) > 0 {
		cfg.Exclude.Patterns = append(cfg.Exclude.Patterns, patterns...)
	}

	// Flags beat config, config beats flag defaults.
	outPath := c.String("output")
	if !c.IsSet("output") && cfg.Output.Path != "" {
		outPath = cfg.Output.Path
	}
	formatName := c.String("format")
	if !c.IsSet("format") && cfg.Output.Format != "" {
		formatName = cfg.Output.Format
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}
	duplication := cfg.Analysis.Duplication
	if c.IsSet("duplication") {
		duplication = c.Bool("duplication")
	}
	quiet := c.Bool("quiet")

	opts := analysis.Options{
		Ref:         c.String("ref"),
		Duplication: duplication,
		Jobs:        c.Int("jobs"),
		Strict:      c.Bool("strict"),
	}

	svc := analysis.New(analysis.WithConfig(cfg))
	plan, err := svc.Plan(getPaths(c), opts)
	if err != nil {
		return err
	}
	for _, msg := range plan.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}

	if c.Bool("dry-run") {
		fmt.Printf("Planned analysis (%d file(s)):\n", len(plan.Files))
		for _, f := range plan.Files {
			fmt.Printf("   %s\n", f)
		}
		return nil
	}

	if !quiet {
		fmt.Fprintf(os.Stderr, "Analyzing %d files...\n", len(plan.Files))
		opts.OnProgress = progressPrinter()
	}

	start := time.Now()
	rep, err := svc.Run(c.Context, plan, opts)
	if err != nil {
		return err
	}
	for _, f := range rep.Skipped {
		fmt.Fprintf(os.Stderr, "warning: %v, skipped\n", f.Err)
	}

	doc := report.New(rep, report.Metadata{
		Root:        rootLabel(c),
		Ref:         opts.Ref,
		GeneratedAt: time.Now(),
		Version:     version,
	}, plan.Warnings)

	formatter, err := output.NewFormatter(format, outPath, true)
	if err != nil {
		return err
	}
	defer formatter.Close()
	if err := formatter.Output(doc); err != nil {
		return err
	}

	if outPath != "" && outPath != "-" && !quiet {
		color.Green("%s written to %s", writtenLabel(format), outPath)
	}
	if c.Bool("verbose") && !quiet {
		fmt.Fprintf(os.Stderr, "Analysis completed in %s\n", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// progressPrinter adapts pipeline progress callbacks to a progress bar
// per phase. Bars are created on the first tick of each phase, so phases
// that never tick never draw.
func progressPrinter() analysis.ProgressFunc {
	var (
		mu    sync.Mutex
		bar   *progress.Bar
		phase string
		count int
	)
	return func(p string, current, total int, label string) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil || p != phase {
			bar = progress.NewBar(p, total)
			phase = p
			count = 0
		}
		count++
		bar.Tick()
		if count >= total {
			bar.FinishSuccess()
			bar = nil
		}
	}
}

// rootLabel names the analyzed location in the text report header.
func rootLabel(c *cli.Context) string {
	if c.Args().Len() == 1 {
		return c.Args().First()
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// writtenLabel names what the confirmation line says was written.
func writtenLabel(format output.Format) string {
	switch format {
	case output.FormatJSON:
		return "JSON report"
	case output.FormatYAML:
		return "YAML report"
	case output.FormatTOON:
		return "TOON report"
	default:
		return "Report"
	}
}
