package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"canopy/pkg/analyzer/units"
	"canopy/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch for file changes and re-analyze",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Value: 500 * time.Millisecond,
				Usage: "Quiet period after the last write before re-analysis",
			},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(getPaths(c)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	watcher, err := watch.NewWatcher(absPath, cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	watcher.SetCallback(func(changed string) {
		reportChange(os.Stdout, changed)
	})

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nStopping watch...")
		cancel()
	}()

	if err := watcher.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// reportChange runs a single-file analysis and prints one line per unit.
func reportChange(w io.Writer, path string) {
	res, err := units.New().Analyze(context.Background(), []string{path})
	if err != nil {
		color.New(color.FgRed).Fprintf(w, "Analysis error: %v\n", err)
		return
	}
	if len(res.Failures) > 0 {
		color.New(color.FgRed).Fprintf(w, "%v\n", res.Failures[0].Err)
		return
	}
	if len(res.Files) == 0 {
		return
	}

	leaves := res.Files[0].Leaves()
	if len(leaves) == 0 {
		fmt.Fprintln(w, "No functions or methods")
		return
	}

	maxComplexity := 0
	for _, leaf := range leaves {
		fmt.Fprintf(w, "  %s (line %d): complexity %d, %d lines\n",
			leaf.DisplayName(), leaf.StartLine, leaf.Metrics.CyclomaticComplexity, leaf.Metrics.Lines)
		if leaf.Metrics.CyclomaticComplexity > maxComplexity {
			maxComplexity = leaf.Metrics.CyclomaticComplexity
		}
	}
	fmt.Fprintf(w, "%d unit(s), max complexity %d\n", len(leaves), maxComplexity)
}
