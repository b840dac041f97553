package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"canopy/internal/output"
)

// tableLimit caps the offender and duplicate tables in text mode.
const tableLimit = 10

// RenderText writes the human-readable report summary.
func (d *Document) RenderText(w io.Writer, colored bool) error {
	p := message.NewPrinter(language.English)
	header := func(format string, args ...any) {
		if colored {
			_, _ = color.New(color.FgCyan).Fprintf(w, format+"\n", args...)
		} else {
			fmt.Fprintf(w, format+"\n", args...)
		}
	}

	header("=== Code Report ===")
	if d.Meta.Version != "" {
		fmt.Fprintf(w, "canopy %s", d.Meta.Version)
		if !d.Meta.GeneratedAt.IsZero() {
			fmt.Fprintf(w, ", %s", d.Meta.GeneratedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(w)
	}
	if d.Meta.Ref != "" {
		fmt.Fprintf(w, "Revision: %s\n", d.Meta.Ref)
	} else if d.Meta.Root != "" {
		fmt.Fprintf(w, "Root: %s\n", d.Meta.Root)
	}

	s := d.Report.Summary
	fmt.Fprintf(w, "\nCorpus:\n")
	p.Fprintf(w, "  Directories: %d, Files: %d\n", s.Directories, s.Files)
	p.Fprintf(w, "  Classes: %d, Functions: %d, Methods: %d\n", s.Classes, s.Functions, s.Methods)
	p.Fprintf(w, "  Units: %d (%d lines)\n", s.Units, s.UnitLines)

	if s.Units > 0 {
		fmt.Fprintf(w, "\nComplexity:\n")
		fmt.Fprintf(w, "  Mean: %.1f, P90: %.0f, Max: %d\n", s.MeanComplexity, s.P90Complexity, s.MaxComplexity)

		fmt.Fprintf(w, "\nDuplication:\n")
		rate := float64(s.Duplicates) / float64(s.Units) * 100
		p.Fprintf(w, "  Units with a partner: %d of %d (%.1f%%)\n", s.Duplicates, s.Units, rate)
		if s.Duplicates > 0 {
			fmt.Fprintf(w, "  Max score: %.3f\n", s.MaxDuplicationScore)
		}
	}
	fmt.Fprintln(w)

	if err := d.renderOffenders(w, colored); err != nil {
		return err
	}
	if err := d.renderDuplicates(w, colored); err != nil {
		return err
	}

	if len(d.Report.Skipped) > 0 {
		header("Skipped files:")
		for _, f := range d.Report.Skipped {
			fmt.Fprintf(w, "  %s\n", f.Err)
		}
		fmt.Fprintln(w)
	}
	if len(d.Warnings) > 0 {
		header("Warnings:")
		for _, msg := range d.Warnings {
			fmt.Fprintf(w, "  %s\n", msg)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func (d *Document) renderOffenders(w io.Writer, colored bool) error {
	offenders := d.offenders(tableLimit)
	if len(offenders) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(offenders))
	for _, u := range offenders {
		rows = append(rows, []string{
			u.DisplayName(),
			u.Path,
			strconv.Itoa(u.StartLine),
			strconv.Itoa(u.Metrics.CyclomaticComplexity),
			strconv.Itoa(u.Metrics.Lines),
		})
	}
	table := output.NewTable(
		"Most Complex Units",
		[]string{"Unit", "Path", "Line", "Complexity", "Lines"},
		rows, nil, nil,
	)
	return table.RenderText(w, colored)
}

func (d *Document) renderDuplicates(w io.Writer, colored bool) error {
	pairs := d.duplicatePairs(tableLimit)
	if len(pairs) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(pairs))
	for _, u := range pairs {
		dup := u.Metrics.Duplication
		rows = append(rows, []string{
			u.DisplayName(),
			u.Path,
			fmt.Sprintf("%.3f", dup.Score),
			dup.Other,
			strconv.Itoa(dup.LinesOther),
		})
	}
	table := output.NewTable(
		"Duplicate Pairs",
		[]string{"Unit", "Path", "Score", "Partner", "Partner Lines"},
		rows, nil, nil,
	)
	return table.RenderText(w, colored)
}
