package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Bar renders per-file processing progress.
type Bar struct {
	bar   *progressbar.ProgressBar
	label string
}

// Option configures a Bar.
type Option func(*options)

type options struct {
	writer io.Writer
}

// WithWriter redirects bar output, primarily for tests. The default
// writer is stderr so report output on stdout stays clean.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// NewBar creates a progress bar with the given label and total count.
func NewBar(label string, total int, opts ...Option) *Bar {
	o := options{writer: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(o.writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerPadding: "-",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Bar{bar: bar, label: label}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (b *Bar) Tick() {
	b.bar.Add(1)
}

// FinishSuccess completes and clears the bar.
func (b *Bar) FinishSuccess() {
	b.bar.Finish()
	b.bar.Clear()
}

// FinishError clears the bar and prints an error message to stderr.
func (b *Bar) FinishError(err error) {
	b.bar.Finish()
	b.bar.Clear()
	fmt.Fprintf(os.Stderr, "  %s error: %v\n", b.label, err)
}
