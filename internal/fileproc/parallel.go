// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"canopy/pkg/analyzer"
	"canopy/pkg/parser"
)

// ProcessingError is an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects file processing errors from concurrent workers.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker
// count. 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// Workers resolves a requested worker count. Values <= 0 select
// DefaultWorkerMultiplier x NumCPU.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// MapFilesIndexed parses and processes files in parallel, preserving input
// order: results[i] corresponds to files[i], holding the zero value where
// that file failed. Failures are collected rather than aborting the batch.
// Progress is reported through the context tracker, if one is set.
func MapFilesIndexed[T any](ctx context.Context, files []string, fn func(*parser.Parser, string) (T, error)) ([]T, *ProcessingErrors) {
	return MapFilesIndexedN(ctx, files, 0, fn)
}

// MapFilesIndexedN is MapFilesIndexed with an explicit worker cap.
func MapFilesIndexedN[T any](ctx context.Context, files []string, maxWorkers int, fn func(*parser.Parser, string) (T, error)) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}
	maxWorkers = Workers(maxWorkers)
	if maxWorkers > len(files) {
		maxWorkers = len(files)
	}

	results := make([]T, len(files))
	errs := &ProcessingErrors{}
	tracker := analyzer.TrackerFromContext(ctx)

	// Parsers wrap CGO state, so workers share a fixed pool of them
	// instead of creating one per file.
	parsers := make(chan *parser.Parser, maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		parsers <- parser.New()
	}

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, path := range files {
		p.Go(func() {
			psr := <-parsers
			defer func() { parsers <- psr }()

			result, err := fn(psr, path)
			if err != nil {
				errs.Add(path, err)
			} else {
				results[i] = result
			}

			if tracker != nil {
				tracker.Tick(path)
			}
		})
	}
	p.Wait()

	close(parsers)
	for psr := range parsers {
		psr.Close()
	}

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}

// ForEachFileIndexed processes files in parallel without a parser,
// preserving input order. Use it for operations that read files directly.
func ForEachFileIndexed[T any](ctx context.Context, files []string, fn func(string) (T, error)) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([]T, len(files))
	errs := &ProcessingErrors{}
	tracker := analyzer.TrackerFromContext(ctx)

	p := pool.New().WithMaxGoroutines(Workers(0))
	for i, path := range files {
		p.Go(func() {
			result, err := fn(path)
			if err != nil {
				errs.Add(path, err)
			} else {
				results[i] = result
			}

			if tracker != nil {
				tracker.Tick(path)
			}
		})
	}
	p.Wait()

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
