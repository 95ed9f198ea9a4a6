package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	md2lms "github.com/alnah/go-md2lms"
	"github.com/alnah/go-md2lms/internal/fileutil"
	"github.com/alnah/go-md2lms/internal/hints"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// utf8Name is the encoding name the decoder reports for UTF-8 input.
const utf8Name = "utf-8"

// Sentinel errors for batch operations.
var (
	ErrReadMarkdown = errors.New("failed to read markdown file")
	ErrWriteHTML    = errors.New("failed to write HTML file")
)

// Converter is the interface for the conversion service.
type Converter interface {
	Convert(ctx context.Context, input md2lms.Input) (*md2lms.Result, error)
	NormalizeDirectory(ctx context.Context, dir string) (int, error)
}

// Compile-time interface implementation check.
var _ Converter = (*md2lms.Converter)(nil)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	File     FileToConvert
	Encoding string
	Err      error
	Duration time.Duration
}

// convertBatch converts files with a fixed number of workers. Results keep
// the order of files whatever the completion order.
func convertBatch(ctx context.Context, conv Converter, files []FileToConvert, workers int, logger *slog.Logger) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(max(workers, 1), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{File: files[idx], Err: ctx.Err()}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx])
				logger.Debug("file done",
					"path", files[idx].RelPath,
					"encoding", results[idx].Encoding,
					"duration", results[idx].Duration,
					"error", results[idx].Err)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, conv Converter, f FileToConvert) ConversionResult {
	start := time.Now()
	result := ConversionResult{File: f}

	if f.CollidesWith != "" {
		result.Err = fmt.Errorf("%w: %s%s", ErrOutputCollision, f.OutputRel, hints.ForOutputCollision(f.CollidesWith))
		return result
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadMarkdown, err)
		result.Duration = time.Since(start)
		return result
	}

	converted, err := conv.Convert(ctx, md2lms.Input{Name: f.RelPath, Markdown: content})
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Encoding = converted.Encoding

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		result.Err = fmt.Errorf("creating output directory: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	// #nosec G306 -- HTML fragments are meant to be readable
	if err := fileutil.WriteFileAtomic(f.OutputPath, converted.HTML, filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteHTML, err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs one block per file in discovery order, then the
// totals. In quiet mode only failures are printed, to stderr.
func printResults(results []ConversionResult, flags commonFlags, env *Environment) ResultSummary {
	summary := countResults(results)

	for _, r := range results {
		if flags.quiet {
			if r.Err != nil {
				fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.File.RelPath, r.Err)
			}
			continue
		}

		fmt.Fprintf(env.Stdout, "Converting: %s -> %s\n", r.File.RelPath, r.File.OutputRel)
		if r.Encoding != "" && r.Encoding != utf8Name {
			fmt.Fprintf(env.Stdout, "  Note: Read %s using %s encoding\n", r.File.RelPath, r.Encoding)
		}

		switch {
		case r.Err != nil:
			fmt.Fprintf(env.Stdout, "  ✗ Failed to convert: %v\n", r.Err)
		case flags.verbose:
			fmt.Fprintf(env.Stdout, "  ✓ Successfully converted (%v)\n", r.Duration.Round(time.Millisecond))
		default:
			fmt.Fprintln(env.Stdout, "  ✓ Successfully converted")
		}
	}

	if !flags.quiet {
		fmt.Fprintln(env.Stdout, "\nConversion complete!")
		fmt.Fprintf(env.Stdout, "Successfully converted: %d files\n", summary.Succeeded)
		fmt.Fprintf(env.Stdout, "Failed to convert: %d files\n", summary.Failed)
	}

	return summary
}
